package constraint

import "github.com/chewxy/math32"

// Softness holds the spring-damper coefficients used by soft contact
// constraints. They come from the implicit discretization of a critically
// damped spring at the configured contact frequency.
type Softness struct {
	BiasRate     float32
	MassScale    float32
	ImpulseScale float32
}

// NewSoftness derives the coefficients for a step of length h. A hertz of 0
// disables softness: the constraint becomes rigid and penetration is left to
// the position-correction pass.
func NewSoftness(hertz, dampingRatio, h float32) Softness {
	if hertz == 0 {
		return Softness{BiasRate: 0, MassScale: 1, ImpulseScale: 0}
	}

	omega := 2 * math32.Pi * hertz
	a1 := 2*dampingRatio + h*omega
	a2 := h * omega * a1
	a3 := 1 / (1 + a2)

	return Softness{
		BiasRate:     omega / a1,
		MassScale:    a2 * a3,
		ImpulseScale: a3,
	}
}
