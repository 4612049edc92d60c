package constraint

import (
	"github.com/chewxy/math32"

	"github.com/smit-ai/flash-engine/body"
)

// Constraint is the hook the joint subsystem plugs into. Implementations are
// solved once per velocity iteration and once per position iteration.
type Constraint interface {
	SolveVelocity(dt float32)
	SolvePosition(dt float32)
}

// MixFriction combines two materials' friction coefficients
// (geometric mean, standard in physics)
func MixFriction(matA, matB body.Material) float32 {
	return math32.Sqrt(matA.Friction * matB.Friction)
}

// MixRestitution combines two materials' restitution: if one bounces, it
// bounces
func MixRestitution(matA, matB body.Material) float32 {
	return max(matA.Restitution, matB.Restitution)
}
