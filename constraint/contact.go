package constraint

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/smit-ai/flash-engine/body"
)

// ContactPoint carries the per-point solver state of a contact constraint
type ContactPoint struct {
	AnchorA        mgl32.Vec2 // contact point relative to body A's center
	AnchorB        mgl32.Vec2 // contact point relative to body B's center
	BaseSeparation float32    // negative penetration at build time
	VelocityBias   float32    // restitution target separation speed, set at build time
	NormalImpulse  float32
	TangentImpulse float32
	NormalMass     float32
	TangentMass    float32
}

// Contact is one contact constraint, rebuilt every step from the manifold.
// Accumulated impulses survive across steps through the ImpulseCache.
type Contact struct {
	BodyA       int32
	BodyB       int32
	Normal      mgl32.Vec2 // points from body A toward body B
	Friction    float32
	Restitution float32
	Points      [2]ContactPoint
	PointCount  int
	Softness    Softness
}

// InitPoint computes anchors and effective masses for one contact point.
// The effective mass is the reciprocal of the constraint's Jacobian term and
// must be recomputed every step since the lever arms move.
func (c *Contact) InitPoint(index int, point mgl32.Vec2, penetration float32, a, b *body.Body) {
	cp := &c.Points[index]
	cp.AnchorA = point.Sub(a.Position)
	cp.AnchorB = point.Sub(b.Position)
	cp.BaseSeparation = -penetration
	cp.NormalImpulse = 0
	cp.TangentImpulse = 0

	invMassA, invMassB := a.SolverInvMass(), b.SolverInvMass()
	invIA, invIB := a.SolverInvInertia(), b.SolverInvInertia()

	raN := body.Cross(cp.AnchorA, c.Normal)
	rbN := body.Cross(cp.AnchorB, c.Normal)
	kNormal := invMassA + invMassB + raN*raN*invIA + rbN*rbN*invIB
	if kNormal > 0 {
		cp.NormalMass = 1 / kNormal
	} else {
		cp.NormalMass = 0
	}

	tangent := mgl32.Vec2{-c.Normal.Y(), c.Normal.X()}
	raT := body.Cross(cp.AnchorA, tangent)
	rbT := body.Cross(cp.AnchorB, tangent)
	kTangent := invMassA + invMassB + raT*raT*invIA + rbT*rbT*invIB
	if kTangent > 0 {
		cp.TangentMass = 1 / kTangent
	} else {
		cp.TangentMass = 0
	}

	// The restitution target is fixed from the approach speed at build time.
	// Recomputing it inside the iterations would chase the already-corrected
	// velocity and kill the bounce.
	cp.VelocityBias = 0
	if c.Restitution > 0 {
		if vn := relativeVelocity(a, b, cp).Dot(c.Normal); vn < 0 {
			cp.VelocityBias = -c.Restitution * vn
		}
	}
}

// WarmStart seeds the contact points from the previous step's cache and
// applies the stored impulses immediately. Without this, resting stacks
// visibly sink each frame before recovering.
func (c *Contact) WarmStart(a, b *body.Body, cache ImpulseCache) {
	tangent := mgl32.Vec2{-c.Normal.Y(), c.Normal.X()}

	for i := 0; i < c.PointCount; i++ {
		cp := &c.Points[i]
		cached, ok := cache[MakeContactKey(c.BodyA, c.BodyB, i)]
		if !ok {
			cp.NormalImpulse = 0
			cp.TangentImpulse = 0
			continue
		}
		cp.NormalImpulse = cached.Normal
		cp.TangentImpulse = cached.Tangent

		impulse := c.Normal.Mul(cp.NormalImpulse).Add(tangent.Mul(cp.TangentImpulse))
		applyImpulse(a, b, cp, impulse)
	}
}

// SolveVelocity runs one sequential-impulse iteration over the contact's
// points: normal impulse first, then friction against the same iteration's
// normal impulse. This ordering is required for convergence.
func (c *Contact) SolveVelocity(a, b *body.Body) {
	normal := c.Normal
	tangent := mgl32.Vec2{-normal.Y(), normal.X()}

	for i := 0; i < c.PointCount; i++ {
		cp := &c.Points[i]

		dv := relativeVelocity(a, b, cp)

		// Normal impulse with soft bias and the fixed restitution target
		vn := dv.Dot(normal)
		bias := c.Softness.MassScale*c.Softness.BiasRate*cp.BaseSeparation - cp.VelocityBias

		lambda := -cp.NormalMass*(c.Softness.MassScale*vn+bias) - c.Softness.ImpulseScale*cp.NormalImpulse
		oldImpulse := cp.NormalImpulse
		// Contacts only push, never pull
		cp.NormalImpulse = max(oldImpulse+lambda, 0)
		lambda = cp.NormalImpulse - oldImpulse

		applyImpulse(a, b, cp, normal.Mul(lambda))

		// Friction impulse, clamped to the cone of the normal impulse just
		// solved
		dv = relativeVelocity(a, b, cp)
		lambdaT := -cp.TangentMass * dv.Dot(tangent)
		maxFriction := c.Friction * cp.NormalImpulse
		oldImpulse = cp.TangentImpulse
		cp.TangentImpulse = clamp(oldImpulse+lambdaT, -maxFriction, maxFriction)
		lambdaT = cp.TangentImpulse - oldImpulse

		applyImpulse(a, b, cp, tangent.Mul(lambdaT))
	}
}

// StoreImpulses persists the solved impulses for reuse next step
func (c *Contact) StoreImpulses(cache ImpulseCache) {
	for i := 0; i < c.PointCount; i++ {
		cache[MakeContactKey(c.BodyA, c.BodyB, i)] = CachedImpulse{
			Normal:  c.Points[i].NormalImpulse,
			Tangent: c.Points[i].TangentImpulse,
		}
	}
}

func relativeVelocity(a, b *body.Body, cp *ContactPoint) mgl32.Vec2 {
	vb := b.Velocity.Add(body.CrossSV(b.AngularVelocity, cp.AnchorB))
	va := a.Velocity.Add(body.CrossSV(a.AngularVelocity, cp.AnchorA))
	return vb.Sub(va)
}

func applyImpulse(a, b *body.Body, cp *ContactPoint, impulse mgl32.Vec2) {
	a.Velocity = a.Velocity.Sub(impulse.Mul(a.SolverInvMass()))
	a.AngularVelocity -= body.Cross(cp.AnchorA, impulse) * a.SolverInvInertia()
	b.Velocity = b.Velocity.Add(impulse.Mul(b.SolverInvMass()))
	b.AngularVelocity += body.Cross(cp.AnchorB, impulse) * b.SolverInvInertia()
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
