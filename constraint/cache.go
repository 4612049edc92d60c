package constraint

// ContactKey identifies one contact point across steps for warm starting.
// Body ids are canonical (BodyA < BodyB) so both orderings of a pair map to
// the same entry.
type ContactKey struct {
	BodyA int32
	BodyB int32
	Point uint8
}

// MakeContactKey builds the canonical key for a contact point
func MakeContactKey(bodyA, bodyB int32, point int) ContactKey {
	if bodyA > bodyB {
		bodyA, bodyB = bodyB, bodyA
	}
	return ContactKey{BodyA: bodyA, BodyB: bodyB, Point: uint8(point)}
}

// CachedImpulse stores the impulses solved for a contact point, reused as the
// next step's initial guess.
type CachedImpulse struct {
	Normal  float32
	Tangent float32
}

// ImpulseCache is the cross-step impulse memory. Its lifetime is scoped to
// one world instance.
type ImpulseCache map[ContactKey]CachedImpulse
