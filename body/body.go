package body

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Kind represents the type of rigid body
type Kind int

const (
	// Static bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	Static Kind = iota

	// Kinematic bodies move by host-set velocity; the solver never pushes them
	Kinematic

	// Dynamic bodies are affected by forces, gravity, and collisions
	Dynamic
)

// Bounds margin for temporal coherence so the broadphase does not need a
// fresh bound for slow-moving bodies every frame.
const AABBMargin = 2.0

const (
	sleepSpeedSq  = 0.2
	sleepAngular  = 0.2
	sleepDuration = 1.0
)

// Material holds the surface response properties of a body
type Material struct {
	Restitution float32 // 0 = no rebound, 1 = perfect restitution
	Friction    float32
}

// Filter controls which bodies are allowed to collide via category/mask bits
type Filter struct {
	Category uint32
	Mask     uint32
}

// DefaultFilter collides with everything
func DefaultFilter() Filter {
	return Filter{Category: 0x0001, Mask: 0xFFFF}
}

// ShouldCollide reports whether two filters allow a collision
func (f Filter) ShouldCollide(other Filter) bool {
	return f.Mask&other.Category != 0 && other.Mask&f.Category != 0
}

// Body is one rigid body in the dense world store; its ID is its index.
// Field order is part of the boundary contract: new fields are appended,
// never inserted.
type Body struct {
	ID   int32
	Kind Kind

	Shape    Shape
	Position mgl32.Vec2
	Rotation float32

	Velocity        mgl32.Vec2
	AngularVelocity float32

	force  mgl32.Vec2
	torque float32

	Mass           float32
	InverseMass    float32
	Inertia        float32
	InverseInertia float32

	Material Material
	Filter   Filter

	Sensor bool
	Bullet bool // reserved for continuous collision, not exercised by the solver

	CollisionCount int32
	SleepTime      float32
	Awake          bool

	Proxy int32 // broadphase proxy handle
}

// New creates a rigid body. Static bodies get zero inverse mass and inertia;
// all other kinds carry unit mass with inertia derived from the shape.
func New(id int32, kind Kind, shape Shape, position mgl32.Vec2, rotation float32, filter Filter) Body {
	b := Body{
		ID:       id,
		Kind:     kind,
		Shape:    shape,
		Position: position,
		Rotation: rotation,
		Material: Material{Restitution: 0.2, Friction: 0.4},
		Filter:   filter,
		Awake:    true,
		Proxy:    -1,
	}

	if kind == Static {
		b.Mass, b.InverseMass = 0, 0
		b.Inertia, b.InverseInertia = 0, 0
	} else {
		b.Mass = 1
		b.InverseMass = 1 / b.Mass
		b.Inertia = shape.ComputeInertia(b.Mass)
		b.InverseInertia = 1 / b.Inertia
	}

	return b
}

// AABB returns the body's bound fattened by the temporal coherence margin
func (b *Body) AABB() AABB {
	return b.Shape.AABB(b.Position, b.Rotation).Fattened(AABBMargin)
}

// SolverInvMass is the inverse mass the constraint solver sees. Static and
// kinematic bodies never yield to impulses.
func (b *Body) SolverInvMass() float32 {
	if b.Kind != Dynamic {
		return 0
	}
	return b.InverseMass
}

// SolverInvInertia is the inverse inertia the constraint solver sees
func (b *Body) SolverInvInertia() float32 {
	if b.Kind != Dynamic {
		return 0
	}
	return b.InverseInertia
}

// IntegrateForces advances velocity by gravity and accumulated force/torque,
// applies damping, clamps linear speed, and runs the sleep bookkeeping.
// Accumulated force and torque are consumed.
func (b *Body) IntegrateForces(dt float32, gravity mgl32.Vec2, maxSpeed float32) {
	if b.Kind == Static {
		return
	}

	if b.Velocity.LenSqr() < sleepSpeedSq && math32.Abs(b.AngularVelocity) < sleepAngular &&
		b.force == (mgl32.Vec2{}) && b.torque == 0 {
		b.SleepTime += dt
	} else {
		b.SleepTime = 0
		b.Awake = true
	}

	if b.SleepTime > sleepDuration {
		b.Sleep()
		return
	}

	if b.Kind == Dynamic {
		b.Velocity = b.Velocity.Add(gravity.Add(b.force.Mul(b.InverseMass)).Mul(dt))
		b.AngularVelocity += b.torque * b.InverseInertia * dt

		// Damping for stability
		b.Velocity = b.Velocity.Mul(0.999)
		b.AngularVelocity *= 0.999

		if maxSpeed > 0 && b.Velocity.LenSqr() > maxSpeed*maxSpeed {
			b.Velocity = b.Velocity.Mul(maxSpeed / b.Velocity.Len())
		}
	}

	b.force = mgl32.Vec2{}
	b.torque = 0
}

// IntegratePosition advances the pose by the current velocity
func (b *Body) IntegratePosition(dt float32) {
	if b.Kind == Static || !b.Awake {
		return
	}
	b.Position = b.Position.Add(b.Velocity.Mul(dt))
	b.Rotation += b.AngularVelocity * dt
}

// Sleep puts the body to rest: velocities are zeroed and integration skips it
func (b *Body) Sleep() {
	b.Awake = false
	b.Velocity = mgl32.Vec2{}
	b.AngularVelocity = 0
	b.force = mgl32.Vec2{}
	b.torque = 0
}

// Wake marks the body active and resets the sleep timer
func (b *Body) Wake() {
	b.Awake = true
	b.SleepTime = 0
}

// AddForce accumulates a force for the next step and wakes the body.
// No-op on static bodies.
func (b *Body) AddForce(fx, fy float32) {
	if b.Kind == Static {
		return
	}
	b.force = b.force.Add(mgl32.Vec2{fx, fy})
	b.Wake()
}

// AddTorque accumulates a torque for the next step and wakes the body
func (b *Body) AddTorque(torque float32) {
	if b.Kind == Static {
		return
	}
	b.torque += torque
	b.Wake()
}

// SetVelocity overwrites the linear velocity and wakes the body
func (b *Body) SetVelocity(vx, vy float32) {
	if b.Kind == Static {
		return
	}
	b.Velocity = mgl32.Vec2{vx, vy}
	b.Wake()
}

// HasPendingForce reports whether a force or torque is waiting to be applied
func (b *Body) HasPendingForce() bool {
	return b.force != (mgl32.Vec2{}) || b.torque != 0
}
