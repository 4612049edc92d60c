package body

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func almostEqual(a, b, tol float32) bool {
	return math32.Abs(a-b) <= tol
}

func TestNewMassProperties(t *testing.T) {
	tests := []struct {
		name        string
		kind        Kind
		shape       Shape
		wantInvMass float32
		wantInertia float32
	}{
		{"static circle", Static, NewCircle(1), 0, 0},
		{"static box", Static, NewBox(2, 2), 0, 0},
		{"dynamic circle", Dynamic, NewCircle(1), 1, 0.5},
		{"dynamic box", Dynamic, NewBox(2, 2), 1, 8.0 / 12.0},
		{"kinematic circle", Kinematic, NewCircle(2), 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(0, tt.kind, tt.shape, mgl32.Vec2{}, 0, DefaultFilter())
			if b.InverseMass != tt.wantInvMass {
				t.Errorf("InverseMass = %v, want %v", b.InverseMass, tt.wantInvMass)
			}
			if !almostEqual(b.Inertia, tt.wantInertia, 1e-5) {
				t.Errorf("Inertia = %v, want %v", b.Inertia, tt.wantInertia)
			}
			if tt.kind == Static && b.InverseInertia != 0 {
				t.Errorf("static InverseInertia = %v, want 0", b.InverseInertia)
			}
			if !b.Awake {
				t.Error("new body should be awake")
			}
		})
	}
}

func TestSolverMassByKind(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		want float32
	}{
		{"static", Static, 0},
		{"kinematic", Kinematic, 0},
		{"dynamic", Dynamic, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(0, tt.kind, NewCircle(1), mgl32.Vec2{}, 0, DefaultFilter())
			if got := b.SolverInvMass(); got != tt.want {
				t.Errorf("SolverInvMass() = %v, want %v", got, tt.want)
			}
			if tt.kind != Dynamic && b.SolverInvInertia() != 0 {
				t.Errorf("SolverInvInertia() = %v, want 0", b.SolverInvInertia())
			}
		})
	}
}

func TestIntegrateForcesGravity(t *testing.T) {
	b := New(0, Dynamic, NewCircle(1), mgl32.Vec2{}, 0, DefaultFilter())
	dt := float32(1.0 / 60.0)
	gravity := mgl32.Vec2{0, -981}

	b.IntegrateForces(dt, gravity, 0)

	// Damping shaves 0.1% off the gravity delta
	want := -981 * dt * 0.999
	if !almostEqual(b.Velocity.Y(), want, 1e-3) {
		t.Errorf("Velocity.Y = %v, want %v", b.Velocity.Y(), want)
	}
	if b.Velocity.X() != 0 {
		t.Errorf("Velocity.X = %v, want 0", b.Velocity.X())
	}
}

func TestIntegrateForcesSkipsStatic(t *testing.T) {
	b := New(0, Static, NewBox(10, 10), mgl32.Vec2{}, 0, DefaultFilter())
	b.IntegrateForces(1.0/60.0, mgl32.Vec2{0, -981}, 0)

	if b.Velocity != (mgl32.Vec2{}) {
		t.Errorf("static body gained velocity %v", b.Velocity)
	}
}

func TestIntegrateForcesKinematicIgnoresGravity(t *testing.T) {
	b := New(0, Kinematic, NewCircle(1), mgl32.Vec2{}, 0, DefaultFilter())
	b.SetVelocity(10, 0)
	b.IntegrateForces(1.0/60.0, mgl32.Vec2{0, -981}, 0)

	if b.Velocity.Y() != 0 {
		t.Errorf("kinematic Velocity.Y = %v, want 0", b.Velocity.Y())
	}
	if b.Velocity.X() != 10 {
		t.Errorf("kinematic Velocity.X = %v, want 10", b.Velocity.X())
	}
}

func TestIntegrateForcesConsumesAccumulator(t *testing.T) {
	b := New(0, Dynamic, NewCircle(1), mgl32.Vec2{}, 0, DefaultFilter())
	b.AddForce(60, 0)
	if !b.HasPendingForce() {
		t.Fatal("force accumulator should be pending")
	}

	b.IntegrateForces(1.0, mgl32.Vec2{}, 0)
	if b.HasPendingForce() {
		t.Error("force accumulator should be consumed after integration")
	}
	want := float32(60) * 0.999
	if !almostEqual(b.Velocity.X(), want, 1e-3) {
		t.Errorf("Velocity.X = %v, want %v", b.Velocity.X(), want)
	}
}

func TestSpeedClamp(t *testing.T) {
	b := New(0, Dynamic, NewCircle(1), mgl32.Vec2{}, 0, DefaultFilter())
	b.SetVelocity(1000, 0)
	b.IntegrateForces(1.0/60.0, mgl32.Vec2{}, 100)

	if b.Velocity.Len() > 100+1e-3 {
		t.Errorf("speed %v exceeds clamp 100", b.Velocity.Len())
	}
}

func TestSleepAfterRest(t *testing.T) {
	b := New(0, Dynamic, NewCircle(1), mgl32.Vec2{}, 0, DefaultFilter())

	// At rest with no force: the timer accumulates until the body sleeps
	for i := 0; i < 3; i++ {
		b.IntegrateForces(0.5, mgl32.Vec2{}, 0)
	}
	if b.Awake {
		t.Fatal("body should be asleep after 1.5s at rest")
	}
	if b.Velocity != (mgl32.Vec2{}) || b.AngularVelocity != 0 {
		t.Error("sleeping body should have zero velocity")
	}
}

func TestWakeOnForce(t *testing.T) {
	b := New(0, Dynamic, NewCircle(1), mgl32.Vec2{}, 0, DefaultFilter())
	b.Sleep()

	b.AddForce(0, 100)
	if !b.Awake {
		t.Error("AddForce should wake the body")
	}
	if b.SleepTime != 0 {
		t.Errorf("SleepTime = %v, want 0", b.SleepTime)
	}
}

func TestStaticMutatorsNoOp(t *testing.T) {
	b := New(0, Static, NewBox(10, 10), mgl32.Vec2{}, 0, DefaultFilter())

	b.AddForce(100, 100)
	b.AddTorque(50)
	b.SetVelocity(5, 5)

	if b.HasPendingForce() {
		t.Error("static body accumulated a force")
	}
	if b.Velocity != (mgl32.Vec2{}) {
		t.Errorf("static body velocity = %v, want zero", b.Velocity)
	}
}

func TestIntegratePosition(t *testing.T) {
	b := New(0, Dynamic, NewCircle(1), mgl32.Vec2{0, 100}, 0, DefaultFilter())
	b.SetVelocity(60, -60)
	b.AngularVelocity = 6

	b.IntegratePosition(1.0 / 60.0)

	if !almostEqual(b.Position.X(), 1, 1e-4) || !almostEqual(b.Position.Y(), 99, 1e-4) {
		t.Errorf("Position = %v, want {1, 99}", b.Position)
	}
	if !almostEqual(b.Rotation, 0.1, 1e-4) {
		t.Errorf("Rotation = %v, want 0.1", b.Rotation)
	}
}

func TestIntegratePositionSkipsSleeping(t *testing.T) {
	b := New(0, Dynamic, NewCircle(1), mgl32.Vec2{}, 0, DefaultFilter())
	b.Velocity = mgl32.Vec2{100, 0}
	b.Awake = false

	b.IntegratePosition(1.0 / 60.0)
	if b.Position != (mgl32.Vec2{}) {
		t.Errorf("sleeping body moved to %v", b.Position)
	}
}

func TestFilterShouldCollide(t *testing.T) {
	tests := []struct {
		name string
		a, b Filter
		want bool
	}{
		{"defaults", DefaultFilter(), DefaultFilter(), true},
		{"disjoint masks", Filter{Category: 0x1, Mask: 0x2}, Filter{Category: 0x4, Mask: 0x8}, false},
		{"one way only", Filter{Category: 0x1, Mask: 0x2}, Filter{Category: 0x2, Mask: 0x4}, false},
		{"mutual", Filter{Category: 0x1, Mask: 0x2}, Filter{Category: 0x2, Mask: 0x1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.ShouldCollide(tt.b); got != tt.want {
				t.Errorf("ShouldCollide = %v, want %v", got, tt.want)
			}
		})
	}
}
