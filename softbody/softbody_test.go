package softbody

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/smit-ai/flash-engine/body"
)

func squareRing(cx, cy, half float32) ([]float32, []float32) {
	return []float32{cx - half, cx + half, cx + half, cx - half},
		[]float32{cy - half, cy - half, cy + half, cy + half}
}

func minY(sb *SoftBody) float32 {
	lowest := sb.Points[0].Pos.Y()
	for _, p := range sb.Points[1:] {
		lowest = min(lowest, p.Pos.Y())
	}
	return lowest
}

func noBounds() body.AABB {
	return body.AABB{Min: mgl32.Vec2{-1e6, -1e6}, Max: mgl32.Vec2{1e6, 1e6}}
}

func TestNewSoftBody(t *testing.T) {
	xs, ys := squareRing(0, 0, 5)
	sb := New(0, xs, ys, 1, 0.5)

	if len(sb.Points) != 4 {
		t.Fatalf("points = %d, want 4", len(sb.Points))
	}
	if sb.TargetArea != 100 {
		t.Errorf("TargetArea = %v, want 100", sb.TargetArea)
	}
	// Perimeter edges plus cross supports
	if len(sb.Constraints) != 6 {
		t.Errorf("constraints = %d, want 6", len(sb.Constraints))
	}
	if a := sb.Area(); a != 100 {
		t.Errorf("Area() = %v, want 100", a)
	}
}

func TestAreaWindingInsensitive(t *testing.T) {
	xs, ys := squareRing(0, 0, 5)
	ccw := New(0, xs, ys, 1, 0.5)

	// Reverse the winding
	rxs := []float32{xs[3], xs[2], xs[1], xs[0]}
	rys := []float32{ys[3], ys[2], ys[1], ys[0]}
	cw := New(1, rxs, rys, 1, 0.5)

	if ccw.TargetArea != cw.TargetArea {
		t.Errorf("area depends on winding: %v vs %v", ccw.TargetArea, cw.TargetArea)
	}
}

func TestSetPointZeroesVelocity(t *testing.T) {
	xs, ys := squareRing(0, 0, 5)
	sb := New(0, xs, ys, 1, 0.5)

	// Give the point some Verlet velocity, then teleport it
	sb.Points[0].Prev = sb.Points[0].Pos.Sub(mgl32.Vec2{3, 3})
	sb.SetPoint(0, 50, 50)

	if sb.Points[0].Pos != (mgl32.Vec2{50, 50}) {
		t.Errorf("Pos = %v, want {50 50}", sb.Points[0].Pos)
	}
	if sb.Points[0].Pos != sb.Points[0].Prev {
		t.Error("teleport should zero the Verlet velocity")
	}

	// Out of range is a no-op
	sb.SetPoint(99, 0, 0)
	sb.SetPoint(-1, 0, 0)
}

func TestStepFallsUnderGravity(t *testing.T) {
	xs, ys := squareRing(0, 100, 5)
	sb := New(0, xs, ys, 1, 0.5)

	before := sb.Points[0].Pos.Y()
	for i := 0; i < 30; i++ {
		sb.Step(1.0/60.0, mgl32.Vec2{0, -981}, nil, noBounds())
	}

	if sb.Points[0].Pos.Y() >= before {
		t.Errorf("point y %v did not fall from %v", sb.Points[0].Pos.Y(), before)
	}
}

func TestStepHoldsShape(t *testing.T) {
	xs, ys := squareRing(0, 0, 10)
	sb := New(0, xs, ys, 1, 0.5)

	for i := 0; i < 60; i++ {
		sb.Step(1.0/60.0, mgl32.Vec2{}, nil, noBounds())
	}

	// Without gravity or contacts the ring keeps its area
	if a := sb.Area(); math32.Abs(a-sb.TargetArea) > sb.TargetArea*0.2 {
		t.Errorf("area drifted to %v, target %v", a, sb.TargetArea)
	}
}

func TestPressureRecoversArea(t *testing.T) {
	xs, ys := squareRing(0, 0, 10)
	sb := New(0, xs, ys, 5, 0.1)

	// Crush the ring to a fraction of its size
	for i := range sb.Points {
		sb.Points[i].Pos = sb.Points[i].Pos.Mul(0.5)
		sb.Points[i].Prev = sb.Points[i].Pos
	}
	crushed := sb.Area()

	for i := 0; i < 120; i++ {
		sb.Step(1.0/60.0, mgl32.Vec2{}, nil, noBounds())
	}

	if a := sb.Area(); a <= crushed {
		t.Errorf("area %v did not recover from crushed %v", a, crushed)
	}
}

func TestDropOntoStaticBox(t *testing.T) {
	xs, ys := squareRing(0, 15, 5)
	sb := New(0, xs, ys, 1, 0.5)

	ground := []body.Body{
		body.New(0, body.Static, body.NewBox(200, 20), mgl32.Vec2{0, -10}, 0, body.DefaultFilter()),
	}

	contacts := 0
	for i := 0; i < 120; i++ {
		contacts += sb.Step(1.0/60.0, mgl32.Vec2{0, -981}, ground, noBounds())
	}

	if contacts == 0 {
		t.Fatal("soft body never touched the ground")
	}
	// Points rest on the ground surface (y=0) offset by the point radius;
	// none may tunnel through
	if low := minY(sb); low < -1 {
		t.Errorf("lowest point at y=%v, tunneled into the ground", low)
	}
}

func TestCollidePointCircle(t *testing.T) {
	xs, ys := squareRing(0, 0, 5)
	sb := New(0, xs, ys, 1, 0.5)

	obstacle := []body.Body{
		body.New(0, body.Static, body.NewCircle(10), mgl32.Vec2{0, 0}, 0, body.DefaultFilter()),
	}

	// Every ring point starts inside the obstacle and must be expelled
	sb.Step(1.0/60.0, mgl32.Vec2{}, obstacle, noBounds())

	for i, p := range sb.Points {
		dist := p.Pos.Len()
		if dist < 10+pointRadius-1e-3 {
			t.Errorf("point %d at distance %v, want pushed to %v", i, dist, 10+pointRadius)
		}
	}
}

func TestSensorBodiesIgnored(t *testing.T) {
	xs, ys := squareRing(0, 0, 5)
	sb := New(0, xs, ys, 1, 0.5)

	sensor := body.New(0, body.Static, body.NewCircle(50), mgl32.Vec2{0, 0}, 0, body.DefaultFilter())
	sensor.Sensor = true

	if contacts := sb.Step(1.0/60.0, mgl32.Vec2{}, []body.Body{sensor}, noBounds()); contacts != 0 {
		t.Errorf("contacts = %d, want 0 against a sensor", contacts)
	}
}

func TestClampToBounds(t *testing.T) {
	xs, ys := squareRing(0, 0, 5)
	sb := New(0, xs, ys, 1, 0.5)

	tight := body.AABB{Min: mgl32.Vec2{-2, -2}, Max: mgl32.Vec2{2, 2}}
	sb.Step(1.0/60.0, mgl32.Vec2{}, nil, tight)

	for i, p := range sb.Points {
		if !tight.ContainsPoint(p.Pos) {
			t.Errorf("point %d at %v escaped the bounds", i, p.Pos)
		}
	}
}
