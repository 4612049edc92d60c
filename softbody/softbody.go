// Package softbody implements pressure-filled mass-spring bodies stepped by
// Verlet integration and constraint relaxation. Soft bodies step inside the
// same per-frame pipeline as the rigid solver but only query rigid bodies for
// collision response; stability comes from iteration count and stiffness
// tuning, not from an energy-conserving integrator.
package softbody

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/smit-ai/flash-engine/body"
)

const (
	relaxIterations = 10
	verletDamping   = 0.99
	pointRadius     = 2.0
	pressureScale   = 1e-5

	// Verlet velocity fractions kept after a rigid contact
	circleFrictionKeep = 0.9
	boxFrictionKeep    = 0.5
)

// Point is one Verlet particle of the ring
type Point struct {
	Pos     mgl32.Vec2
	Prev    mgl32.Vec2
	InvMass float32
}

// DistanceConstraint pulls two points toward a rest length
type DistanceConstraint struct {
	P1         int
	P2         int
	RestLength float32
	Stiffness  float32
}

// SoftBody is an ordered ring of points with perimeter and interior distance
// constraints plus a target area driving internal pressure. Points and
// constraints are sized once at creation.
type SoftBody struct {
	ID          int32
	Points      []Point
	Constraints []DistanceConstraint
	Pressure    float32
	TargetArea  float32
	Friction    float32
	Restitution float32
}

// New builds a soft body from an explicit point ring. Perimeter edges get the
// full stiffness; sparser interior cross-supports get a tenth of it.
func New(id int32, xs, ys []float32, pressure, stiffness float32) *SoftBody {
	n := len(xs)
	sb := &SoftBody{
		ID:          id,
		Points:      make([]Point, n),
		Constraints: make([]DistanceConstraint, 0, n+n/2),
		Pressure:    pressure,
		Friction:    0.4,
		Restitution: 0.2,
	}

	area := float32(0)
	for i := 0; i < n; i++ {
		p := mgl32.Vec2{xs[i], ys[i]}
		sb.Points[i] = Point{Pos: p, Prev: p, InvMass: 1}

		next := (i + 1) % n
		area += xs[i]*ys[next] - xs[next]*ys[i]
	}
	sb.TargetArea = math32.Abs(area) / 2

	for i := 0; i < n; i++ {
		next := (i + 1) % n
		sb.Constraints = append(sb.Constraints, DistanceConstraint{
			P1:         i,
			P2:         next,
			RestLength: sb.Points[i].Pos.Sub(sb.Points[next].Pos).Len(),
			Stiffness:  stiffness,
		})
	}
	for i := 0; i < n/2; i++ {
		across := (i + n/2) % n
		sb.Constraints = append(sb.Constraints, DistanceConstraint{
			P1:         i,
			P2:         across,
			RestLength: sb.Points[i].Pos.Sub(sb.Points[across].Pos).Len(),
			Stiffness:  stiffness * 0.1, // interior is softer
		})
	}

	return sb
}

// Area is the polygon's signed-area magnitude (shoelace formula)
func (sb *SoftBody) Area() float32 {
	area := float32(0)
	n := len(sb.Points)
	for i := 0; i < n; i++ {
		next := (i + 1) % n
		area += sb.Points[i].Pos.X()*sb.Points[next].Pos.Y() - sb.Points[next].Pos.X()*sb.Points[i].Pos.Y()
	}
	return math32.Abs(area) / 2
}

// SetPoint teleports a point and zeroes its Verlet velocity so host dragging
// cannot inject energy
func (sb *SoftBody) SetPoint(index int, x, y float32) {
	if index < 0 || index >= len(sb.Points) {
		return
	}
	sb.Points[index].Pos = mgl32.Vec2{x, y}
	sb.Points[index].Prev = mgl32.Vec2{x, y}
}

// Step advances the soft body one frame: Verlet integration, relaxation
// passes over distance and pressure constraints, collision response against
// the rigid bodies, and a clamp to the world bounds. It returns the number
// of rigid contacts resolved, for observability outside the loop.
func (sb *SoftBody) Step(dt float32, gravity mgl32.Vec2, bodies []body.Body, bounds body.AABB) int {
	sb.integrate(dt, gravity)

	for iter := 0; iter < relaxIterations; iter++ {
		sb.relaxDistances()
		sb.applyPressure()
	}

	contacts := sb.collideRigid(bodies)
	sb.clampToBounds(bounds)
	return contacts
}

func (sb *SoftBody) integrate(dt float32, gravity mgl32.Vec2) {
	accel := gravity.Mul(dt * dt)
	for i := range sb.Points {
		p := &sb.Points[i]
		velocity := p.Pos.Sub(p.Prev).Mul(verletDamping)
		p.Prev = p.Pos
		p.Pos = p.Pos.Add(velocity).Add(accel)
	}
}

func (sb *SoftBody) relaxDistances() {
	for _, c := range sb.Constraints {
		p1 := &sb.Points[c.P1]
		p2 := &sb.Points[c.P2]

		d := p2.Pos.Sub(p1.Pos)
		dist := d.Len()
		if dist < 1e-4 {
			continue
		}

		// Correction split equally; points share mass
		offset := d.Mul(0.5 * (dist - c.RestLength) / dist * c.Stiffness)
		p1.Pos = p1.Pos.Add(offset)
		p2.Pos = p2.Pos.Sub(offset)
	}
}

// applyPressure pushes each point along its local outward normal
// proportionally to the deficit against the target area
func (sb *SoftBody) applyPressure() {
	areaDiff := sb.TargetArea - sb.Area()
	n := len(sb.Points)

	for i := range sb.Points {
		prev := (i - 1 + n) % n
		next := (i + 1) % n

		normal := mgl32.Vec2{
			sb.Points[next].Pos.Y() - sb.Points[prev].Pos.Y(),
			-(sb.Points[next].Pos.X() - sb.Points[prev].Pos.X()),
		}
		length := normal.Len()
		if length < 1e-4 {
			continue
		}

		force := areaDiff * sb.Pressure * pressureScale
		sb.Points[i].Pos = sb.Points[i].Pos.Add(normal.Mul(force / length))
	}
}

// collideRigid pushes every point out of every rigid body it penetrates,
// damping the point's Verlet velocity to emulate friction. Sensors are
// non-solid and skipped.
func (sb *SoftBody) collideRigid(bodies []body.Body) int {
	contacts := 0
	for bi := range bodies {
		b := &bodies[bi]
		if b.Sensor {
			continue
		}
		for pi := range sb.Points {
			if b.Shape.Type == body.ShapeCircle {
				if sb.collidePointCircle(pi, b) {
					contacts++
				}
			} else {
				if sb.collidePointBox(pi, b) {
					contacts++
				}
			}
		}
	}
	return contacts
}

func (sb *SoftBody) collidePointCircle(index int, b *body.Body) bool {
	p := &sb.Points[index]
	d := p.Pos.Sub(b.Position)
	r := b.Shape.Radius + pointRadius
	distSq := d.LenSqr()
	if distSq >= r*r {
		return false
	}

	dist := math32.Sqrt(distSq)
	if dist < 1e-4 {
		return false
	}

	p.Pos = p.Pos.Add(d.Mul((r - dist) / dist))

	velocity := p.Pos.Sub(p.Prev)
	p.Prev = p.Pos.Sub(velocity.Mul(circleFrictionKeep))
	return true
}

func (sb *SoftBody) collidePointBox(index int, b *body.Body) bool {
	p := &sb.Points[index]
	local := body.Rotate(p.Pos.Sub(b.Position), -b.Rotation)

	hw := b.Shape.Width/2 + pointRadius
	hh := b.Shape.Height/2 + pointRadius
	if local.X() <= -hw || local.X() >= hw || local.Y() <= -hh || local.Y() >= hh {
		return false
	}

	// Push toward the closest face; normal points from the box to the point
	dLeft := local.X() + hw
	dRight := hw - local.X()
	dBottom := local.Y() + hh
	dTop := hh - local.Y()

	minPen := min(min(dLeft, dRight), min(dBottom, dTop))
	var localNormal mgl32.Vec2
	switch minPen {
	case dLeft:
		localNormal = mgl32.Vec2{-1, 0}
	case dRight:
		localNormal = mgl32.Vec2{1, 0}
	case dBottom:
		localNormal = mgl32.Vec2{0, -1}
	default:
		localNormal = mgl32.Vec2{0, 1}
	}

	normal := body.Rotate(localNormal, b.Rotation)
	p.Pos = p.Pos.Add(normal.Mul(minPen))

	velocity := p.Pos.Sub(p.Prev)
	p.Prev = p.Pos.Sub(velocity.Mul(boxFrictionKeep))
	return true
}

func (sb *SoftBody) clampToBounds(bounds body.AABB) {
	for i := range sb.Points {
		p := &sb.Points[i]
		p.Pos = mgl32.Vec2{
			clampf(p.Pos.X(), bounds.Min.X(), bounds.Max.X()),
			clampf(p.Pos.Y(), bounds.Min.Y(), bounds.Max.Y()),
		}
	}
}

func clampf(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
