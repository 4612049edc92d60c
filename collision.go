package flash

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/smit-ai/flash-engine/body"
)

// Manifold describes one collision: a normal, a penetration depth and up to
// two contact points. It is produced fresh by every query and never cached.
type Manifold struct {
	Normal      mgl32.Vec2 // points from the first body toward the second
	Penetration float32
	Points      [2]mgl32.Vec2
	PointCount  int
	Colliding   bool
}

// Collide runs the exact shape-pair test for two bodies. The returned normal
// always points from a toward b, whatever the shape order. It is called once
// during constraint building and again during position correction against the
// corrected poses; the re-evaluation is required for position stability.
func Collide(a, b *body.Body) Manifold {
	switch {
	case a.Shape.Type == body.ShapeCircle && b.Shape.Type == body.ShapeCircle:
		return collideCircles(a, b)
	case a.Shape.Type == body.ShapeBox && b.Shape.Type == body.ShapeBox:
		return collideBoxes(a, b)
	case a.Shape.Type == body.ShapeCircle:
		return collideCircleBox(a, b)
	default:
		m := collideCircleBox(b, a)
		m.Normal = m.Normal.Mul(-1)
		return m
	}
}

func collideCircles(a, b *body.Body) Manifold {
	d := b.Position.Sub(a.Position)
	distSq := d.LenSqr()
	radiusSum := a.Shape.Radius + b.Shape.Radius

	if distSq >= radiusSum*radiusSum {
		return Manifold{}
	}

	m := Manifold{Colliding: true, PointCount: 1}
	dist := math32.Sqrt(distSq)
	if dist == 0 {
		// Coincident centers: the normal is arbitrary by definition and the
		// penetration is the first body's radius
		m.Penetration = a.Shape.Radius
		m.Normal = mgl32.Vec2{0, 1}
		m.Points[0] = a.Position
	} else {
		m.Penetration = radiusSum - dist
		m.Normal = d.Mul(1 / dist)
		m.Points[0] = b.Position.Sub(m.Normal.Mul(b.Shape.Radius))
	}
	return m
}

func boxVertices(b *body.Body) [4]mgl32.Vec2 {
	hw := b.Shape.Width / 2
	hh := b.Shape.Height / 2
	return [4]mgl32.Vec2{
		b.Position.Add(body.Rotate(mgl32.Vec2{-hw, -hh}, b.Rotation)),
		b.Position.Add(body.Rotate(mgl32.Vec2{hw, -hh}, b.Rotation)),
		b.Position.Add(body.Rotate(mgl32.Vec2{hw, hh}, b.Rotation)),
		b.Position.Add(body.Rotate(mgl32.Vec2{-hw, hh}, b.Rotation)),
	}
}

func projectOnto(vertices [4]mgl32.Vec2, axis mgl32.Vec2) (lo, hi float32) {
	lo = axis.Dot(vertices[0])
	hi = lo
	for i := 1; i < 4; i++ {
		p := axis.Dot(vertices[i])
		lo = min(lo, p)
		hi = max(hi, p)
	}
	return lo, hi
}

// collideBoxes is a separating-axis test over the four face normals. The box
// owning the minimum-overlap axis becomes the reference; contact points come
// from the incident box's vertices inside the reference projection, pushed
// half the overlap along the normal.
func collideBoxes(a, b *body.Body) Manifold {
	vertsA := boxVertices(a)
	vertsB := boxVertices(b)

	axes := [4]mgl32.Vec2{
		body.Rotate(mgl32.Vec2{1, 0}, a.Rotation),
		body.Rotate(mgl32.Vec2{0, 1}, a.Rotation),
		body.Rotate(mgl32.Vec2{1, 0}, b.Rotation),
		body.Rotate(mgl32.Vec2{0, 1}, b.Rotation),
	}

	minOverlap := float32(math32.MaxFloat32)
	var bestAxis mgl32.Vec2
	refVerts, incVerts := vertsA, vertsB
	incCenter := b.Position

	for i, axis := range axes {
		loA, hiA := projectOnto(vertsA, axis)
		loB, hiB := projectOnto(vertsB, axis)

		overlap := min(hiA, hiB) - max(loA, loB)
		if overlap <= 0 {
			return Manifold{}
		}

		if overlap < minOverlap {
			minOverlap = overlap
			bestAxis = axis
			if i < 2 {
				refVerts, incVerts, incCenter = vertsA, vertsB, b.Position
			} else {
				refVerts, incVerts, incCenter = vertsB, vertsA, a.Position
			}
		}
	}

	// Orient the normal from a toward b
	if bestAxis.Dot(b.Position.Sub(a.Position)) < 0 {
		bestAxis = bestAxis.Mul(-1)
	}

	m := Manifold{Colliding: true, Normal: bestAxis, Penetration: minOverlap}

	_, hiRef := projectOnto(refVerts, bestAxis)
	for _, v := range incVerts {
		// Incident vertices inside the reference projection (with slop)
		if bestAxis.Dot(v) <= hiRef+0.01 {
			m.Points[m.PointCount] = v.Add(bestAxis.Mul(minOverlap / 2))
			m.PointCount++
			if m.PointCount == 2 {
				break
			}
		}
	}

	if m.PointCount == 0 {
		// Vertex contact degenerated entirely; fall back to the incident
		// box's center
		m.PointCount = 1
		m.Points[0] = incCenter
	}
	return m
}

// collideCircleBox clamps the circle center in the box's local frame. The
// returned normal points from the circle toward the box.
func collideCircleBox(circle, box *body.Body) Manifold {
	localD := body.Rotate(circle.Position.Sub(box.Position), -box.Rotation)

	hw := box.Shape.Width / 2
	hh := box.Shape.Height / 2
	r := circle.Shape.Radius

	closest := mgl32.Vec2{clampf(localD.X(), -hw, hw), clampf(localD.Y(), -hh, hh)}
	localNormal := localD.Sub(closest)
	distSq := localNormal.LenSqr()
	inside := math32.Abs(localD.X()) <= hw && math32.Abs(localD.Y()) <= hh

	if distSq > r*r && !inside {
		return Manifold{}
	}

	m := Manifold{Colliding: true, PointCount: 1}
	dist := math32.Sqrt(distSq)
	var outward mgl32.Vec2 // box -> circle

	if dist > 1e-4 {
		outward = body.Rotate(localNormal, box.Rotation).Mul(1 / dist)
	} else {
		// Center inside the box: push out along the axis of least
		// penetration instead of producing a zero-length normal
		dx := hw - math32.Abs(localD.X())
		dy := hh - math32.Abs(localD.Y())
		if dx < dy {
			sign := float32(1)
			if localD.X() < 0 {
				sign = -1
			}
			outward = body.Rotate(mgl32.Vec2{sign, 0}, box.Rotation)
			dist = -dx
		} else {
			sign := float32(1)
			if localD.Y() < 0 {
				sign = -1
			}
			outward = body.Rotate(mgl32.Vec2{0, sign}, box.Rotation)
			dist = -dy
		}
	}

	m.Penetration = r - dist
	m.Normal = outward.Mul(-1)
	m.Points[0] = box.Position.Add(body.Rotate(closest, box.Rotation))
	return m
}

func clampf(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
