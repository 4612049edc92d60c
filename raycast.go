package flash

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/smit-ai/flash-engine/body"
)

// RayCastHit is the nearest intersection of a segment with the world's
// bodies. Hit is false and BodyID is InvalidID when nothing was struck.
type RayCastHit struct {
	BodyID   int32
	Point    mgl32.Vec2
	Normal   mgl32.Vec2
	Fraction float32 // 0.0 to 1.0 along the segment
	Hit      bool
}

// RayCast finds the nearest body intersected by the segment from start to
// end
func (w *World) RayCast(start, end mgl32.Vec2) RayCastHit {
	closest := RayCastHit{BodyID: InvalidID, Fraction: 1}
	d := end.Sub(start)

	for i := range w.bodies {
		b := &w.bodies[i]

		var fraction float32
		var normal mgl32.Vec2
		var hit bool

		if b.Shape.Type == body.ShapeCircle {
			hit, fraction, normal = intersectRayCircle(start, d, b.Position, b.Shape.Radius)
		} else {
			hit, fraction, normal = intersectRayBox(start, d, b)
		}

		if hit && fraction < closest.Fraction {
			closest.Hit = true
			closest.BodyID = b.ID
			closest.Fraction = fraction
			closest.Normal = normal
			closest.Point = start.Add(d.Mul(fraction))
		}
	}
	return closest
}

func intersectRayCircle(start, d, center mgl32.Vec2, radius float32) (bool, float32, mgl32.Vec2) {
	f := start.Sub(center)

	a := d.LenSqr()
	b := 2 * f.Dot(d)
	c := f.LenSqr() - radius*radius

	discriminant := b*b - 4*a*c
	if discriminant < 0 || a == 0 {
		return false, 0, mgl32.Vec2{}
	}

	discriminant = math32.Sqrt(discriminant)
	t := (-b - discriminant) / (2 * a)
	if t < 0 || t > 1 {
		return false, 0, mgl32.Vec2{}
	}

	hitPoint := start.Add(d.Mul(t))
	normal := hitPoint.Sub(center).Normalize()
	return true, t, normal
}

// intersectRayBox transforms the segment into the box's local frame, runs a
// slab test against the half extents, and rotates the hit normal back to
// world space
func intersectRayBox(start, d mgl32.Vec2, b *body.Body) (bool, float32, mgl32.Vec2) {
	localStart := body.Rotate(start.Sub(b.Position), -b.Rotation)
	localD := body.Rotate(d, -b.Rotation)

	hw := b.Shape.Width / 2
	hh := b.Shape.Height / 2

	tMin, tMax := float32(0), float32(1)
	var normal mgl32.Vec2

	for axis := 0; axis < 2; axis++ {
		origin, dir, extent := localStart.X(), localD.X(), hw
		if axis == 1 {
			origin, dir, extent = localStart.Y(), localD.Y(), hh
		}

		if math32.Abs(dir) < 1e-6 {
			if origin < -extent || origin > extent {
				return false, 0, mgl32.Vec2{}
			}
			continue
		}

		invD := 1 / dir
		t1 := (-extent - origin) * invD
		t2 := (extent - origin) * invD
		sign := float32(1)
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = -1
		}

		if t1 > tMin {
			tMin = t1
			if axis == 0 {
				normal = mgl32.Vec2{-sign, 0}
			} else {
				normal = mgl32.Vec2{0, -sign}
			}
		}
		tMax = min(tMax, t2)
		if tMin > tMax {
			return false, 0, mgl32.Vec2{}
		}
	}

	return true, tMin, body.Rotate(normal, b.Rotation)
}
