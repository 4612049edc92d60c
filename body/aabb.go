package body

import "github.com/go-gl/mathgl/mgl32"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl32.Vec2
	Max mgl32.Vec2
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl32.Vec2) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y()
}

// Contains checks if other is fully inside the AABB
func (a AABB) Contains(other AABB) bool {
	return a.Min.X() <= other.Min.X() && a.Min.Y() <= other.Min.Y() &&
		a.Max.X() >= other.Max.X() && a.Max.Y() >= other.Max.Y()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on both axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y()
}

// Fattened returns the AABB grown by margin on every side
func (a AABB) Fattened(margin float32) AABB {
	return AABB{
		Min: mgl32.Vec2{a.Min.X() - margin, a.Min.Y() - margin},
		Max: mgl32.Vec2{a.Max.X() + margin, a.Max.Y() + margin},
	}
}

// Union returns the smallest AABB enclosing both a and other
func (a AABB) Union(other AABB) AABB {
	return AABB{
		Min: mgl32.Vec2{min(a.Min.X(), other.Min.X()), min(a.Min.Y(), other.Min.Y())},
		Max: mgl32.Vec2{max(a.Max.X(), other.Max.X()), max(a.Max.Y(), other.Max.Y())},
	}
}

// Perimeter is the cost metric used by the bounding-volume tree
func (a AABB) Perimeter() float32 {
	w := a.Max.X() - a.Min.X()
	h := a.Max.Y() - a.Min.Y()
	return 2 * (w + h)
}
