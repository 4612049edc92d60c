package body

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeCircle ShapeType = iota
	ShapeBox
)

// Shape describes a body's collision geometry. Dimensions are fixed at
// creation; bodies are never resized.
type Shape struct {
	Type   ShapeType
	Width  float32 // full extent, boxes
	Height float32 // full extent, boxes
	Radius float32
}

// NewCircle creates a circle shape with the given radius
func NewCircle(radius float32) Shape {
	return Shape{Type: ShapeCircle, Width: radius * 2, Height: radius * 2, Radius: radius}
}

// NewBox creates a box shape with the given full width and height
func NewBox(width, height float32) Shape {
	return Shape{Type: ShapeBox, Width: width, Height: height, Radius: min(width, height) / 2}
}

// ComputeInertia calculates the moment of inertia about the center of mass
func (s Shape) ComputeInertia(mass float32) float32 {
	if s.Type == ShapeBox {
		return (1.0 / 12.0) * mass * (s.Width*s.Width + s.Height*s.Height)
	}
	return 0.5 * mass * s.Radius * s.Radius
}

// AABB computes the tight world-space bounding box of the shape at the
// given pose
func (s Shape) AABB(position mgl32.Vec2, rotation float32) AABB {
	if s.Type == ShapeCircle {
		return AABB{
			Min: mgl32.Vec2{position.X() - s.Radius, position.Y() - s.Radius},
			Max: mgl32.Vec2{position.X() + s.Radius, position.Y() + s.Radius},
		}
	}

	hw := s.Width / 2
	hh := s.Height / 2
	corners := [4]mgl32.Vec2{
		Rotate(mgl32.Vec2{-hw, -hh}, rotation),
		Rotate(mgl32.Vec2{hw, -hh}, rotation),
		Rotate(mgl32.Vec2{hw, hh}, rotation),
		Rotate(mgl32.Vec2{-hw, hh}, rotation),
	}

	aabb := AABB{Min: position.Add(corners[0]), Max: position.Add(corners[0])}
	for i := 1; i < 4; i++ {
		corner := position.Add(corners[i])
		aabb.Min = mgl32.Vec2{min(aabb.Min.X(), corner.X()), min(aabb.Min.Y(), corner.Y())}
		aabb.Max = mgl32.Vec2{max(aabb.Max.X(), corner.X()), max(aabb.Max.Y(), corner.Y())}
	}
	return aabb
}

// Rotate rotates v counter-clockwise by angle radians
func Rotate(v mgl32.Vec2, angle float32) mgl32.Vec2 {
	c := math32.Cos(angle)
	s := math32.Sin(angle)
	return mgl32.Vec2{v.X()*c - v.Y()*s, v.X()*s + v.Y()*c}
}

// Cross is the 2D cross product (z component of the 3D cross)
func Cross(a, b mgl32.Vec2) float32 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// CrossSV computes the cross product of a scalar (out-of-plane) and a vector
func CrossSV(s float32, v mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{-s * v.Y(), s * v.X()}
}
