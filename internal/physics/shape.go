package physics

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-motion/pkg/math"
)

// ShapeKind enumerates collision shapes.
type ShapeKind uint8

const (
	ShapeSphere ShapeKind = iota
	ShapeCapsule
	ShapeCuboid
)

// String returns the lowercase shape name used in config and scenario files.
func (k ShapeKind) String() string {
	switch k {
	case ShapeSphere:
		return "sphere"
	case ShapeCapsule:
		return "capsule"
	case ShapeCuboid:
		return "cuboid"
	default:
		return fmt.Sprintf("shape(%d)", uint8(k))
	}
}

// ParseShapeKind converts a shape name to a ShapeKind.
func ParseShapeKind(name string) (ShapeKind, error) {
	switch name {
	case "sphere":
		return ShapeSphere, nil
	case "capsule":
		return ShapeCapsule, nil
	case "cuboid":
		return ShapeCuboid, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, name)
}

var (
	ErrUnknownShape = errors.New("unknown shape kind")
	ErrInvalidShape = errors.New("invalid shape dimensions")
)

// Shape is a collision shape centred on its body's position.
// Capsules are aligned with the Y axis.
type Shape struct {
	Kind        ShapeKind
	Radius      float32   // Sphere, Capsule
	HalfSegment float32   // Capsule: half the length of the inner segment
	HalfExtents math.Vec3 // Cuboid
}

// Sphere returns a sphere shape.
func Sphere(radius float32) Shape {
	return Shape{Kind: ShapeSphere, Radius: radius}
}

// Capsule returns a Y-aligned capsule shape.
func Capsule(halfSegment, radius float32) Shape {
	return Shape{Kind: ShapeCapsule, Radius: radius, HalfSegment: halfSegment}
}

// Cuboid returns a box shape.
func Cuboid(halfExtents math.Vec3) Shape {
	return Shape{Kind: ShapeCuboid, HalfExtents: halfExtents}
}

// Validate checks that the dimensions are usable.
func (s Shape) Validate() error {
	switch s.Kind {
	case ShapeSphere:
		if s.Radius <= 0 {
			return fmt.Errorf("%w: sphere radius %v", ErrInvalidShape, s.Radius)
		}
	case ShapeCapsule:
		if s.Radius <= 0 || s.HalfSegment < 0 {
			return fmt.Errorf("%w: capsule radius %v half segment %v", ErrInvalidShape, s.Radius, s.HalfSegment)
		}
	case ShapeCuboid:
		h := s.HalfExtents
		if h.X < 0 || h.Y < 0 || h.Z < 0 {
			return fmt.Errorf("%w: cuboid half extents %v", ErrInvalidShape, h)
		}
	default:
		return fmt.Errorf("%w: %v", ErrUnknownShape, s.Kind)
	}
	return nil
}

// Bounds returns the half size of the shape's axis-aligned bounds.
func (s Shape) Bounds() math.Vec3 {
	switch s.Kind {
	case ShapeSphere:
		return math.Vec3{X: s.Radius, Y: s.Radius, Z: s.Radius}
	case ShapeCapsule:
		return math.Vec3{X: s.Radius, Y: s.HalfSegment + s.Radius, Z: s.Radius}
	default:
		return s.HalfExtents
	}
}
