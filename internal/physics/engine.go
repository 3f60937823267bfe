// Package physics defines the boundary between the character controller and
// a rigid-body engine, plus a small reference World that implements it.
package physics

import (
	opt "github.com/repeale/fp-go/option"

	"github.com/Faultbox/midgard-motion/pkg/math"
)

// BodyID identifies a body (static or dynamic) inside an engine.
type BodyID uint32

// NoBody is never assigned to a real body.
const NoBody BodyID = 0

// RayHit describes the nearest surface a ray cast reached.
type RayHit struct {
	Body     BodyID
	Distance float32 // Along the normalized ray direction
	Point    math.Vec3
	Normal   math.Vec3
}

// Engine is what the controller needs from a physics engine. The engine owns
// integration and collision response; callers only propose velocities.
type Engine interface {
	// CastRay returns the nearest hit within maxDistance along direction,
	// ignoring the exclude body. direction must be normalized.
	CastRay(origin, direction math.Vec3, maxDistance float32, exclude BodyID) opt.Option[RayHit]
	// Gravity returns the global gravity vector.
	Gravity() math.Vec3
	Position(id BodyID) math.Vec3
	Velocity(id BodyID) math.Vec3
	SetVelocity(id BodyID, v math.Vec3)
}
