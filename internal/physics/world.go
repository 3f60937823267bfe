package physics

import (
	"errors"
	"fmt"

	opt "github.com/repeale/fp-go/option"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-motion/internal/logger"
	"github.com/Faultbox/midgard-motion/pkg/math"
)

// ErrUnknownBody is returned for ids the world never issued.
var ErrUnknownBody = errors.New("unknown body")

type collider struct {
	static   bool
	box      AABB // Static bodies only
	position math.Vec3
	velocity math.Vec3
	shape    Shape
}

func (c *collider) bounds() AABB {
	if c.static {
		return c.box
	}
	return AABBAround(c.position, c.shape.Bounds())
}

// World is a minimal single-threaded rigid-body world: static boxes, dynamic
// bodies under gravity, and vertical support against static tops. It has no
// lateral collision response. Not safe for concurrent use.
type World struct {
	gravity   math.Vec3
	colliders []collider // Index i holds BodyID i+1
}

// NewWorld creates an empty world with the given gravity.
func NewWorld(gravity math.Vec3) *World {
	return &World{gravity: gravity}
}

// AddStatic adds an immovable box and returns its id.
func (w *World) AddStatic(box AABB) BodyID {
	w.colliders = append(w.colliders, collider{static: true, box: box})
	id := BodyID(len(w.colliders))
	logger.Debug("static collider added",
		zap.Uint32("body", uint32(id)),
		zap.Any("min", box.Min),
		zap.Any("max", box.Max))
	return id
}

// AddBody adds a dynamic body centred at pos.
func (w *World) AddBody(pos math.Vec3, shape Shape) (BodyID, error) {
	if err := shape.Validate(); err != nil {
		return NoBody, fmt.Errorf("adding body: %w", err)
	}
	w.colliders = append(w.colliders, collider{position: pos, shape: shape})
	id := BodyID(len(w.colliders))
	logger.Debug("dynamic body added",
		zap.Uint32("body", uint32(id)),
		zap.Stringer("shape", shape.Kind))
	return id, nil
}

func (w *World) get(id BodyID) *collider {
	if id == NoBody || int(id) > len(w.colliders) {
		return nil
	}
	return &w.colliders[id-1]
}

// Gravity implements Engine.
func (w *World) Gravity() math.Vec3 {
	return w.gravity
}

// SetGravity replaces the global gravity vector.
func (w *World) SetGravity(g math.Vec3) {
	w.gravity = g
}

// Position implements Engine. Unknown ids report the origin.
func (w *World) Position(id BodyID) math.Vec3 {
	if c := w.get(id); c != nil && !c.static {
		return c.position
	}
	return math.Vec3{}
}

// SetPosition teleports a dynamic body.
func (w *World) SetPosition(id BodyID, pos math.Vec3) error {
	c := w.get(id)
	if c == nil || c.static {
		return fmt.Errorf("%w: %d", ErrUnknownBody, id)
	}
	c.position = pos
	return nil
}

// Velocity implements Engine.
func (w *World) Velocity(id BodyID) math.Vec3 {
	if c := w.get(id); c != nil && !c.static {
		return c.velocity
	}
	return math.Vec3{}
}

// SetVelocity implements Engine. Static and unknown ids are ignored.
func (w *World) SetVelocity(id BodyID, v math.Vec3) {
	if c := w.get(id); c != nil && !c.static {
		c.velocity = v
	}
}

// CastRay implements Engine.
func (w *World) CastRay(origin, direction math.Vec3, maxDistance float32, exclude BodyID) opt.Option[RayHit] {
	ray := Ray{Origin: origin, Direction: direction}

	var best RayHit
	found := false
	for i := range w.colliders {
		id := BodyID(i + 1)
		if id == exclude {
			continue
		}
		box := w.colliders[i].bounds()
		t, ok := ray.IntersectAABB(box)
		if !ok || t > maxDistance {
			continue
		}
		if !found || t < best.Distance {
			p := ray.At(t)
			best = RayHit{Body: id, Distance: t, Point: p, Normal: faceNormal(box, p)}
			found = true
		}
	}

	if !found {
		return opt.None[RayHit]()
	}
	return opt.Some(best)
}

// Step integrates every dynamic body by dt seconds and rests bodies that
// fall through the top face of a static box back onto it.
func (w *World) Step(dt float32) {
	for i := range w.colliders {
		c := &w.colliders[i]
		if c.static {
			continue
		}

		prev := c.position
		c.velocity = c.velocity.Add(w.gravity.Scale(dt))
		c.position = c.position.Add(c.velocity.Scale(dt))

		w.support(c, prev)
	}
}

// support rests a body on the top of any static box its lowest point has
// sunk into. A body that was above the top before the step is caught even if
// it moved past the whole box; one that is wholly below the box is left alone.
func (w *World) support(c *collider, prev math.Vec3) {
	half := c.shape.Bounds().Y
	for j := range w.colliders {
		s := &w.colliders[j]
		if !s.static || !s.box.ContainsXZ(c.position) {
			continue
		}
		top := s.box.Max.Y
		bottom := c.position.Y - half
		if bottom >= top {
			continue
		}
		crossed := prev.Y-half >= top-1e-4
		if crossed || bottom >= s.box.Min.Y {
			c.position.Y = top + half
			if c.velocity.Y < 0 {
				c.velocity.Y = 0
			}
		}
	}
}
