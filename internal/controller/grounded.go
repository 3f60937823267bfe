package controller

import (
	"fmt"

	opt "github.com/repeale/fp-go/option"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-motion/internal/logger"
	"github.com/Faultbox/midgard-motion/internal/physics"
	"github.com/Faultbox/midgard-motion/pkg/math"
)

// CheckProbeShape reports whether s can be used for ground probing.
func CheckProbeShape(s physics.Shape) error {
	switch s.Kind {
	case physics.ShapeSphere, physics.ShapeCapsule:
		return s.Validate()
	}
	return fmt.Errorf("%w: %v", ErrUnsupportedProbeShape, s.Kind)
}

// ProbeExtent is the distance from a shape's centre to its lowest point.
// It panics for shapes other than spheres and capsules; Spawn rejects those.
func ProbeExtent(s physics.Shape) float32 {
	switch s.Kind {
	case physics.ShapeSphere:
		return s.Radius
	case physics.ShapeCapsule:
		return s.HalfSegment + s.Radius
	}
	panic(fmt.Sprintf("controller: ground probe not implemented for %v shapes", s.Kind))
}

// DetectGrounded refreshes Grounded for every non-flying character by casting
// a ray from the body along gravity, just past the bottom of its shape.
// Flying characters are never grounded.
func (c *Controllers) DetectGrounded() {
	down := c.engine.Gravity().Normalize()

	for i := range c.slots {
		s := &c.slots[i]
		if !s.alive {
			continue
		}
		ch := &s.char
		if ch.Mode == ModeFlying {
			ch.Grounded = false
			continue
		}

		grounded := c.probe(ch, down)
		if grounded != ch.Grounded {
			logger.Debug("grounded changed",
				zap.Stringer("character", Handle{Index: uint32(i), Generation: s.generation}),
				zap.Bool("grounded", grounded),
				zap.Uint64("frame", c.frame))
		}
		ch.Grounded = grounded
	}
}

func (c *Controllers) probe(ch *Character, down math.Vec3) bool {
	maxDistance := ProbeExtent(ch.Shape) + c.settings.ProbeEpsilon
	if down == (math.Vec3{}) {
		// No gravity, no ground
		return false
	}
	hit := c.engine.CastRay(c.engine.Position(ch.Body), down, maxDistance, ch.Body)
	return opt.IsSome(hit) && hit.Value.Distance <= maxDistance
}
