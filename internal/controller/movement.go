package controller

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-motion/internal/logger"
	"github.com/Faultbox/midgard-motion/pkg/math"
)

const (
	// minIntentSq is the squared length below which a direction counts as no intent.
	minIntentSq = 1e-6
	// idleDamping scales velocity each frame when there is no intent.
	idleDamping = 0.5
)

// HorizontalVelocity applies grounded walking to v. The intent is flattened
// onto the XZ plane before the threshold test; an intent with no horizontal
// part halves the horizontal velocity instead. The vertical component is
// returned unchanged.
func HorizontalVelocity(v math.Vec3, p Properties, in Intent) math.Vec3 {
	var h math.Vec3
	if flat := in.Direction.Horizontal(); flat.LengthSquared() > minIntentSq {
		h = flat.Normalize().Scale(p.TargetSpeed(in.SpeedFraction))
	} else {
		h = v.Horizontal().Scale(idleDamping)
	}
	return math.Vec3{X: h.X, Y: v.Y, Z: h.Z}
}

// JumpVelocity overwrites the vertical velocity with the jump speed when a
// jump is requested while grounded. Otherwise v is returned unchanged.
func JumpVelocity(v math.Vec3, p Properties, in Intent, grounded bool) math.Vec3 {
	if in.Jump && grounded {
		v.Y = p.JumpSpeed
	}
	return v
}

// FlightVelocity drives the full velocity from the 3D intent, or halves it
// without intent.
func FlightVelocity(v math.Vec3, p Properties, in Intent) math.Vec3 {
	if in.Direction.LengthSquared() > minIntentSq {
		return in.Direction.Normalize().Scale(p.TargetSpeed(in.SpeedFraction))
	}
	return v.Scale(idleDamping)
}

// ApplyMovement proposes a new velocity for every character. Exactly one rule
// set runs per character, chosen by its mode.
func (c *Controllers) ApplyMovement() {
	for i := range c.slots {
		s := &c.slots[i]
		if !s.alive {
			continue
		}
		ch := &s.char
		v := c.engine.Velocity(ch.Body)

		switch ch.Mode {
		case ModeGrounded:
			v = HorizontalVelocity(v, ch.Properties, ch.Intent)
			if ch.Intent.Jump {
				c.recordJump(Handle{Index: uint32(i), Generation: s.generation}, ch)
			}
			v = JumpVelocity(v, ch.Properties, ch.Intent, ch.Grounded)
		case ModeFlying:
			v = FlightVelocity(v, ch.Properties, ch.Intent)
		}

		c.engine.SetVelocity(ch.Body, v)
	}
}

func (c *Controllers) recordJump(h Handle, ch *Character) {
	if !ch.Grounded {
		logger.Debug("jump ignored while airborne",
			zap.Stringer("character", h),
			zap.Uint64("frame", c.frame))
		return
	}
	ch.Jumps++
	logger.Debug("jump",
		zap.Stringer("character", h),
		zap.Float32("speed", ch.Properties.JumpSpeed),
		zap.Uint64("frame", c.frame))
}
