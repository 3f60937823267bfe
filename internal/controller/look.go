package controller

import (
	gomath "math"

	"github.com/Faultbox/midgard-motion/pkg/math"
)

// PitchBound keeps pitch just short of straight up or down, where yaw and
// pitch become degenerate.
const PitchBound = float32(gomath.Pi/2 - 1e-3)

// minMouseSq is the squared raw mouse delta below which look input is ignored.
const minMouseSq = 1e-6

var (
	forwardAxis = math.Vec3{Z: -1}
	rightAxis   = math.UnitX
	upAxis      = math.UnitY
)

// Look is an accumulated first-person view direction. Yaw is unbounded;
// Pitch is kept within [-PitchBound, PitchBound].
type Look struct {
	Yaw   float32
	Pitch float32
}

// Accumulate adds yaw and pitch deltas in radians and clamps the pitch.
// NaN and infinite deltas are dropped, as is a yaw delta that would overflow.
func (l *Look) Accumulate(dYaw, dPitch float32) {
	if yaw := l.Yaw + dYaw; isFinite(yaw) {
		l.Yaw = yaw
	}
	if isFinite(dPitch) {
		l.Pitch = clampPitch(l.Pitch + dPitch)
	}
}

func isFinite(f float32) bool {
	return f-f == 0
}

func clampPitch(p float32) float32 {
	if p != p {
		return 0
	}
	return max(-PitchBound, min(PitchBound, p))
}

// LookSettings converts raw mouse counts to radians.
type LookSettings struct {
	Sensitivity float32
	InvertY     bool
}

// DefaultLookSettings returns 0.005 radians per count, Y not inverted.
func DefaultLookSettings() LookSettings {
	return LookSettings{Sensitivity: 0.005}
}

// ApplyMouse accumulates a raw mouse delta. Moving the mouse right turns
// right (negative yaw) and moving it down looks down unless InvertY is set.
// Deltas inside the dead zone are ignored; it reports whether the look changed.
func (l *Look) ApplyMouse(delta math.Vec2, s LookSettings) bool {
	delta = delta.Scale(-1)
	if delta.LengthSquared() <= minMouseSq {
		return false
	}
	delta = delta.Scale(s.Sensitivity)
	if s.InvertY {
		delta.Y = -delta.Y
	}
	l.Accumulate(delta.X, delta.Y)
	return true
}

// Rotation is the combined view rotation: yaw about world Y, then pitch in
// the yawed frame. It is only used to derive direction vectors.
func (l Look) Rotation() math.Quat {
	return math.QuatFromYawPitch(l.Yaw, l.Pitch)
}

// Forward is the view direction.
func (l Look) Forward() math.Vec3 {
	return l.Rotation().Rotate(forwardAxis)
}

// Right is the view's right vector.
func (l Look) Right() math.Vec3 {
	return l.Rotation().Rotate(rightAxis)
}

// Up is the view's up vector.
func (l Look) Up() math.Vec3 {
	return l.Rotation().Rotate(upAxis)
}

// BodyRotation is the yaw-only orientation of the body.
func (l Look) BodyRotation() math.Quat {
	return math.QuatFromRotationY(l.Yaw)
}

// HeadRotation is the pitch-only orientation of the head relative to the body.
func (l Look) HeadRotation() math.Quat {
	return math.QuatFromRotationX(l.Pitch)
}

// BodyForward is the horizontal facing direction of the body.
func (l Look) BodyForward() math.Vec3 {
	return l.BodyRotation().Rotate(forwardAxis)
}

// BodyRight is the horizontal right vector of the body.
func (l Look) BodyRight() math.Vec3 {
	return l.BodyRotation().Rotate(rightAxis)
}

// ResolveLook rebuilds every body rotation from its yaw and every head
// rotation from its parent's pitch. Rotations are derived fresh each frame,
// never accumulated.
func (c *Controllers) ResolveLook() {
	for i := range c.slots {
		s := &c.slots[i]
		if s.alive {
			if !isFinite(s.char.Look.Yaw) {
				s.char.Look.Yaw = 0
			}
			s.char.Look.Pitch = clampPitch(s.char.Look.Pitch)
			s.char.Rotation = s.char.Look.BodyRotation()
		}
	}

	for i := range c.heads {
		head := &c.heads[i]
		if !head.alive {
			continue
		}
		parent, ok := c.Get(head.Parent)
		if !ok {
			continue
		}
		head.Rotation = parent.Look.HeadRotation()
	}
}
