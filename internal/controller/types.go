// Package controller turns per-frame movement intent and look input into
// proposed rigid-body velocities and orientations.
//
// Characters live in an arena addressed by generation-checked handles. Each
// frame Step runs, in order: ground detection, movement (grounded walk and
// jump, or flight, selected by Mode), and look resolution. The physics engine
// integrates positions; this package never moves a body directly.
package controller

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-motion/internal/physics"
	"github.com/Faultbox/midgard-motion/pkg/math"
)

var (
	ErrUnsupportedProbeShape = errors.New("unsupported ground probe shape")
	ErrInvalidProperties     = errors.New("invalid character properties")
	ErrStaleHandle           = errors.New("stale character handle")
)

// Handle addresses a character slot. A handle outlives its character only as
// a stale value: the generation no longer matches once the slot is reused.
type Handle struct {
	Index      uint32
	Generation uint32
}

func (h Handle) String() string {
	return fmt.Sprintf("%d#%d", h.Index, h.Generation)
}

// Mode selects which velocity rule owns a character this frame.
type Mode uint8

const (
	ModeGrounded Mode = iota
	ModeFlying
)

func (m Mode) String() string {
	switch m {
	case ModeGrounded:
		return "grounded"
	case ModeFlying:
		return "flying"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Properties are the per-character speed limits, in units per second.
type Properties struct {
	WalkSpeed float32
	RunSpeed  float32
	JumpSpeed float32
}

// DefaultProperties returns walk 5, run 8, jump 6.
func DefaultProperties() Properties {
	return Properties{WalkSpeed: 5, RunSpeed: 8, JumpSpeed: 6}
}

// Validate requires positive speeds and RunSpeed >= WalkSpeed.
func (p Properties) Validate() error {
	if p.WalkSpeed <= 0 || p.RunSpeed <= 0 || p.JumpSpeed <= 0 {
		return fmt.Errorf("%w: speeds must be positive (walk %v, run %v, jump %v)",
			ErrInvalidProperties, p.WalkSpeed, p.RunSpeed, p.JumpSpeed)
	}
	if p.RunSpeed < p.WalkSpeed {
		return fmt.Errorf("%w: run speed %v below walk speed %v", ErrInvalidProperties, p.RunSpeed, p.WalkSpeed)
	}
	return nil
}

// TargetSpeed blends walk and run speed. fraction is clamped to [0, 1].
func (p Properties) TargetSpeed(fraction float32) float32 {
	fraction = max(0, min(1, fraction))
	return p.WalkSpeed + fraction*(p.RunSpeed-p.WalkSpeed)
}

// Intent is the movement request for one frame.
type Intent struct {
	// Direction need not be normalized; the zero vector means no intent.
	Direction math.Vec3
	// SpeedFraction is 0 for walking and 1 for running.
	SpeedFraction float32
	// Jump is edge-triggered: Step clears it after the frame it was set for.
	Jump bool
}

// Character is the controller state for one body.
type Character struct {
	Body       physics.BodyID
	Shape      physics.Shape // Ground probe shape
	Properties Properties
	Mode       Mode
	Grounded   bool
	Intent     Intent
	Look       Look
	// Rotation is the yaw-only body orientation written by the look resolver.
	Rotation math.Quat

	head  uint32 // Index into Controllers.heads
	Jumps int    // Jumps performed since spawn
}

// Head is the pitch-only sub-entity of a character. It refers back to its
// parent by handle and reads the parent's look each frame.
type Head struct {
	Parent Handle
	Offset math.Vec3 // Local position relative to the body
	// Rotation is the local pitch-only orientation written by the look resolver.
	Rotation math.Quat

	alive bool
}

// Settings are shared by every character in an arena.
type Settings struct {
	ProbeEpsilon float32   // Added to the shape extent for ground probes
	HeadOffset   math.Vec3 // Default eye offset for new characters
}

// DefaultSettings returns a 0.01 probe margin and a 0.6 eye height.
func DefaultSettings() Settings {
	return Settings{
		ProbeEpsilon: 0.01,
		HeadOffset:   math.Vec3{Y: 0.6},
	}
}
