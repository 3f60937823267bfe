package controller

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-motion/internal/logger"
	"github.com/Faultbox/midgard-motion/internal/physics"
	"github.com/Faultbox/midgard-motion/pkg/math"
)

type slot struct {
	generation uint32
	alive      bool
	char       Character
}

// Controllers is the arena of controlled characters bound to one engine.
// It is not safe for concurrent use; run Step from a single goroutine.
type Controllers struct {
	engine   physics.Engine
	settings Settings

	slots []slot
	free  []uint32

	heads     []Head
	freeHeads []uint32

	frame uint64
}

// New creates an empty arena.
func New(engine physics.Engine, settings Settings) *Controllers {
	return &Controllers{
		engine:   engine,
		settings: settings,
	}
}

// SpawnParams describes a new character. Zero Properties selects the defaults.
type SpawnParams struct {
	Body       physics.BodyID
	Shape      physics.Shape
	Properties Properties
	Mode       Mode
	Look       Look
	// HeadOffset overrides Settings.HeadOffset when non-nil.
	HeadOffset *math.Vec3
}

// Spawn adds a character for an existing engine body.
func (c *Controllers) Spawn(p SpawnParams) (Handle, error) {
	if err := CheckProbeShape(p.Shape); err != nil {
		return Handle{}, err
	}
	if p.Properties == (Properties{}) {
		p.Properties = DefaultProperties()
	}
	if err := p.Properties.Validate(); err != nil {
		return Handle{}, err
	}

	var idx uint32
	if n := len(c.free); n > 0 {
		idx = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		c.slots = append(c.slots, slot{})
		idx = uint32(len(c.slots) - 1)
	}

	s := &c.slots[idx]
	s.generation++
	s.alive = true
	h := Handle{Index: idx, Generation: s.generation}

	offset := c.settings.HeadOffset
	if p.HeadOffset != nil {
		offset = *p.HeadOffset
	}
	look := p.Look
	look.Pitch = clampPitch(look.Pitch)

	s.char = Character{
		Body:       p.Body,
		Shape:      p.Shape,
		Properties: p.Properties,
		Mode:       p.Mode,
		Look:       look,
		Rotation:   look.BodyRotation(),
		head:       c.addHead(h, offset, look),
	}

	logger.Debug("character spawned",
		zap.Stringer("character", h),
		zap.Uint32("body", uint32(p.Body)),
		zap.Stringer("shape", p.Shape.Kind),
		zap.Stringer("mode", p.Mode))
	return h, nil
}

func (c *Controllers) addHead(parent Handle, offset math.Vec3, look Look) uint32 {
	head := Head{
		Parent:   parent,
		Offset:   offset,
		Rotation: look.HeadRotation(),
		alive:    true,
	}
	if n := len(c.freeHeads); n > 0 {
		idx := c.freeHeads[n-1]
		c.freeHeads = c.freeHeads[:n-1]
		c.heads[idx] = head
		return idx
	}
	c.heads = append(c.heads, head)
	return uint32(len(c.heads) - 1)
}

// Despawn removes a character and its head. The engine body is left alone.
func (c *Controllers) Despawn(h Handle) error {
	ch, ok := c.Get(h)
	if !ok {
		return fmt.Errorf("despawn %v: %w", h, ErrStaleHandle)
	}
	c.heads[ch.head] = Head{}
	c.freeHeads = append(c.freeHeads, ch.head)

	s := &c.slots[h.Index]
	s.alive = false
	s.char = Character{}
	c.free = append(c.free, h.Index)

	logger.Debug("character despawned", zap.Stringer("character", h))
	return nil
}

// Get returns the live character for h.
func (c *Controllers) Get(h Handle) (*Character, bool) {
	if int(h.Index) >= len(c.slots) {
		return nil, false
	}
	s := &c.slots[h.Index]
	if !s.alive || s.generation != h.Generation {
		return nil, false
	}
	return &s.char, true
}

// Len returns the number of live characters.
func (c *Controllers) Len() int {
	return len(c.slots) - len(c.free)
}

// Each calls fn for every live character in slot order.
func (c *Controllers) Each(fn func(Handle, *Character)) {
	for i := range c.slots {
		s := &c.slots[i]
		if s.alive {
			fn(Handle{Index: uint32(i), Generation: s.generation}, &s.char)
		}
	}
}

// SetIntent replaces the movement intent for the next Step.
func (c *Controllers) SetIntent(h Handle, in Intent) error {
	ch, ok := c.Get(h)
	if !ok {
		return fmt.Errorf("set intent %v: %w", h, ErrStaleHandle)
	}
	in.SpeedFraction = max(0, min(1, in.SpeedFraction))
	ch.Intent = in
	return nil
}

// Look returns the mutable look state for h.
func (c *Controllers) Look(h Handle) (*Look, bool) {
	ch, ok := c.Get(h)
	if !ok {
		return nil, false
	}
	return &ch.Look, true
}

// SetMode switches between grounded and flying movement. Velocity is not
// reset; the next Step overwrites it under the new mode's rule. Entering
// flight clears the grounded flag.
func (c *Controllers) SetMode(h Handle, m Mode) error {
	ch, ok := c.Get(h)
	if !ok {
		return fmt.Errorf("set mode %v: %w", h, ErrStaleHandle)
	}
	if ch.Mode == m {
		return nil
	}
	ch.Mode = m
	if m == ModeFlying {
		ch.Grounded = false
	}
	logger.Debug("movement mode changed",
		zap.Stringer("character", h),
		zap.Stringer("mode", m))
	return nil
}

// ToggleFlying flips h between grounded and flying and returns the new mode.
func (c *Controllers) ToggleFlying(h Handle) (Mode, error) {
	ch, ok := c.Get(h)
	if !ok {
		return 0, fmt.Errorf("toggle flying %v: %w", h, ErrStaleHandle)
	}
	next := ModeFlying
	if ch.Mode == ModeFlying {
		next = ModeGrounded
	}
	return next, c.SetMode(h, next)
}

// Head returns the head sub-entity of h.
func (c *Controllers) Head(h Handle) (Head, bool) {
	ch, ok := c.Get(h)
	if !ok {
		return Head{}, false
	}
	return c.heads[ch.head], true
}

// HeadWorld returns the head's world transform: the body's position and yaw,
// then the head offset and pitch.
func (c *Controllers) HeadWorld(h Handle) (math.Mat4, bool) {
	ch, ok := c.Get(h)
	if !ok {
		return math.Identity(), false
	}
	head := c.heads[ch.head]
	return math.TranslateVec3(c.engine.Position(ch.Body)).
		Mul(ch.Rotation.ToMat4()).
		Mul(math.TranslateVec3(head.Offset)).
		Mul(head.Rotation.ToMat4()), true
}

// View returns the inverse of HeadWorld, for first-person cameras.
func (c *Controllers) View(h Handle) (math.Mat4, bool) {
	m, ok := c.HeadWorld(h)
	if !ok {
		return m, false
	}
	return m.Inverse(), true
}

// Frame returns the number of completed Steps.
func (c *Controllers) Frame() uint64 {
	return c.frame
}
