package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-motion/internal/physics"
	"github.com/Faultbox/midgard-motion/pkg/math"
)

func TestTargetSpeed(t *testing.T) {
	p := DefaultProperties()

	assert.Equal(t, p.WalkSpeed, p.TargetSpeed(0))
	assert.Equal(t, p.RunSpeed, p.TargetSpeed(1))
	assert.Equal(t, float32(6.5), p.TargetSpeed(0.5))

	// Out-of-range fractions clamp to walk and run
	assert.Equal(t, p.WalkSpeed, p.TargetSpeed(-3))
	assert.Equal(t, p.RunSpeed, p.TargetSpeed(12))

	prev := p.TargetSpeed(0)
	for i := 1; i <= 100; i++ {
		s := p.TargetSpeed(float32(i) / 100)
		if s < prev {
			t.Fatalf("target speed decreased at fraction %v: %v < %v", float32(i)/100, s, prev)
		}
		prev = s
	}
}

func TestHorizontalVelocityWalkRunBlend(t *testing.T) {
	v := HorizontalVelocity(
		math.Vec3{X: -2, Y: -3.5, Z: 4},
		DefaultProperties(),
		Intent{Direction: math.Vec3{X: 1}, SpeedFraction: 0.5},
	)
	assert.Equal(t, math.Vec3{X: 6.5, Y: -3.5, Z: 0}, v)
}

func TestHorizontalVelocityIgnoresVerticalIntent(t *testing.T) {
	// Looking down while walking forward must not slow the walk
	v := HorizontalVelocity(
		math.Vec3{Y: 1},
		DefaultProperties(),
		Intent{Direction: math.Vec3{Y: -3, Z: -1}},
	)
	assert.InDelta(t, 0, v.X, 1e-6)
	assert.InDelta(t, -5, v.Z, 1e-6)
	assert.Equal(t, float32(1), v.Y)
}

func TestHorizontalVelocityDampsWithoutIntent(t *testing.T) {
	intents := []Intent{
		{},
		// Purely vertical
		{Direction: math.Vec3{Y: 1}},
		// Below the intent threshold once flattened
		{Direction: math.Vec3{X: 1e-4, Y: -1}},
		// Running without direction
		{Direction: math.Vec3{}, SpeedFraction: 1},
	}
	velocities := []math.Vec3{
		{X: 8, Y: 0, Z: 0},
		{X: -3, Y: 2, Z: 7},
		{X: 0.001, Y: -9, Z: -0.002},
	}

	for _, in := range intents {
		for _, v0 := range velocities {
			v := v0
			for frame := 0; frame < 10; frame++ {
				next := HorizontalVelocity(v, DefaultProperties(), in)

				assert.InDelta(t, v.Horizontal().Length()*0.5, next.Horizontal().Length(), 1e-6)
				assert.False(t, next.X*v.X < 0 || next.Z*v.Z < 0, "sign flipped: %v -> %v", v, next)
				assert.Equal(t, v0.Y, next.Y)
				v = next
			}
		}
	}
}

func TestJumpVelocity(t *testing.T) {
	p := Properties{WalkSpeed: 5, RunSpeed: 8, JumpSpeed: 6}
	v0 := math.Vec3{X: 1, Y: -4.2, Z: 2}

	tests := []struct {
		name     string
		jump     bool
		grounded bool
		wantY    float32
	}{
		{"grounded jump", true, true, 6},
		{"airborne jump ignored", true, false, -4.2},
		{"grounded no request", false, true, -4.2},
		{"airborne no request", false, false, -4.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := JumpVelocity(v0, p, Intent{Jump: tt.jump}, tt.grounded)
			assert.Equal(t, tt.wantY, v.Y)
			assert.Equal(t, v0.X, v.X)
			assert.Equal(t, v0.Z, v.Z)
		})
	}
}

func TestJumpOverwritesFallSpeed(t *testing.T) {
	v := JumpVelocity(math.Vec3{Y: -30}, DefaultProperties(), Intent{Jump: true}, true)
	assert.Equal(t, float32(6), v.Y)
}

func TestFlightVelocity(t *testing.T) {
	p := DefaultProperties()

	v := FlightVelocity(math.Vec3{X: 3, Y: -9, Z: 1}, p, Intent{Direction: math.Vec3{Y: 1}, SpeedFraction: 1})
	assert.Equal(t, math.Vec3{X: 0, Y: 8, Z: 0}, v)

	v = FlightVelocity(math.Vec3{}, p, Intent{Direction: math.Vec3{X: 3, Y: 4}})
	assert.True(t, v.ApproxEqual(math.Vec3{X: 3, Y: 4}, 1e-5), "got %v", v)

	v = FlightVelocity(math.Vec3{X: 4, Y: -2, Z: 8}, p, Intent{})
	assert.Equal(t, math.Vec3{X: 2, Y: -1, Z: 4}, v)
}

// newWalker spawns one capsule character resting on a flat ground slab.
func newWalker(t *testing.T, props Properties) (*physics.World, *Controllers, Handle) {
	t.Helper()
	w := physics.NewWorld(earthGravity)
	w.AddStatic(physics.NewAABB(math.Vec3{X: -100, Y: -1, Z: -100}, math.Vec3{X: 100, Y: 0, Z: 100}))
	shape := physics.Capsule(0.5, 0.5)
	body, err := w.AddBody(math.Vec3{Y: 1}, shape)
	require.NoError(t, err)

	c := New(w, DefaultSettings())
	h, err := c.Spawn(SpawnParams{Body: body, Shape: shape, Properties: props})
	require.NoError(t, err)
	return w, c, h
}

func TestApplyMovementGroundedJump(t *testing.T) {
	w, c, h := newWalker(t, DefaultProperties())
	ch, _ := c.Get(h)

	require.NoError(t, c.SetIntent(h, Intent{Direction: math.Vec3{Z: -1}, Jump: true}))
	c.Step()

	v := w.Velocity(ch.Body)
	assert.Equal(t, float32(6), v.Y)
	assert.InDelta(t, -5, v.Z, 1e-6)
	assert.Equal(t, 1, ch.Jumps)
	assert.False(t, ch.Intent.Jump, "jump request should be consumed")
}

func TestApplyMovementAirborneJumpDropped(t *testing.T) {
	w, c, h := newWalker(t, DefaultProperties())
	ch, _ := c.Get(h)
	require.NoError(t, w.SetPosition(ch.Body, math.Vec3{Y: 5}))
	w.SetVelocity(ch.Body, math.Vec3{Y: -2})

	require.NoError(t, c.SetIntent(h, Intent{Jump: true}))
	c.Step()

	assert.False(t, ch.Grounded)
	assert.Equal(t, float32(-2), w.Velocity(ch.Body).Y)
	assert.Zero(t, ch.Jumps)

	// No buffering: landing later does not replay the request
	require.NoError(t, w.SetPosition(ch.Body, math.Vec3{Y: 1}))
	c.Step()
	assert.True(t, ch.Grounded)
	assert.Equal(t, float32(-2), w.Velocity(ch.Body).Y)
}

func TestApplyMovementFlyingIgnoresGroundRules(t *testing.T) {
	w, c, h := newWalker(t, DefaultProperties())
	ch, _ := c.Get(h)
	require.NoError(t, c.SetMode(h, ModeFlying))

	require.NoError(t, c.SetIntent(h, Intent{Direction: math.Vec3{Y: 1}, SpeedFraction: 1, Jump: true}))
	c.Step()

	assert.False(t, ch.Grounded)
	assert.Equal(t, math.Vec3{Y: 8}, w.Velocity(ch.Body))
	assert.Zero(t, ch.Jumps)
}

func TestSetModeKeepsVelocity(t *testing.T) {
	w, c, h := newWalker(t, DefaultProperties())
	ch, _ := c.Get(h)

	require.NoError(t, c.SetIntent(h, Intent{Direction: math.Vec3{X: 1}, SpeedFraction: 1}))
	c.Step()
	require.Equal(t, float32(8), w.Velocity(ch.Body).X)

	mode, err := c.ToggleFlying(h)
	require.NoError(t, err)
	assert.Equal(t, ModeFlying, mode)
	assert.Equal(t, float32(8), w.Velocity(ch.Body).X, "toggling must not reset velocity")

	// Next frame the flight rule takes over: no intent halves the velocity
	require.NoError(t, c.SetIntent(h, Intent{}))
	c.Step()
	assert.InDelta(t, 4, w.Velocity(ch.Body).X, 1e-6)

	mode, err = c.ToggleFlying(h)
	require.NoError(t, err)
	assert.Equal(t, ModeGrounded, mode)
}
