package controller

import (
	"testing"

	opt "github.com/repeale/fp-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-motion/internal/physics"
	"github.com/Faultbox/midgard-motion/pkg/math"
)

var earthGravity = math.Vec3{Y: -9.81}

func approx(want float32) func(float32) bool {
	return func(got float32) bool {
		d := got - want
		return d < 1e-6 && d > -1e-6
	}
}

func straightDown(d math.Vec3) bool {
	return d.ApproxEqual(math.Vec3{Y: -1}, 1e-6)
}

func TestProbeExtent(t *testing.T) {
	assert.Equal(t, float32(0.5), ProbeExtent(physics.Sphere(0.5)))
	assert.Equal(t, float32(1.0), ProbeExtent(physics.Capsule(0.5, 0.5)))
	assert.Panics(t, func() {
		ProbeExtent(physics.Cuboid(math.Vec3{X: 1, Y: 1, Z: 1}))
	})
}

func TestCheckProbeShape(t *testing.T) {
	assert.NoError(t, CheckProbeShape(physics.Sphere(1)))
	assert.NoError(t, CheckProbeShape(physics.Capsule(0.5, 0.5)))
	assert.ErrorIs(t, CheckProbeShape(physics.Cuboid(math.Vec3{X: 1, Y: 1, Z: 1})), ErrUnsupportedProbeShape)
	assert.ErrorIs(t, CheckProbeShape(physics.Sphere(0)), physics.ErrInvalidShape)
}

func TestDetectGroundedCastsAlongGravity(t *testing.T) {
	const body physics.BodyID = 7
	pos := math.Vec3{X: 1, Y: 5, Z: -2}

	tests := []struct {
		name     string
		hit      opt.Option[physics.RayHit]
		grounded bool
	}{
		{"hit within probe", hitAt(3, 1.005), true},
		{"hit past probe", hitAt(3, 1.02), false},
		{"no hit", opt.None[physics.RayHit](), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &mockEngine{}
			eng.On("Gravity").Return(earthGravity)
			eng.On("Position", body).Return(pos)
			eng.On("CastRay", pos, mock.MatchedBy(straightDown), mock.MatchedBy(approx(1.01)), body).Return(tt.hit).Once()

			c := New(eng, DefaultSettings())
			h, err := c.Spawn(SpawnParams{Body: body, Shape: physics.Capsule(0.5, 0.5)})
			require.NoError(t, err)

			c.DetectGrounded()

			ch, _ := c.Get(h)
			assert.Equal(t, tt.grounded, ch.Grounded)
			eng.AssertExpectations(t)
		})
	}
}

func TestDetectGroundedSkipsFlying(t *testing.T) {
	eng := &mockEngine{}
	eng.On("Gravity").Return(earthGravity)

	c := New(eng, DefaultSettings())
	h, err := c.Spawn(SpawnParams{Body: 1, Shape: physics.Sphere(0.5), Mode: ModeFlying})
	require.NoError(t, err)

	ch, _ := c.Get(h)
	ch.Grounded = true // Corrupted externally; the detector restores the invariant

	c.DetectGrounded()

	assert.False(t, ch.Grounded)
	eng.AssertNotCalled(t, "CastRay", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDetectGroundedWithoutGravity(t *testing.T) {
	eng := &mockEngine{}
	eng.On("Gravity").Return(math.Vec3{})

	c := New(eng, DefaultSettings())
	h, err := c.Spawn(SpawnParams{Body: 1, Shape: physics.Sphere(0.5)})
	require.NoError(t, err)

	c.DetectGrounded()

	ch, _ := c.Get(h)
	assert.False(t, ch.Grounded)
	eng.AssertNotCalled(t, "CastRay", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDetectGroundedPanicsOnUnsupportedShape(t *testing.T) {
	eng := &mockEngine{}
	eng.On("Gravity").Return(earthGravity)
	eng.On("Position", mock.Anything).Return(math.Vec3{})

	c := New(eng, DefaultSettings())
	h, err := c.Spawn(SpawnParams{Body: 1, Shape: physics.Sphere(0.5)})
	require.NoError(t, err)

	ch, _ := c.Get(h)
	ch.Shape = physics.Cuboid(math.Vec3{X: 1, Y: 1, Z: 1})

	assert.Panics(t, c.DetectGrounded)
}

// Capsule half segment 0.5, radius 0.5: the probe reaches 1.01 below the centre.
func TestDetectGroundedCapsuleAgainstWorld(t *testing.T) {
	tests := []struct {
		name     string
		height   float32
		grounded bool
	}{
		{"resting", 1.0, true},
		{"hovering inside margin", 1.005, true},
		{"hovering past margin", 1.02, false},
		{"falling from height", 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := physics.NewWorld(earthGravity)
			w.AddStatic(physics.NewAABB(math.Vec3{X: -10, Y: -1, Z: -10}, math.Vec3{X: 10, Y: 0, Z: 10}))
			shape := physics.Capsule(0.5, 0.5)
			body, err := w.AddBody(math.Vec3{Y: tt.height}, shape)
			require.NoError(t, err)

			c := New(w, DefaultSettings())
			h, err := c.Spawn(SpawnParams{Body: body, Shape: shape})
			require.NoError(t, err)

			c.DetectGrounded()

			ch, _ := c.Get(h)
			assert.Equal(t, tt.grounded, ch.Grounded)
		})
	}
}

func TestDetectGroundedOnAnotherBody(t *testing.T) {
	w := physics.NewWorld(earthGravity)
	lower, err := w.AddBody(math.Vec3{Y: 10}, physics.Sphere(0.5))
	require.NoError(t, err)
	upper, err := w.AddBody(math.Vec3{Y: 11}, physics.Sphere(0.5))
	require.NoError(t, err)

	c := New(w, DefaultSettings())
	hl, err := c.Spawn(SpawnParams{Body: lower, Shape: physics.Sphere(0.5)})
	require.NoError(t, err)
	hu, err := c.Spawn(SpawnParams{Body: upper, Shape: physics.Sphere(0.5)})
	require.NoError(t, err)

	c.DetectGrounded()

	// Standing on another body counts as ground; the lower one has nothing under it
	chl, _ := c.Get(hl)
	chu, _ := c.Get(hu)
	assert.False(t, chl.Grounded)
	assert.True(t, chu.Grounded)
}
