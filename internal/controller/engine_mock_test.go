package controller

import (
	opt "github.com/repeale/fp-go/option"
	"github.com/stretchr/testify/mock"

	"github.com/Faultbox/midgard-motion/internal/physics"
	"github.com/Faultbox/midgard-motion/pkg/math"
)

// mockEngine records the calls the controller makes into physics.
type mockEngine struct {
	mock.Mock
}

var _ physics.Engine = (*mockEngine)(nil)

func (m *mockEngine) CastRay(origin, direction math.Vec3, maxDistance float32, exclude physics.BodyID) opt.Option[physics.RayHit] {
	args := m.Called(origin, direction, maxDistance, exclude)
	return args.Get(0).(opt.Option[physics.RayHit])
}

func (m *mockEngine) Gravity() math.Vec3 {
	return m.Called().Get(0).(math.Vec3)
}

func (m *mockEngine) Position(id physics.BodyID) math.Vec3 {
	return m.Called(id).Get(0).(math.Vec3)
}

func (m *mockEngine) Velocity(id physics.BodyID) math.Vec3 {
	return m.Called(id).Get(0).(math.Vec3)
}

func (m *mockEngine) SetVelocity(id physics.BodyID, v math.Vec3) {
	m.Called(id, v)
}

func hitAt(body physics.BodyID, distance float32) opt.Option[physics.RayHit] {
	return opt.Some(physics.RayHit{Body: body, Distance: distance, Normal: math.UnitY})
}
