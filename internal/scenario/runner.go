package scenario

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-motion/internal/controller"
	"github.com/Faultbox/midgard-motion/internal/logger"
	"github.com/Faultbox/midgard-motion/internal/physics"
	"github.com/Faultbox/midgard-motion/pkg/math"
)

// Options supplies the values a scenario leaves out.
type Options struct {
	Gravity    math.Vec3
	DT         float32 // Used when the scenario has no dt
	Settings   controller.Settings
	Look       controller.LookSettings
	Properties controller.Properties
	Shape      physics.Shape
	MaxFrames  int // 0 runs every frame
}

// DefaultOptions returns earth gravity at 60 steps per second and the
// controller defaults with a 0.5/0.5 capsule.
func DefaultOptions() Options {
	return Options{
		Gravity:    math.Vec3{Y: -9.81},
		DT:         1.0 / 60,
		Settings:   controller.DefaultSettings(),
		Look:       controller.DefaultLookSettings(),
		Properties: controller.DefaultProperties(),
		Shape:      physics.Capsule(0.5, 0.5),
	}
}

// Report is the state of every character when a run ends.
type Report struct {
	Name       string
	Frames     int
	Characters []CharacterReport
}

// CharacterReport is one character's final state.
type CharacterReport struct {
	Name     string
	Position math.Vec3
	Velocity math.Vec3
	Grounded bool
	Mode     controller.Mode
	Jumps    int
	Look     controller.Look
}

// Character returns the report for name.
func (r *Report) Character(name string) (CharacterReport, bool) {
	for _, c := range r.Characters {
		if c.Name == name {
			return c, true
		}
	}
	return CharacterReport{}, false
}

type actor struct {
	name   string
	handle controller.Handle
	body   physics.BodyID
	held   IntentSpec
}

// Runner plays a scenario against a fresh physics world.
type Runner struct {
	sc    *Scenario
	opts  Options
	dt    float32
	world *physics.World
	ctl   *controller.Controllers

	actors []*actor
	byName map[string]*actor
}

// New builds the world and spawns the scenario's characters.
func New(sc *Scenario, opts Options) (*Runner, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	dt := sc.DT
	if dt == 0 {
		dt = opts.DT
	}
	if dt <= 0 {
		return nil, fmt.Errorf("%w: dt %v must be positive", ErrInvalidScenario, dt)
	}

	gravity := opts.Gravity
	if sc.Gravity != nil {
		gravity = vec(*sc.Gravity)
	}

	world := physics.NewWorld(gravity)
	for _, b := range sc.Ground {
		world.AddStatic(physics.NewAABB(vec(b.Min), vec(b.Max)))
	}

	r := &Runner{
		sc:     sc,
		opts:   opts,
		dt:     dt,
		world:  world,
		ctl:    controller.New(world, opts.Settings),
		byName: make(map[string]*actor, len(sc.Characters)),
	}

	for _, cs := range sc.Characters {
		if err := r.spawn(cs); err != nil {
			return nil, fmt.Errorf("spawning %q: %w", cs.Name, err)
		}
	}
	return r, nil
}

func (r *Runner) spawn(cs CharacterSpec) error {
	shape := r.opts.Shape
	if cs.Shape != nil {
		s, err := cs.Shape.Shape()
		if err != nil {
			return err
		}
		shape = s
	}

	props := r.opts.Properties
	if p := cs.Properties; p != nil {
		props = controller.Properties{WalkSpeed: p.WalkSpeed, RunSpeed: p.RunSpeed, JumpSpeed: p.JumpSpeed}
	}

	mode := controller.ModeGrounded
	if cs.Flying {
		mode = controller.ModeFlying
	}

	// Rejected shapes must not leave a body behind
	if err := controller.CheckProbeShape(shape); err != nil {
		return err
	}
	body, err := r.world.AddBody(vec(cs.Position), shape)
	if err != nil {
		return err
	}
	h, err := r.ctl.Spawn(controller.SpawnParams{
		Body:       body,
		Shape:      shape,
		Properties: props,
		Mode:       mode,
		Look:       controller.Look{Yaw: cs.Yaw, Pitch: cs.Pitch},
	})
	if err != nil {
		return err
	}

	a := &actor{name: cs.Name, handle: h, body: body}
	r.actors = append(r.actors, a)
	r.byName[cs.Name] = a
	return nil
}

// Controllers exposes the controller arena.
func (r *Runner) Controllers() *controller.Controllers {
	return r.ctl
}

// World exposes the physics world.
func (r *Runner) World() *physics.World {
	return r.world
}

// Handle returns the handle of a named character.
func (r *Runner) Handle(name string) (controller.Handle, bool) {
	a, ok := r.byName[name]
	if !ok {
		return controller.Handle{}, false
	}
	return a.handle, true
}

// Run plays every frame entry, stopping early at MaxFrames or when ctx is
// done. The report reflects the last completed frame either way.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	logger.Info("scenario started",
		zap.String("scenario", r.sc.Name),
		zap.Int("characters", len(r.actors)),
		zap.Int("frames", r.sc.TotalFrames()),
		zap.Float32("dt", r.dt))

	for i, f := range r.sc.Frames {
		if err := r.apply(f); err != nil {
			return r.Report(), fmt.Errorf("frame entry %d: %w", i, err)
		}
		for n := 0; n < f.Steps(); n++ {
			if err := ctx.Err(); err != nil {
				return r.Report(), fmt.Errorf("scenario %q stopped at frame %d: %w", r.sc.Name, r.frames(), err)
			}
			if r.opts.MaxFrames > 0 && r.frames() >= r.opts.MaxFrames {
				logger.Info("frame limit reached", zap.Int("frames", r.frames()))
				return r.Report(), nil
			}
			r.step(n == 0)
		}
	}

	logger.Info("scenario finished",
		zap.String("scenario", r.sc.Name),
		zap.Int("frames", r.frames()))
	return r.Report(), nil
}

func (r *Runner) frames() int {
	return int(r.ctl.Frame())
}

// apply runs an entry's one-shot actions.
func (r *Runner) apply(f Frame) error {
	if f.Gravity != nil {
		g := vec(*f.Gravity)
		r.world.SetGravity(g)
		logger.Debug("gravity changed", zap.Int("frame", r.frames()), zap.Any("gravity", g))
	}
	if f.Fly != "" {
		a := r.byName[f.Fly]
		if _, err := r.ctl.ToggleFlying(a.handle); err != nil {
			return err
		}
	}
	if f.Look != nil {
		look, ok := r.ctl.Look(r.byName[f.Look.Character].handle)
		if !ok {
			return fmt.Errorf("look %q: %w", f.Look.Character, controller.ErrStaleHandle)
		}
		look.Accumulate(f.Look.Yaw, f.Look.Pitch)
	}
	if f.Mouse != nil {
		look, ok := r.ctl.Look(r.byName[f.Mouse.Character].handle)
		if !ok {
			return fmt.Errorf("mouse %q: %w", f.Mouse.Character, controller.ErrStaleHandle)
		}
		look.ApplyMouse(math.Vec2{X: f.Mouse.DX, Y: f.Mouse.DY}, r.opts.Look)
	}
	if f.Intent != nil {
		r.byName[f.Intent.Character].held = *f.Intent
	}
	return nil
}

// step composes every held intent against the current look, then advances
// the controllers and the world by one frame. Jumps fire on the first step
// of the entry that requested them.
func (r *Runner) step(first bool) {
	for _, a := range r.actors {
		look, ok := r.ctl.Look(a.handle)
		if !ok {
			continue
		}
		in := controller.Intent{
			Direction:     Compose(*look, a.held.Forward, a.held.Right, a.held.Up),
			SpeedFraction: a.held.fraction(),
			Jump:          first && a.held.Jump,
		}
		if err := r.ctl.SetIntent(a.handle, in); err != nil {
			logger.Warn("dropping intent", zap.String("character", a.name), zap.Error(err))
		}
	}
	// A held jump fires once
	if first {
		for _, a := range r.actors {
			a.held.Jump = false
		}
	}

	r.ctl.Step()
	r.world.Step(r.dt)

	if logger.Enabled(zap.DebugLevel) {
		for _, a := range r.actors {
			logger.Debug("frame",
				zap.Int("frame", r.frames()),
				zap.String("character", a.name),
				zap.Any("position", r.world.Position(a.body)),
				zap.Any("velocity", r.world.Velocity(a.body)))
		}
	}
}

func (in IntentSpec) fraction() float32 {
	if in.Speed != 0 {
		return in.Speed
	}
	if in.Run {
		return 1
	}
	return 0
}

// Compose turns look-relative axes into a world direction using the full
// view rotation. The controller flattens it for grounded movement.
func Compose(look controller.Look, forward, right, up float32) math.Vec3 {
	return look.Forward().Scale(forward).
		Add(look.Right().Scale(right)).
		Add(look.Up().Scale(up))
}

// Report snapshots every character.
func (r *Runner) Report() *Report {
	rep := &Report{Name: r.sc.Name, Frames: r.frames()}
	for _, a := range r.actors {
		ch, ok := r.ctl.Get(a.handle)
		if !ok {
			continue
		}
		rep.Characters = append(rep.Characters, CharacterReport{
			Name:     a.name,
			Position: r.world.Position(a.body),
			Velocity: r.world.Velocity(a.body),
			Grounded: ch.Grounded,
			Mode:     ch.Mode,
			Jumps:    ch.Jumps,
			Look:     ch.Look,
		})
	}
	return rep
}
