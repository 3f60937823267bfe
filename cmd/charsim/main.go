// Package main is the entry point for the character controller simulator.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-motion/internal/config"
	"github.com/Faultbox/midgard-motion/internal/controller"
	"github.com/Faultbox/midgard-motion/internal/logger"
	"github.com/Faultbox/midgard-motion/internal/scenario"
	"github.com/Faultbox/midgard-motion/pkg/math"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Motion ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if config.SaveRequested() {
		if err := cfg.Save(); err != nil {
			logger.Error("failed to save config", zap.Error(err))
			logger.Sync()
			os.Exit(1)
		}
		logger.Info("config saved", zap.String("dir", config.ConfigDir()))
		return
	}

	if err := run(cfg); err != nil {
		logger.Error("simulation failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if cfg.Sim.Scenario == "" {
		return errors.New("no scenario given: pass -scenario or set sim.scenario")
	}

	sc, err := scenario.Load(cfg.Sim.Scenario)
	if err != nil {
		return err
	}

	opts, err := options(cfg)
	if err != nil {
		return err
	}

	r, err := scenario.New(sc, opts)
	if err != nil {
		return fmt.Errorf("preparing scenario %q: %w", sc.Name, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := r.Run(ctx)
	if rep != nil {
		summarize(rep)
	}
	return err
}

// options maps the config file onto scenario defaults.
func options(cfg *config.Config) (scenario.Options, error) {
	ctl := cfg.Controller
	shape, err := scenario.ShapeSpec{
		Kind:        ctl.Shape.Kind,
		Radius:      ctl.Shape.Radius,
		HalfSegment: ctl.Shape.HalfSegment,
		HalfExtents: ctl.Shape.HalfExtents,
	}.Shape()
	if err != nil {
		return scenario.Options{}, fmt.Errorf("controller.shape: %w", err)
	}

	g := cfg.Physics.Gravity
	return scenario.Options{
		Gravity: math.Vec3{X: g[0], Y: g[1], Z: g[2]},
		DT:      1 / float32(cfg.Physics.TickRate),
		Settings: controller.Settings{
			ProbeEpsilon: ctl.ProbeEpsilon,
			HeadOffset:   math.Vec3{X: ctl.HeadOffset[0], Y: ctl.HeadOffset[1], Z: ctl.HeadOffset[2]},
		},
		Look: controller.LookSettings{
			Sensitivity: cfg.Look.Sensitivity,
			InvertY:     cfg.Look.InvertY,
		},
		Properties: controller.Properties{
			WalkSpeed: ctl.WalkSpeed,
			RunSpeed:  ctl.RunSpeed,
			JumpSpeed: ctl.JumpSpeed,
		},
		Shape:     shape,
		MaxFrames: cfg.Sim.MaxFrames,
	}, nil
}

func summarize(rep *scenario.Report) {
	logger.Info("run complete",
		zap.String("scenario", rep.Name),
		zap.Int("frames", rep.Frames))

	for _, c := range rep.Characters {
		logger.Info("character",
			zap.String("name", c.Name),
			zap.Stringer("mode", c.Mode),
			zap.Bool("grounded", c.Grounded),
			zap.Int("jumps", c.Jumps),
			zap.Float32("yaw", c.Look.Yaw),
			zap.Float32("pitch", c.Look.Pitch),
			zap.Any("position", c.Position),
			zap.Any("velocity", c.Velocity))
	}
}
