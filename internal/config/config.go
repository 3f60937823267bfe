// Package config handles simulation configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Config holds all simulation settings.
type Config struct {
	Controller ControllerConfig `yaml:"controller"`
	Look       LookConfig       `yaml:"look"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Sim        SimConfig        `yaml:"sim"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ShapeConfig describes a collision shape by name.
type ShapeConfig struct {
	Kind        string     `yaml:"kind"` // sphere, capsule or cuboid
	Radius      float32    `yaml:"radius"`
	HalfSegment float32    `yaml:"half_segment"`
	HalfExtents [3]float32 `yaml:"half_extents"`
}

// ControllerConfig holds default character properties.
type ControllerConfig struct {
	WalkSpeed    float32     `yaml:"walk_speed"`
	RunSpeed     float32     `yaml:"run_speed"`
	JumpSpeed    float32     `yaml:"jump_speed"`
	ProbeEpsilon float32     `yaml:"probe_epsilon"` // Extra ground probe length past the shape
	HeadOffset   [3]float32  `yaml:"head_offset"`   // Eye position relative to the body
	Shape        ShapeConfig `yaml:"shape"`
}

// LookConfig holds mouse look settings.
type LookConfig struct {
	Sensitivity float32 `yaml:"sensitivity"` // Radians per mouse count
	InvertY     bool    `yaml:"invert_y"`
}

// PhysicsConfig holds reference world settings.
type PhysicsConfig struct {
	Gravity  [3]float32 `yaml:"gravity"`
	TickRate int        `yaml:"tick_rate"` // Simulation steps per second
}

// SimConfig holds scenario runner settings.
type SimConfig struct {
	Scenario  string `yaml:"scenario"`   // Path to a scenario YAML file
	MaxFrames int    `yaml:"max_frames"` // 0 means run the whole scenario
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Controller: ControllerConfig{
			WalkSpeed:    5.0,
			RunSpeed:     8.0,
			JumpSpeed:    6.0,
			ProbeEpsilon: 0.01,
			HeadOffset:   [3]float32{0, 0.6, 0},
			Shape: ShapeConfig{
				Kind:        "capsule",
				Radius:      0.5,
				HalfSegment: 0.5,
			},
		},
		Look: LookConfig{
			Sensitivity: 0.005,
			InvertY:     false,
		},
		Physics: PhysicsConfig{
			Gravity:  [3]float32{0, -9.81, 0},
			TickRate: 60,
		},
		Sim: SimConfig{
			Scenario:  "",
			MaxFrames: 0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ErrInvalid marks a config that loaded but cannot be used.
var ErrInvalid = errors.New("invalid config")

// Validate checks values the simulation cannot recover from.
func (c *Config) Validate() error {
	ctl := c.Controller
	if ctl.WalkSpeed <= 0 || ctl.RunSpeed <= 0 || ctl.JumpSpeed <= 0 {
		return fmt.Errorf("%w: controller speeds must be positive", ErrInvalid)
	}
	if ctl.RunSpeed < ctl.WalkSpeed {
		return fmt.Errorf("%w: run_speed %v below walk_speed %v", ErrInvalid, ctl.RunSpeed, ctl.WalkSpeed)
	}
	if ctl.ProbeEpsilon < 0 {
		return fmt.Errorf("%w: probe_epsilon %v is negative", ErrInvalid, ctl.ProbeEpsilon)
	}
	if c.Physics.TickRate <= 0 {
		return fmt.Errorf("%w: tick_rate %d must be positive", ErrInvalid, c.Physics.TickRate)
	}
	if c.Sim.MaxFrames < 0 {
		return fmt.Errorf("%w: max_frames %d is negative", ErrInvalid, c.Sim.MaxFrames)
	}
	return nil
}
