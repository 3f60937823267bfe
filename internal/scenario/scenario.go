// Package scenario describes scripted character runs in YAML and plays them
// against the controller and the reference physics world.
//
// A scenario lists static ground boxes, the characters to spawn, and a
// sequence of frame entries. Each entry applies its actions once and then
// steps the simulation Repeat times (at least once).
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-motion/internal/physics"
	"github.com/Faultbox/midgard-motion/pkg/math"
)

var (
	ErrInvalidScenario  = errors.New("invalid scenario")
	ErrUnknownCharacter = errors.New("unknown character")
)

// Scenario is a scripted run.
type Scenario struct {
	Name       string          `yaml:"name"`
	DT         float32         `yaml:"dt"`      // Seconds per frame; 0 uses the configured tick rate
	Gravity    *[3]float32     `yaml:"gravity"` // nil uses the configured gravity
	Ground     []Box           `yaml:"ground"`
	Characters []CharacterSpec `yaml:"characters"`
	Frames     []Frame         `yaml:"frames"`
}

// Box is a static axis-aligned box given by two opposite corners.
type Box struct {
	Min [3]float32 `yaml:"min"`
	Max [3]float32 `yaml:"max"`
}

// CharacterSpec spawns one controlled character.
type CharacterSpec struct {
	Name       string          `yaml:"name"`
	Position   [3]float32      `yaml:"position"`
	Shape      *ShapeSpec      `yaml:"shape"`      // nil uses the configured default shape
	Properties *PropertiesSpec `yaml:"properties"` // nil uses the configured defaults
	Flying     bool            `yaml:"flying"`
	Yaw        float32         `yaml:"yaw"`
	Pitch      float32         `yaml:"pitch"`
}

// ShapeSpec names a collision shape.
type ShapeSpec struct {
	Kind        string     `yaml:"kind"`
	Radius      float32    `yaml:"radius"`
	HalfSegment float32    `yaml:"half_segment"`
	HalfExtents [3]float32 `yaml:"half_extents"`
}

// PropertiesSpec overrides the character speeds.
type PropertiesSpec struct {
	WalkSpeed float32 `yaml:"walk_speed"`
	RunSpeed  float32 `yaml:"run_speed"`
	JumpSpeed float32 `yaml:"jump_speed"`
}

// Frame is one scripted entry. All actions are optional.
type Frame struct {
	Repeat  int         `yaml:"repeat"`
	Intent  *IntentSpec `yaml:"intent"`
	Fly     string      `yaml:"fly"` // Toggles flight for the named character
	Look    *LookSpec   `yaml:"look"`
	Mouse   *MouseSpec  `yaml:"mouse"`
	Gravity *[3]float32 `yaml:"gravity"` // Replaces the world gravity from this entry on
}

// Steps returns how many simulation frames the entry covers.
func (f Frame) Steps() int {
	return max(1, f.Repeat)
}

// IntentSpec is a movement intent in look-relative axes, each in [-1, 1].
// The intent is held until another entry replaces it; Jump fires once.
type IntentSpec struct {
	Character string  `yaml:"character"`
	Forward   float32 `yaml:"forward"`
	Right     float32 `yaml:"right"`
	Up        float32 `yaml:"up"`
	Run       bool    `yaml:"run"`
	Speed     float32 `yaml:"speed"` // Walk-to-run fraction; overrides Run when non-zero
	Jump      bool    `yaml:"jump"`
}

// LookSpec adds yaw and pitch in radians.
type LookSpec struct {
	Character string  `yaml:"character"`
	Yaw       float32 `yaml:"yaw"`
	Pitch     float32 `yaml:"pitch"`
}

// MouseSpec feeds a raw mouse delta through the configured look settings.
type MouseSpec struct {
	Character string  `yaml:"character"`
	DX        float32 `yaml:"dx"`
	DY        float32 `yaml:"dy"`
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading scenario from %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading scenario from %s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks names, shapes and frame references.
func (sc *Scenario) Validate() error {
	if sc.DT < 0 {
		return fmt.Errorf("%w: dt %v is negative", ErrInvalidScenario, sc.DT)
	}
	if len(sc.Characters) == 0 {
		return fmt.Errorf("%w: no characters", ErrInvalidScenario)
	}

	names := make(map[string]bool, len(sc.Characters))
	for i, c := range sc.Characters {
		if c.Name == "" {
			return fmt.Errorf("%w: character %d has no name", ErrInvalidScenario, i)
		}
		if names[c.Name] {
			return fmt.Errorf("%w: duplicate character %q", ErrInvalidScenario, c.Name)
		}
		names[c.Name] = true

		if c.Shape != nil {
			if _, err := c.Shape.Shape(); err != nil {
				return fmt.Errorf("character %q: %w", c.Name, err)
			}
		}
	}

	for i, f := range sc.Frames {
		if f.Repeat < 0 {
			return fmt.Errorf("%w: frame %d repeat %d is negative", ErrInvalidScenario, i, f.Repeat)
		}
		for _, ref := range f.references() {
			if !names[ref] {
				return fmt.Errorf("frame %d: %w %q", i, ErrUnknownCharacter, ref)
			}
		}
	}
	return nil
}

func (f Frame) references() []string {
	var refs []string
	if f.Intent != nil {
		refs = append(refs, f.Intent.Character)
	}
	if f.Fly != "" {
		refs = append(refs, f.Fly)
	}
	if f.Look != nil {
		refs = append(refs, f.Look.Character)
	}
	if f.Mouse != nil {
		refs = append(refs, f.Mouse.Character)
	}
	return refs
}

// Shape returns the validated physics shape.
func (s ShapeSpec) Shape() (physics.Shape, error) {
	kind, err := physics.ParseShapeKind(s.Kind)
	if err != nil {
		return physics.Shape{}, err
	}
	shape := physics.Shape{
		Kind:        kind,
		Radius:      s.Radius,
		HalfSegment: s.HalfSegment,
		HalfExtents: vec(s.HalfExtents),
	}
	if err := shape.Validate(); err != nil {
		return physics.Shape{}, err
	}
	return shape, nil
}

// TotalFrames returns the number of simulation frames in the script.
func (sc *Scenario) TotalFrames() int {
	n := 0
	for _, f := range sc.Frames {
		n += f.Steps()
	}
	return n
}

func vec(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}
