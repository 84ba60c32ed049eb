// Package gallery implements the infinite depth gallery engine: a fixed ring
// of image planes travelling through a camera, driven by scroll velocity from
// wheel, key and touch input or idle auto-play.
//
// The engine is frame driven and single threaded. Input handlers only queue
// impulses; everything else mutates inside Gallery.Tick.
package gallery

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Degenerate configurations are reported by Config.Validate but never stop
// the engine: it renders nothing or skips advancement instead.
var (
	ErrNoImages  = errors.New("gallery: no images")
	ErrNoPlanes  = errors.New("gallery: zero visible planes")
	ErrZeroCycle = errors.New("gallery: cycle length must be positive")
)

// DefaultCycleLength is the depth range the planes wrap around.
const DefaultCycleLength = 50

// Image is one caller supplied picture.
type Image struct {
	Source  string `yaml:"source"`
	AltText string `yaml:"alt"`
}

// Range is a [Start, End] span of normalized depth.
type Range struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// FadeSettings controls opacity as a function of normalized depth.
type FadeSettings struct {
	FadeIn  Range `yaml:"fade_in"`
	FadeOut Range `yaml:"fade_out"`
}

// BlurSettings controls blur as a function of normalized depth.
type BlurSettings struct {
	BlurIn  Range   `yaml:"blur_in"`
	BlurOut Range   `yaml:"blur_out"`
	MaxBlur float64 `yaml:"max_blur"`
}

// Falloff holds camera distance hints: Near is the clip plane, fog reaches
// full strength at Far.
type Falloff struct {
	Near float64 `yaml:"near"`
	Far  float64 `yaml:"far"`
}

// AutoplaySettings tunes idle drift.
type AutoplaySettings struct {
	Idle          time.Duration `yaml:"idle"`
	CheckInterval time.Duration `yaml:"check_interval"`
	Rate          float64       `yaml:"rate"` // velocity units per second
	Cap           float64       `yaml:"cap"`  // no autoplay contribution above this velocity
}

// DampingSettings tunes velocity decay. With PerFrame the factor is applied
// once per Tick regardless of frame time.
type DampingSettings struct {
	Factor   float64 `yaml:"factor"`
	PerFrame bool    `yaml:"per_frame"`
}

// Config is everything a Gallery needs at construction.
type Config struct {
	Images       []Image      `yaml:"images"`
	Speed        float64      `yaml:"speed"`
	CycleLength  float64      `yaml:"cycle_length"`
	VisibleCount int          `yaml:"visible_count"`
	Falloff      Falloff      `yaml:"falloff"`
	Fade         FadeSettings `yaml:"fade"`
	Blur         BlurSettings `yaml:"blur"`
	LockScroll   bool         `yaml:"lock_scroll"`

	Autoplay          AutoplaySettings `yaml:"autoplay"`
	Damping           DampingSettings  `yaml:"damping"`
	MaxVelocity       float64          `yaml:"max_velocity"`
	TimeScale         float64          `yaml:"time_scale"`
	AccumulationScale float64          `yaml:"accumulation_scale"`
	RequiredRotations float64          `yaml:"required_rotations"`
	WheelScale        float64          `yaml:"wheel_scale"`
	KeyImpulse        float64          `yaml:"key_impulse"`
	TouchScale        float64          `yaml:"touch_scale"`

	// OnComplete fires once per arm cycle of the completion gate.
	OnComplete func() `yaml:"-"`
}

// DefaultConfig returns the tuned defaults of the homepage hero.
func DefaultConfig() Config {
	return Config{
		Speed:        1,
		CycleLength:  DefaultCycleLength,
		VisibleCount: 8,
		Falloff:      Falloff{Near: 0.8, Far: 14},
		Fade: FadeSettings{
			FadeIn:  Range{0.05, 0.25},
			FadeOut: Range{0.4, 0.43},
		},
		Blur: BlurSettings{
			BlurIn:  Range{0.0, 0.1},
			BlurOut: Range{0.4, 0.43},
			MaxBlur: 8,
		},
		LockScroll: true,
		Autoplay: AutoplaySettings{
			Idle:          3 * time.Second,
			CheckInterval: time.Second,
			Rate:          0.5,
			Cap:           2,
		},
		Damping:           DampingSettings{Factor: 0.95},
		MaxVelocity:       10,
		TimeScale:         10,
		AccumulationScale: 10,
		RequiredRotations: 2,
		WheelScale:        0.01,
		KeyImpulse:        2,
		TouchScale:        0.05,
	}
}

// CompletionDistance is the forward distance that fires the gate.
func (c Config) CompletionDistance() float64 {
	return c.CycleLength * 1.5 * c.RequiredRotations
}

// Validate reports degenerate settings. The engine tolerates all of them.
func (c Config) Validate() error {
	var errs []error
	if len(c.Images) == 0 {
		errs = append(errs, ErrNoImages)
	}
	if c.VisibleCount <= 0 {
		errs = append(errs, ErrNoPlanes)
	}
	if c.CycleLength <= 0 {
		errs = append(errs, ErrZeroCycle)
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML file over DefaultConfig, so omitted keys keep
// their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
