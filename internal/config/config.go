package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/softbody/internal/compute"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 5.0
	DefaultSubsteps = 1
	DefaultCount    = 4
	DefaultSize     = 1.0
	DefaultHeight   = 2.0
	DefaultJitter   = 0.02
)

var ErrUnknownFormat = errors.New("unknown config format")

type Config struct {
	Scene    string        `yaml:"scene" json:"scene"`
	Shape    string        `yaml:"shape" json:"shape"`
	Dt       float64       `yaml:"dt" json:"dt"`
	Duration float64       `yaml:"duration" json:"duration"`
	Substeps int           `yaml:"substeps" json:"substeps"`
	Seed     int64         `yaml:"seed" json:"seed"`
	Backend  string        `yaml:"backend" json:"backend"`
	Physics  PhysicsConfig `yaml:"physics" json:"physics"`
	Body     BodyConfig    `yaml:"body" json:"body"`
}

type PhysicsConfig struct {
	Gravity     [3]float64 `yaml:"gravity" json:"gravity"`
	Mass        float64    `yaml:"mass" json:"mass"`
	Elasticity  float64    `yaml:"elasticity" json:"elasticity"`
	Friction    float64    `yaml:"friction" json:"friction"`
	Stiffness   float64    `yaml:"stiffness" json:"stiffness"`
	Flappyness  float64    `yaml:"flappyness" json:"flappyness"`
	Deformation float64    `yaml:"deformation" json:"deformation"`
}

// BodyConfig describes the initial particle cloud. Count is particles per
// edge for boxes and the total particle count otherwise.
type BodyConfig struct {
	Count    int        `yaml:"count" json:"count"`
	Size     float64    `yaml:"size" json:"size"`
	Height   float64    `yaml:"height" json:"height"`
	Jitter   float64    `yaml:"jitter" json:"jitter"`
	Tilt     float64    `yaml:"tilt" json:"tilt"`
	Velocity [3]float64 `yaml:"velocity" json:"velocity"`
}

func DefaultConfig() *Config {
	p := dynamo.DefaultParams()
	return &Config{
		Scene:    "jelly",
		Shape:    ShapeBox,
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Substeps: DefaultSubsteps,
		Seed:     1,
		Backend:  "gonum",
		Physics: PhysicsConfig{
			Gravity:     [3]float64{float64(p.Gravity[0]), float64(p.Gravity[1]), float64(p.Gravity[2])},
			Mass:        float64(p.Mass),
			Elasticity:  float64(p.Elasticity),
			Friction:    float64(p.DynamicFriction),
			Stiffness:   float64(p.Stiffness),
			Flappyness:  float64(p.Flappyness),
			Deformation: float64(p.Deformation),
		},
		Body: BodyConfig{
			Count:  DefaultCount,
			Size:   DefaultSize,
			Height: DefaultHeight,
			Jitter: DefaultJitter,
		},
	}
}

// Load reads a YAML (.yaml, .yml) or gcfg (.gcfg, .ini) file on top of the
// defaults.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		cfg := DefaultConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return cfg, nil
	case ".gcfg", ".ini":
		return loadGcfg(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := dynamo.ValidateDt(float32(c.Dt)); err != nil {
		return err
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrInvalidArgument, c.Duration)
	}
	if c.Substeps < 1 {
		return fmt.Errorf("%w: substeps must be at least 1, got %d", dynamo.ErrInvalidArgument, c.Substeps)
	}
	if _, err := c.NewBackend(); err != nil {
		return err
	}
	if err := c.Body.validate(c.Shape); err != nil {
		return err
	}
	return c.Params().Validate()
}

func (c *Config) Params() dynamo.Params {
	p := c.Physics
	return dynamo.Params{
		Gravity:         vec(p.Gravity),
		Mass:            float32(p.Mass),
		Elasticity:      float32(p.Elasticity),
		DynamicFriction: float32(p.Friction),
		Stiffness:       float32(p.Stiffness),
		Flappyness:      float32(p.Flappyness),
		Deformation:     float32(p.Deformation),
	}
}

// SimConfig is the driver configuration for this scene.
func (c *Config) SimConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Dt = float32(c.Dt)
	cfg.Duration = c.Duration
	cfg.Substeps = c.Substeps
	return cfg
}

func (c *Config) NewBackend() (compute.Backend, error) {
	switch c.Backend {
	case "", "gonum":
		return compute.NewGonum(), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", dynamo.ErrInvalidArgument, c.Backend)
	}
}

func (c *Config) InitialVelocity() mgl32.Vec3 {
	return vec(c.Body.Velocity)
}

func vec(v [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}
