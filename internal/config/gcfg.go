package config

import (
	"fmt"

	"gopkg.in/gcfg.v1"
)

// gcfgFile mirrors Config in gcfg's section/variable layout:
//
//	[scene]
//	name = jelly
//	shape = box
//	dt = 0.01
//
//	[physics]
//	gravity-y = -9.8
//	stiffness = 0.5
//
//	[body]
//	count = 4
type gcfgFile struct {
	Scene struct {
		Name     string
		Shape    string
		Backend  string
		Dt       float64
		Duration float64
		Substeps int
		Seed     int64
	}
	Physics struct {
		GravityX    float64 `gcfg:"gravity-x"`
		GravityY    float64 `gcfg:"gravity-y"`
		GravityZ    float64 `gcfg:"gravity-z"`
		Mass        float64
		Elasticity  float64
		Friction    float64
		Stiffness   float64
		Flappyness  float64
		Deformation float64
	}
	Body struct {
		Count     int
		Size      float64
		Height    float64
		Jitter    float64
		Tilt      float64
		VelocityX float64 `gcfg:"velocity-x"`
		VelocityY float64 `gcfg:"velocity-y"`
		VelocityZ float64 `gcfg:"velocity-z"`
	}
}

func loadGcfg(path string) (*Config, error) {
	f := toGcfg(DefaultConfig())
	if err := gcfg.ReadFileInto(f, path); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fromGcfg(f), nil
}

func toGcfg(c *Config) *gcfgFile {
	f := &gcfgFile{}
	f.Scene.Name = c.Scene
	f.Scene.Shape = c.Shape
	f.Scene.Backend = c.Backend
	f.Scene.Dt = c.Dt
	f.Scene.Duration = c.Duration
	f.Scene.Substeps = c.Substeps
	f.Scene.Seed = c.Seed

	p := c.Physics
	f.Physics.GravityX, f.Physics.GravityY, f.Physics.GravityZ = p.Gravity[0], p.Gravity[1], p.Gravity[2]
	f.Physics.Mass = p.Mass
	f.Physics.Elasticity = p.Elasticity
	f.Physics.Friction = p.Friction
	f.Physics.Stiffness = p.Stiffness
	f.Physics.Flappyness = p.Flappyness
	f.Physics.Deformation = p.Deformation

	b := c.Body
	f.Body.Count = b.Count
	f.Body.Size = b.Size
	f.Body.Height = b.Height
	f.Body.Jitter = b.Jitter
	f.Body.Tilt = b.Tilt
	f.Body.VelocityX, f.Body.VelocityY, f.Body.VelocityZ = b.Velocity[0], b.Velocity[1], b.Velocity[2]
	return f
}

func fromGcfg(f *gcfgFile) *Config {
	return &Config{
		Scene:    f.Scene.Name,
		Shape:    f.Scene.Shape,
		Dt:       f.Scene.Dt,
		Duration: f.Scene.Duration,
		Substeps: f.Scene.Substeps,
		Seed:     f.Scene.Seed,
		Backend:  f.Scene.Backend,
		Physics: PhysicsConfig{
			Gravity:     [3]float64{f.Physics.GravityX, f.Physics.GravityY, f.Physics.GravityZ},
			Mass:        f.Physics.Mass,
			Elasticity:  f.Physics.Elasticity,
			Friction:    f.Physics.Friction,
			Stiffness:   f.Physics.Stiffness,
			Flappyness:  f.Physics.Flappyness,
			Deformation: f.Physics.Deformation,
		},
		Body: BodyConfig{
			Count:    f.Body.Count,
			Size:     f.Body.Size,
			Height:   f.Body.Height,
			Jitter:   f.Body.Jitter,
			Tilt:     f.Body.Tilt,
			Velocity: [3]float64{f.Body.VelocityX, f.Body.VelocityY, f.Body.VelocityZ},
		},
	}
}
