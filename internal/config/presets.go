package config

import "sort"

var Presets = map[string]*Config{
	"jelly": {
		Scene: "jelly", Shape: ShapeBox, Dt: 0.01, Duration: 5.0, Substeps: 1, Seed: 1, Backend: "gonum",
		Physics: PhysicsConfig{Gravity: [3]float64{0, -9.8, 0}, Mass: 1, Elasticity: 0.2, Friction: 0.3, Stiffness: 0.3, Flappyness: 0.5, Deformation: 0.5},
		Body:    BodyConfig{Count: 4, Size: 1, Height: 2, Jitter: 0.02, Tilt: 0.4},
	},
	"rigid": {
		Scene: "rigid", Shape: ShapeBox, Dt: 0.01, Duration: 5.0, Substeps: 1, Seed: 1, Backend: "gonum",
		Physics: PhysicsConfig{Gravity: [3]float64{0, -9.8, 0}, Mass: 1, Elasticity: 0.3, Friction: 0.3, Stiffness: 1, Flappyness: 0.5, Deformation: 0},
		Body:    BodyConfig{Count: 4, Size: 1, Height: 2, Jitter: 0.02, Tilt: 0.6},
	},
	"floppy": {
		Scene: "floppy", Shape: ShapeSphere, Dt: 0.01, Duration: 6.0, Substeps: 2, Seed: 1, Backend: "gonum",
		Physics: PhysicsConfig{Gravity: [3]float64{0, -9.8, 0}, Mass: 1, Elasticity: 0.1, Friction: 0.5, Stiffness: 0.1, Flappyness: 1, Deformation: 0.8},
		Body:    BodyConfig{Count: 80, Size: 1.2, Height: 2.5},
	},
	"drop": {
		Scene: "drop", Shape: ShapeCloud, Dt: 0.005, Duration: 4.0, Substeps: 1, Seed: 7, Backend: "gonum",
		Physics: PhysicsConfig{Gravity: [3]float64{0, -9.8, 0}, Mass: 1, Elasticity: 0.6, Friction: 0.2, Stiffness: 0.6, Flappyness: 0.5, Deformation: 0.3},
		Body:    BodyConfig{Count: 60, Size: 1, Height: 5, Velocity: [3]float64{1, 0, 0}},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
