package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/particles"
)

// Integrator advances the store by one physics step.
type Integrator interface {
	Step(store *particles.Store, dt float32, params dynamo.Params) error
}

// Matcher applies one shape matching correction.
type Matcher interface {
	Match(store *particles.Store, dt float32, params dynamo.Params) error
}

type Metric interface {
	Name() string
	Observe(store *particles.Store, params dynamo.Params, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(frame int, t float64, store *particles.Store)
}

type Config struct {
	Dt       float32
	Duration float64
	// Substeps splits each frame's integration into Substeps steps of
	// Dt/Substeps; shape matching still runs once per frame.
	Substeps int
	// RecordEvery keeps every n-th frame's positions; 0 disables recording.
	RecordEvery   int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      5.0,
		Substeps:      1,
		RecordEvery:   1,
		ValidateState: true,
	}
}

func (c Config) validate() error {
	if err := dynamo.ValidateDt(c.Dt); err != nil {
		return err
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrInvalidArgument, c.Duration)
	}
	if c.Substeps < 1 {
		return fmt.Errorf("%w: substeps must be at least 1, got %d", dynamo.ErrInvalidArgument, c.Substeps)
	}
	if c.RecordEvery < 0 {
		return fmt.Errorf("%w: record interval must not be negative, got %d", dynamo.ErrInvalidArgument, c.RecordEvery)
	}
	return nil
}

// Frames is the number of frames a run of this config takes.
func (c Config) Frames() int {
	return int(c.Duration/float64(c.Dt) + 0.5)
}

type Result struct {
	Frames int
	// Times and Centers have one entry per frame including frame 0.
	Times   []float64
	Centers []mgl32.Vec3
	// Recorded holds the frame numbers whose positions are in Positions.
	Recorded  []int
	Positions [][]mgl32.Vec3
	Metrics   map[string]float64
}
