// Package experiment assembles a simulator from a scene configuration.
package experiment

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/integrators"
	"github.com/san-kum/softbody/internal/particles"
	"github.com/san-kum/softbody/internal/shapematch"
	"github.com/san-kum/softbody/internal/sim"
)

type Experiment struct {
	cfg       *config.Config
	simulator *sim.Simulator
	log       logr.Logger
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg, log: logr.Discard()}
}

func (e *Experiment) WithLogger(log logr.Logger) *Experiment {
	e.log = log
	return e
}

// Build validates cfg and returns a simulator over a fresh body.
func Build(cfg *config.Config, log logr.Logger) (*sim.Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", cfg.Scene, err)
	}
	backend, err := cfg.NewBackend()
	if err != nil {
		return nil, err
	}
	positions, err := cfg.BuildPositions()
	if err != nil {
		return nil, err
	}
	store, err := particles.New(positions, cfg.InitialVelocity())
	if err != nil {
		return nil, err
	}
	s := sim.New(store, integrators.NewEuler(), shapematch.New(backend))
	return s.WithLogger(log.WithValues("scene", cfg.Scene)), nil
}

// Setup builds the simulator and attaches the given metrics.
func (e *Experiment) Setup(metrics []sim.Metric) error {
	s, err := Build(e.cfg, e.log)
	if err != nil {
		return err
	}
	for _, m := range metrics {
		s.AddMetric(m)
	}
	e.simulator = s
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.cfg.Params(), e.cfg.SimConfig())
}

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Config() *config.Config {
	return e.cfg
}
