package sim

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-logr/logr"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/particles"
)

// Simulator drives one soft body: integrate, then shape match, once per
// frame. It is not safe for concurrent use.
type Simulator struct {
	store      *particles.Store
	integrator Integrator
	matcher    Matcher
	metrics    []Metric
	observers  []Observer
	log        logr.Logger

	frame int
	t     float64
}

func New(store *particles.Store, integrator Integrator, matcher Matcher) *Simulator {
	return &Simulator{
		store:      store,
		integrator: integrator,
		matcher:    matcher,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		log:        logr.Discard(),
	}
}

func (s *Simulator) WithLogger(log logr.Logger) *Simulator {
	s.log = log
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Store() *particles.Store { return s.store }

// Time is the simulated time since construction or the last Reset.
func (s *Simulator) Time() float64 { return s.t }

// FrameCount is the number of frames completed.
func (s *Simulator) FrameCount() int { return s.frame }

// Reset restores the store to its construction state and rewinds time.
func (s *Simulator) Reset() {
	s.store.Reset()
	s.frame = 0
	s.t = 0
	for _, m := range s.metrics {
		m.Reset()
	}
}

// Frame integrates substeps times at dt/substeps, then shape matches at dt.
func (s *Simulator) Frame(params dynamo.Params, dt float32, substeps int) error {
	if substeps < 1 {
		substeps = 1
	}
	h := dt / float32(substeps)
	for i := 0; i < substeps; i++ {
		if err := s.integrator.Step(s.store, h, params); err != nil {
			return &dynamo.StepError{Frame: s.frame, Time: s.t, Phase: "integrate", Wrapped: err}
		}
	}
	if err := s.matcher.Match(s.store, dt, params); err != nil {
		return &dynamo.StepError{Frame: s.frame, Time: s.t, Phase: "match", Wrapped: err}
	}

	s.frame++
	s.t += float64(dt)
	for _, m := range s.metrics {
		m.Observe(s.store, params, s.t)
	}
	for _, obs := range s.observers {
		obs.OnFrame(s.frame, s.t, s.store)
	}
	return nil
}

// Run advances cfg.Frames() frames and collects the trace. On failure the
// partial result is returned with the error.
func (s *Simulator) Run(ctx context.Context, params dynamo.Params, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	frames := cfg.Frames()
	result := &Result{
		Times:     make([]float64, 0, frames+1),
		Centers:   make([]mgl32.Vec3, 0, frames+1),
		Recorded:  make([]int, 0),
		Positions: make([][]mgl32.Vec3, 0),
		Metrics:   make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.log.Info("run started", "particles", s.store.Len(), "frames", frames, "dt", cfg.Dt, "substeps", cfg.Substeps)
	s.record(result, cfg)

	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, ctx.Err()
		default:
		}

		if err := s.Frame(params, cfg.Dt, cfg.Substeps); err != nil {
			s.log.Error(err, "frame failed", "frame", s.frame)
			s.finish(result)
			return result, err
		}

		if cfg.ValidateState && !s.store.IsValid() {
			err := &dynamo.StepError{Frame: s.frame, Time: s.t, Phase: "validate", Wrapped: dynamo.ErrInvalidState}
			s.log.Error(err, "state diverged")
			s.finish(result)
			return result, err
		}

		result.Frames++
		s.record(result, cfg)
		s.log.V(1).Info("frame", "frame", s.frame, "t", s.t, "center", s.store.CenterOfMass())
	}

	s.finish(result)
	s.log.Info("run finished", "frames", result.Frames, "t", s.t)
	return result, nil
}

// RunWithCallback advances frames until cfg.Duration elapses or fn returns
// false. fn sees the store after every frame.
func (s *Simulator) RunWithCallback(ctx context.Context, params dynamo.Params, cfg Config, fn func(frame int, t float64, store *particles.Store) bool) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	for i := 0; i < cfg.Frames(); i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.Frame(params, cfg.Dt, cfg.Substeps); err != nil {
			return err
		}
		if cfg.ValidateState && !s.store.IsValid() {
			return fmt.Errorf("frame %d: %w", s.frame, dynamo.ErrInvalidState)
		}
		if !fn(s.frame, s.t, s.store) {
			return nil
		}
	}
	return nil
}

func (s *Simulator) record(result *Result, cfg Config) {
	result.Times = append(result.Times, s.t)
	result.Centers = append(result.Centers, s.store.CenterOfMass())
	if cfg.RecordEvery > 0 && s.frame%cfg.RecordEvery == 0 {
		result.Recorded = append(result.Recorded, s.frame)
		result.Positions = append(result.Positions, s.store.Positions())
	}
}

func (s *Simulator) finish(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}
