package sim_test

import (
	"context"
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/softbody/internal/compute"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/integrators"
	"github.com/san-kum/softbody/internal/metrics"
	"github.com/san-kum/softbody/internal/particles"
	"github.com/san-kum/softbody/internal/shapematch"
	"github.com/san-kum/softbody/internal/sim"
)

// lattice is a slightly sheared 3x3x3 grid whose lowest layer sits at y.
func lattice(y float32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, 0, 27)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				fi, fj, fk := float32(i), float32(j), float32(k)
				out = append(out, mgl32.Vec3{fi*0.5 + 0.03*fj, y + fj*0.5, fk*0.5 + 0.02*fi*fk})
			}
		}
	}
	return out
}

func newSimulator(y float32) *sim.Simulator {
	store, err := particles.New(lattice(y), mgl32.Vec3{})
	Expect(err).NotTo(HaveOccurred())
	return sim.New(store, integrators.NewEuler(), shapematch.New(compute.NewGonum()))
}

type countingObserver struct {
	frames []int
}

func (c *countingObserver) OnFrame(frame int, t float64, store *particles.Store) {
	c.frames = append(c.frames, frame)
}

type failingIntegrator struct {
	after int
	calls int
}

func (f *failingIntegrator) Step(store *particles.Store, dt float32, params dynamo.Params) error {
	f.calls++
	if f.calls > f.after {
		return errors.New("boom")
	}
	return nil
}

type nopMatcher struct{}

func (nopMatcher) Match(store *particles.Store, dt float32, params dynamo.Params) error { return nil }

var _ = Describe("Simulator", func() {
	var (
		s      *sim.Simulator
		params dynamo.Params
		cfg    sim.Config
	)

	BeforeEach(func() {
		s = newSimulator(2)
		params = dynamo.DefaultParams()
		cfg = sim.DefaultConfig()
		cfg.Duration = 0.5
	})

	Describe("Run", func() {
		It("records one sample per frame plus the initial state", func() {
			res, err := s.Run(context.Background(), params, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Frames).To(Equal(50))
			Expect(res.Times).To(HaveLen(51))
			Expect(res.Centers).To(HaveLen(51))
			Expect(res.Positions).To(HaveLen(51))
			Expect(res.Times[50]).To(BeNumerically("~", 0.5, 1e-4))
		})

		It("honours the recording interval", func() {
			cfg.RecordEvery = 10
			res, err := s.Run(context.Background(), params, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Recorded).To(Equal([]int{0, 10, 20, 30, 40, 50}))
			Expect(res.Positions).To(HaveLen(6))
			Expect(res.Positions[0]).To(HaveLen(27))
		})

		It("lets the body fall under gravity", func() {
			res, err := s.Run(context.Background(), params, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Centers[50][1]).To(BeNumerically("<", res.Centers[0][1]))
		})

		It("comes to rest above the floor", func() {
			cfg.Duration = 6
			cfg.RecordEvery = 0
			res, err := s.Run(context.Background(), params, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Positions).To(BeEmpty())
			Expect(s.Store().IsValid()).To(BeTrue())
			Expect(s.Store().CenterOfMass()[1]).To(BeNumerically(">", 0))
			Expect(s.Store().CenterOfMass()[1]).To(BeNumerically("<", 2))
		})

		It("reports registered metrics", func() {
			s.AddMetric(metrics.NewGoalDeviation())
			s.AddMetric(metrics.NewStability(100))
			res, err := s.Run(context.Background(), params, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics).To(HaveKey("goal_deviation"))
			Expect(res.Metrics["stability"]).To(Equal(1.0))
		})

		It("notifies observers once per frame", func() {
			obs := &countingObserver{}
			s.AddObserver(obs)
			_, err := s.Run(context.Background(), params, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(obs.frames).To(HaveLen(50))
			Expect(obs.frames[0]).To(Equal(1))
			Expect(obs.frames[49]).To(Equal(50))
		})

		It("stops on a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err := s.Run(ctx, params, cfg)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Frames).To(Equal(0))
		})

		It("rejects invalid configuration", func() {
			cfg.Dt = 0
			_, err := s.Run(context.Background(), params, cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidArgument))

			cfg = sim.DefaultConfig()
			cfg.Substeps = 0
			_, err = s.Run(context.Background(), params, cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidArgument))
		})

		It("rejects invalid parameters", func() {
			params.Stiffness = 2
			_, err := s.Run(context.Background(), params, cfg)
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
		})

		It("wraps phase failures with the frame they occurred in", func() {
			store, err := particles.New(lattice(2), mgl32.Vec3{})
			Expect(err).NotTo(HaveOccurred())
			failing := sim.New(store, &failingIntegrator{after: 3}, nopMatcher{})

			res, err := failing.Run(context.Background(), params, cfg)
			var stepErr *dynamo.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Frame).To(Equal(3))
			Expect(stepErr.Phase).To(Equal("integrate"))
			Expect(res.Frames).To(Equal(3))
		})

		It("surfaces degenerate bodies as match failures", func() {
			store, err := particles.New([]mgl32.Vec3{{0, 1, 0}, {1, 1, 0}, {2, 1, 0}}, mgl32.Vec3{})
			Expect(err).NotTo(HaveOccurred())
			degenerate := sim.New(store, integrators.NewEuler(), shapematch.New(compute.NewGonum()))

			_, err = degenerate.Run(context.Background(), params, cfg)
			Expect(err).To(MatchError(dynamo.ErrDegenerateConfiguration))
			var stepErr *dynamo.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Phase).To(Equal("match"))
		})
	})

	Describe("Frame", func() {
		It("splits integration into substeps", func() {
			store, err := particles.New(lattice(2), mgl32.Vec3{})
			Expect(err).NotTo(HaveOccurred())
			counter := &failingIntegrator{after: 1 << 30}
			stepped := sim.New(store, counter, nopMatcher{})

			Expect(stepped.Frame(params, 0.01, 4)).To(Succeed())
			Expect(counter.calls).To(Equal(4))
			Expect(stepped.FrameCount()).To(Equal(1))
			Expect(stepped.Time()).To(BeNumerically("~", 0.01, 1e-6))
		})
	})

	Describe("RunWithCallback", func() {
		It("stops when the callback declines", func() {
			seen := 0
			err := s.RunWithCallback(context.Background(), params, cfg, func(frame int, t float64, store *particles.Store) bool {
				seen++
				return frame < 5
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal(5))
		})
	})

	Describe("Reset", func() {
		It("restores the initial body and clock", func() {
			before := s.Store().Positions()
			_, err := s.Run(context.Background(), params, cfg)
			Expect(err).NotTo(HaveOccurred())

			s.Reset()
			Expect(s.Time()).To(BeZero())
			Expect(s.FrameCount()).To(BeZero())
			Expect(s.Store().Positions()).To(Equal(before))
		})
	})
})

var _ = Describe("Ensemble", func() {
	factory := func() (*sim.Simulator, error) {
		store, err := particles.New(lattice(2), mgl32.Vec3{})
		if err != nil {
			return nil, err
		}
		return sim.New(store, integrators.NewEuler(), shapematch.New(compute.NewGonum())), nil
	}

	It("runs every variant independently and in order", func() {
		soft := dynamo.DefaultParams()
		soft.Stiffness = 0.1
		stiff := dynamo.DefaultParams()
		stiff.Stiffness = 1

		cfg := sim.DefaultConfig()
		cfg.Duration = 0.3

		results, err := sim.NewEnsemble(factory).WithLimit(2).Run(context.Background(), []sim.Variant{
			{Name: "soft", Params: soft},
			{Name: "stiff", Params: stiff},
			{Name: "default", Params: dynamo.DefaultParams()},
		}, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		for _, r := range results {
			Expect(r.Frames).To(Equal(30))
		}
	})

	It("reports the failing variant", func() {
		bad := dynamo.DefaultParams()
		bad.Mass = 0

		_, err := sim.NewEnsemble(factory).Run(context.Background(), []sim.Variant{
			{Name: "ok", Params: dynamo.DefaultParams()},
			{Name: "massless", Params: bad},
		}, sim.DefaultConfig())
		Expect(err).To(MatchError(ContainSubstring("massless")))
		Expect(errors.Is(err, dynamo.ErrInvalidArgument)).To(BeTrue())
	})
})
