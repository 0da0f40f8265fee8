package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/softbody/internal/metrics"
	"github.com/san-kum/softbody/internal/sim"
)

// stabilityRadius is how far from its rest center a body may travel
// before a frame counts as unstable.
const stabilityRadius = 100

type Registry struct {
	metrics map[string]func() sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func() sim.Metric),
	}

	r.metrics["energy"] = func() sim.Metric { return metrics.NewEnergy() }
	r.metrics["energy_loss"] = func() sim.Metric { return metrics.NewEnergyLoss() }
	r.metrics["goal_deviation"] = func() sim.Metric { return metrics.NewGoalDeviation() }
	r.metrics["floor_contact"] = func() sim.Metric { return metrics.NewFloorContact() }
	r.metrics["stability"] = func() sim.Metric { return metrics.NewStability(stabilityRadius) }

	return r
}

func (r *Registry) GetMetric(name string) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Metrics returns fresh instances of the named metrics, or of every
// registered metric when names is empty.
func (r *Registry) Metrics(names ...string) ([]sim.Metric, error) {
	if len(names) == 0 {
		names = r.ListMetrics()
	}
	out := make([]sim.Metric, 0, len(names))
	for _, name := range names {
		m, err := r.GetMetric(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
