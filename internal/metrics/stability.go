package metrics

import (
	"math"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/particles"
)

// Stability is the fraction of frames in which every particle stays
// finite and within threshold of the rest center.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(store *particles.Store, params dynamo.Params, t float64) {
	s.samples++
	rest := store.RestCenterOfMass()
	for _, p := range store.Positions() {
		if !dynamo.Finite(p) {
			s.violations++
			return
		}
		if d := float64(p.Sub(rest).Len()); math.IsNaN(d) || d > s.threshold {
			s.violations++
			return
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
