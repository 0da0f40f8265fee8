package metrics

import (
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/integrators"
	"github.com/san-kum/softbody/internal/particles"
)

// contactBand is how far above the clamp height a particle still counts
// as touching the floor.
const contactBand = 1e-3

// FloorContact is the fraction of frames in which at least one particle
// rests on the floor.
type FloorContact struct {
	name     string
	contacts int
	samples  int
}

func NewFloorContact() *FloorContact {
	return &FloorContact{name: "floor_contact"}
}

func (f *FloorContact) Name() string { return f.name }

func (f *FloorContact) Observe(store *particles.Store, params dynamo.Params, t float64) {
	f.samples++
	for _, p := range store.Positions() {
		if p[1] <= integrators.FloorClamp+contactBand {
			f.contacts++
			return
		}
	}
}

func (f *FloorContact) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return float64(f.contacts) / float64(f.samples)
}

func (f *FloorContact) Reset() {
	f.contacts = 0
	f.samples = 0
}
