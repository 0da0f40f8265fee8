package metrics

import (
	"math"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/particles"
)

// TotalEnergy is the kinetic plus gravitational potential energy of the
// body, with potential measured from the origin along gravity.
func TotalEnergy(store *particles.Store, params dynamo.Params) float64 {
	m := float64(params.Mass)
	var ke, pe float64
	for _, p := range store.Snapshot() {
		ke += 0.5 * m * float64(p.Velocity.Dot(p.Velocity))
		pe -= m * float64(params.Gravity.Dot(p.Position))
	}
	return ke + pe
}

// Energy reports the mean total energy over observed frames.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(store *particles.Store, params dynamo.Params, t float64) {
	e.totalEnergy += TotalEnergy(store, params)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyLoss reports the fraction of the first observed energy that has
// been dissipated by the latest frame.
type EnergyLoss struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	samples       int
}

func NewEnergyLoss() *EnergyLoss {
	return &EnergyLoss{name: "energy_loss"}
}

func (e *EnergyLoss) Name() string { return e.name }

func (e *EnergyLoss) Observe(store *particles.Store, params dynamo.Params, t float64) {
	energy := TotalEnergy(store, params)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.currentEnergy = energy
	e.samples++
}

func (e *EnergyLoss) Value() float64 {
	if e.samples == 0 || e.initialEnergy == 0 {
		return 0
	}
	return (e.initialEnergy - e.currentEnergy) / math.Abs(e.initialEnergy)
}

func (e *EnergyLoss) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.samples = 0
}
