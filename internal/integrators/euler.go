package integrators

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/particles"
)

const (
	// FloorHeight is the y coordinate of the ground plane.
	FloorHeight float32 = 0
	// FloorClamp is where penetrating particles are projected to.
	FloorClamp float32 = 0.01

	defaultMinChunk = 256
)

// FloorNormal is the ground plane normal.
var FloorNormal = mgl32.Vec3{0, 1, 0}

type Euler struct {
	minChunk int
}

func NewEuler() *Euler {
	return &Euler{minChunk: defaultMinChunk}
}

// WithMinChunk sets the smallest particle range handed to one goroutine.
func (e *Euler) WithMinChunk(n int) *Euler {
	e.minChunk = n
	return e
}

// Step runs one full integration step on the store.
func (e *Euler) Step(store *particles.Store, dt float32, params dynamo.Params) error {
	if err := dynamo.ValidateDt(dt); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}

	state := store.Snapshot()
	contacts := e.UpdateForces(state, dt, params)
	e.ProjectConstraints(state, contacts)
	e.UpdateVelocities(state, dt, params)
	e.UpdatePositions(state, dt)
	return store.Commit(state)
}

// UpdateForces sets each force to gravity plus the floor collision and
// friction impulses spread over dt. It reports which particles penetrate.
func (e *Euler) UpdateForces(state []particles.Particle, dt float32, params dynamo.Params) []bool {
	contacts := make([]bool, len(state))
	weight := params.Gravity.Mul(params.Mass)

	dynamo.ParallelFor(len(state), e.minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := &state[i]
			p.Force = weight

			if p.Position.Y() > FloorHeight {
				continue
			}
			contacts[i] = true

			// floor is static, so the relative velocity is the particle's own
			vn := FloorNormal.Mul(FloorNormal.Dot(p.Velocity))
			vt := p.Velocity.Sub(vn)

			collision := vn.Mul(-(params.Elasticity + 1) * params.Mass)
			friction := vt.Mul(-params.DynamicFriction * params.Mass)
			p.Force = p.Force.Add(collision.Add(friction).Mul(1 / dt))
		}
	})
	return contacts
}

// ProjectConstraints lifts penetrating particles to the clamp height.
func (e *Euler) ProjectConstraints(state []particles.Particle, contacts []bool) {
	for i := range state {
		if contacts[i] {
			state[i].Position[1] = FloorHeight + FloorClamp
		}
	}
}

// UpdateVelocities applies v += F/m*dt and clears the force accumulator.
func (e *Euler) UpdateVelocities(state []particles.Particle, dt float32, params dynamo.Params) {
	invMass := 1 / params.Mass
	dynamo.ParallelFor(len(state), e.minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := &state[i]
			p.Velocity = p.Velocity.Add(p.Force.Mul(invMass).Mul(dt))
			p.Force = mgl32.Vec3{}
		}
	})
}

// UpdatePositions applies p += v*dt.
func (e *Euler) UpdatePositions(state []particles.Particle, dt float32) {
	dynamo.ParallelFor(len(state), e.minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := &state[i]
			p.Position = p.Position.Add(p.Velocity.Mul(dt))
		}
	})
}
