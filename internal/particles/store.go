// Package particles owns the per-particle state of a soft body.
//
// Every particle is one [Particle] record; a [Store] holds them in a single
// slice together with the rest-shape center of mass, which is computed once
// at construction and never recomputed.
package particles

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/softbody/internal/dynamo"
)

// Particle is the full state of one particle. Rest is fixed after
// construction; Force is a per-step accumulator; Goal is the cached result
// of the last shape matching call.
type Particle struct {
	Rest     mgl32.Vec3
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	Force    mgl32.Vec3
	Goal     mgl32.Vec3
}

// Store is a fixed-size particle set. It is not safe for concurrent use.
type Store struct {
	particles       []Particle
	restCenter      mgl32.Vec3
	initialVelocity mgl32.Vec3
}

// New builds a store from initial positions and one shared velocity.
func New(positions []mgl32.Vec3, initialVelocity mgl32.Vec3) (*Store, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: no particle positions", dynamo.ErrInvalidArgument)
	}
	for i, p := range positions {
		if !dynamo.Finite(p) {
			return nil, fmt.Errorf("%w: position %d is not finite", dynamo.ErrInvalidArgument, i)
		}
	}

	s := &Store{
		particles:       make([]Particle, len(positions)),
		initialVelocity: initialVelocity,
	}
	for i, p := range positions {
		s.particles[i] = Particle{
			Rest:     p,
			Position: p,
			Velocity: initialVelocity,
			Goal:     p,
		}
	}
	s.restCenter = mean(s.particles, func(p *Particle) mgl32.Vec3 { return p.Rest })
	return s, nil
}

func (s *Store) Len() int { return len(s.particles) }

// CenterOfMass is the mean current position.
func (s *Store) CenterOfMass() mgl32.Vec3 {
	return mean(s.particles, func(p *Particle) mgl32.Vec3 { return p.Position })
}

// RestCenterOfMass is the mean rest position cached at construction.
func (s *Store) RestCenterOfMass() mgl32.Vec3 { return s.restCenter }

func (s *Store) Position(i int) (mgl32.Vec3, error) {
	if i < 0 || i >= len(s.particles) {
		return mgl32.Vec3{}, fmt.Errorf("%w: %d not in [0,%d)", dynamo.ErrInvalidIndex, i, len(s.particles))
	}
	return s.particles[i].Position, nil
}

func (s *Store) Particle(i int) (Particle, error) {
	if i < 0 || i >= len(s.particles) {
		return Particle{}, fmt.Errorf("%w: %d not in [0,%d)", dynamo.ErrInvalidIndex, i, len(s.particles))
	}
	return s.particles[i], nil
}

// Positions returns a copy of every current position.
func (s *Store) Positions() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(s.particles))
	for i := range s.particles {
		out[i] = s.particles[i].Position
	}
	return out
}

// Goals returns a copy of the cached goal positions.
func (s *Store) Goals() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(s.particles))
	for i := range s.particles {
		out[i] = s.particles[i].Goal
	}
	return out
}

// Snapshot returns an independent copy of all particle records.
func (s *Store) Snapshot() []Particle {
	out := make([]Particle, len(s.particles))
	copy(out, s.particles)
	return out
}

// Commit replaces the particle records with snap. Rest positions in snap are
// ignored so the rest shape cannot drift.
func (s *Store) Commit(snap []Particle) error {
	if len(snap) != len(s.particles) {
		return fmt.Errorf("%w: snapshot has %d particles, store has %d", dynamo.ErrDimensionMismatch, len(snap), len(s.particles))
	}
	for i := range snap {
		rest := s.particles[i].Rest
		s.particles[i] = snap[i]
		s.particles[i].Rest = rest
	}
	return nil
}

// Reset restores the construction state.
func (s *Store) Reset() {
	for i := range s.particles {
		p := &s.particles[i]
		p.Position = p.Rest
		p.Goal = p.Rest
		p.Velocity = s.initialVelocity
		p.Force = mgl32.Vec3{}
	}
}

// IsValid reports whether no attribute of any particle is NaN or Inf.
func (s *Store) IsValid() bool {
	for i := range s.particles {
		p := &s.particles[i]
		if !dynamo.Finite(p.Position) || !dynamo.Finite(p.Velocity) ||
			!dynamo.Finite(p.Force) || !dynamo.Finite(p.Goal) {
			return false
		}
	}
	return true
}

// CenterOf returns the mean position of a particle slice.
func CenterOf(ps []Particle) mgl32.Vec3 {
	return mean(ps, func(p *Particle) mgl32.Vec3 { return p.Position })
}

func mean(ps []Particle, pick func(*Particle) mgl32.Vec3) mgl32.Vec3 {
	if len(ps) == 0 {
		return mgl32.Vec3{}
	}
	var sum mgl32.Vec3
	for i := range ps {
		sum = sum.Add(pick(&ps[i]))
	}
	return sum.Mul(1 / float32(len(ps)))
}
