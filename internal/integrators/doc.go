// Package integrators advances particle state between shape matching calls.
//
// [Euler] is a semi-implicit Euler integrator against a static ground plane.
// A step runs as an explicit phase sequence over a snapshot of the store:
//
//	UpdateForces -> ProjectConstraints -> UpdateVelocities -> UpdatePositions -> Commit
//
// Forces are computed from the pre-projection positions; position
// integration starts from the projected (clamped) positions.
package integrators
