// Package shapematch pulls a particle body toward the best-fit transform of
// its rest shape.
//
// Each [Matcher.Match] call fits a rotation (polar decomposition through an
// SVD of the rest/current cross-covariance), then a linear+quadratic
// least-squares transform on top of the rotated rest shape, blends the two
// by the deformation parameter, normalizes volume, and moves positions and
// velocities toward the resulting goal positions.
//
// [Matcher.Fit] runs the same computation without touching the store, which
// is what tests and diagnostics use.
package shapematch
