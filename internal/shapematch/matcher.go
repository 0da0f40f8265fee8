package shapematch

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/softbody/internal/compute"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/particles"
)

const (
	// MinVolumeDet floors det(AR_A) before the cube root so a collapsed or
	// inverted fit cannot blow up the volume correction.
	MinVolumeDet = 0.1

	quadraticTerms  = 9
	defaultMinChunk = 256
)

// Fit is the result of one shape matching pass before it is applied.
type Fit struct {
	Center     mgl32.Vec3
	RestCenter mgl32.Vec3

	// Rotation carries rest offsets onto current offsets.
	Rotation  mgl32.Mat3
	Reflected bool

	RigidGoals []mgl32.Vec3

	// Linear, Quadratic and Mixed are the blended transform blocks applied
	// to d, (dx², dy², dz²) and (dx·dy, dy·dz, dz·dx). Linear is volume
	// normalized; LinearDet is its determinant before normalization.
	// Quadratic holds the transpose of the fitted quadratic columns.
	Linear    mgl32.Mat3
	Quadratic mgl32.Mat3
	Mixed     mgl32.Mat3
	LinearDet float32

	Goals []mgl32.Vec3
}

// Matcher computes goal positions with an injected linear algebra backend.
type Matcher struct {
	backend  compute.Backend
	minChunk int
}

func New(backend compute.Backend) *Matcher {
	return &Matcher{backend: backend, minChunk: defaultMinChunk}
}

// WithMinChunk sets the smallest particle range handed to one goroutine.
func (m *Matcher) WithMinChunk(n int) *Matcher {
	m.minChunk = n
	return m
}

func (m *Matcher) Backend() compute.Backend { return m.backend }

// Fit computes goal positions for the store's current configuration.
// The store is not modified.
func (m *Matcher) Fit(store *particles.Store, params dynamo.Params) (*Fit, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return m.fit(store.Snapshot(), store.RestCenterOfMass(), params.Deformation)
}

// Match fits goal positions and applies the soft correction. On error the
// store is left exactly as it was.
func (m *Matcher) Match(store *particles.Store, dt float32, params dynamo.Params) error {
	if err := dynamo.ValidateDt(dt); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}

	state := store.Snapshot()
	fit, err := m.fit(state, store.RestCenterOfMass(), params.Deformation)
	if err != nil {
		return err
	}

	velGain := params.Flappyness * params.Stiffness / dt
	posGain := params.Stiffness
	dynamo.ParallelFor(len(state), m.minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := &state[i]
			g := fit.Goals[i]
			delta := g.Sub(p.Position)
			p.Velocity = p.Velocity.Add(delta.Mul(velGain))
			p.Position = p.Position.Add(delta.Mul(posGain))
			p.Goal = g
		}
	})

	for i := range state {
		if !dynamo.Finite(state[i].Position) || !dynamo.Finite(state[i].Velocity) {
			return fmt.Errorf("%w: particle %d", dynamo.ErrInvalidState, i)
		}
	}
	return store.Commit(state)
}

func (m *Matcher) fit(state []particles.Particle, restCenter mgl32.Vec3, deformation float32) (*Fit, error) {
	n := len(state)
	be := m.backend
	fit := &Fit{
		Center:     particles.CenterOf(state),
		RestCenter: restCenter,
		RigidGoals: make([]mgl32.Vec3, n),
		Goals:      make([]mgl32.Vec3, n),
	}
	c, c0 := fit.Center, fit.RestCenter

	// zero-mean current (X) and rest (Y0) offsets, one column per particle
	x := compute.Zeros(3, n)
	y0 := compute.Zeros(3, n)
	m.each(n, func(i int) {
		p := state[i].Position.Sub(c)
		q := state[i].Rest.Sub(c0)
		for k := 0; k < 3; k++ {
			x.Set(k, i, p[k])
			y0.Set(k, i, q[k])
		}
	})

	rot, reflected, err := m.rotation(x, y0)
	if err != nil {
		return nil, err
	}
	fit.Rotation, fit.Reflected = rot, reflected

	m.each(n, func(i int) {
		fit.RigidGoals[i] = rot.Mul3x1(state[i].Rest.Sub(c0)).Add(c)
	})

	// rotation leaves the centroid in place, so the rigid goals are
	// centered on c as well
	var sumSq float32
	for _, g := range fit.RigidGoals {
		sumSq += g.Sub(c).LenSqr()
	}
	radius := float32(math.Sqrt(float64(sumSq / float32(n))))
	if !(radius > 0) || math.IsInf(float64(radius), 0) {
		return nil, fmt.Errorf("%w: %d particles span no volume", dynamo.ErrDegenerateConfiguration, n)
	}

	// the moment matrix is built on unit-radius offsets so its conditioning
	// does not depend on the size of the body
	y := compute.Zeros(quadraticTerms, n)
	m.each(n, func(i int) {
		terms := quadraticRow(fit.RigidGoals[i].Sub(c).Mul(1 / radius))
		for k, v := range terms {
			y.Set(k, i, v)
		}
	})

	yt := be.Transpose(y)
	yyt, err := be.Mul(y, yt)
	if err != nil {
		return nil, err
	}
	aqq, err := be.Inverse(yyt)
	if err != nil {
		if errors.Is(err, compute.ErrSingular) {
			return nil, fmt.Errorf("%w: quadratic moment matrix of %d particles: %v", dynamo.ErrDegenerateConfiguration, n, err)
		}
		return nil, err
	}
	xyt, err := be.Mul(x, yt)
	if err != nil {
		return nil, err
	}
	a, err := be.Mul(xyt, aqq)
	if err != nil {
		return nil, err
	}
	unscale(a, radius)

	ar, err := a.Scale(deformation).Add(compute.Identity(3, quadraticTerms).Scale(1 - deformation))
	if err != nil {
		return nil, err
	}

	linear := ar.Slice(0, 3, 0, 3)
	det, err := be.Det(linear)
	if err != nil {
		return nil, err
	}
	fit.LinearDet = det
	scale := float32(math.Cbrt(float64(max(det, MinVolumeDet))))
	linear = linear.Scale(1 / scale)

	if fit.Linear, err = compute.ToMat3(linear); err != nil {
		return nil, err
	}
	// the quadratic block is applied transposed
	quad, err := compute.ToMat3(ar.Slice(0, 3, 3, 6))
	if err != nil {
		return nil, err
	}
	fit.Quadratic = quad.Transpose()
	if fit.Mixed, err = compute.ToMat3(ar.Slice(0, 3, 6, 9)); err != nil {
		return nil, err
	}

	m.each(n, func(i int) {
		d := fit.RigidGoals[i].Sub(c)
		sq := mgl32.Vec3{d[0] * d[0], d[1] * d[1], d[2] * d[2]}
		mixed := mgl32.Vec3{d[0] * d[1], d[1] * d[2], d[2] * d[0]}
		fit.Goals[i] = fit.Linear.Mul3x1(d).
			Add(fit.Quadratic.Mul3x1(sq)).
			Add(fit.Mixed.Mul3x1(mixed)).
			Add(c)
	})

	for i, g := range fit.Goals {
		if !dynamo.Finite(g) {
			return nil, fmt.Errorf("%w: goal %d is not finite", dynamo.ErrDegenerateConfiguration, i)
		}
	}
	return fit, nil
}

// rotation extracts the rotation part of Apq = X·Y0ᵀ. With Apq = U·S·Vᵀ the
// rotation taking rest offsets to current offsets is U·Vᵀ; a reflection is
// undone by negating its third column.
func (m *Matcher) rotation(x, y0 compute.Matrix) (mgl32.Mat3, bool, error) {
	be := m.backend
	apq, err := be.Mul(x, be.Transpose(y0))
	if err != nil {
		return mgl32.Mat3{}, false, err
	}
	u, _, v, err := be.SVD(apq)
	if err != nil {
		return mgl32.Mat3{}, false, fmt.Errorf("%w: covariance svd: %v", dynamo.ErrDegenerateConfiguration, err)
	}
	r, err := be.Mul(u, be.Transpose(v))
	if err != nil {
		return mgl32.Mat3{}, false, err
	}

	det, err := be.Det(r)
	if err != nil {
		return mgl32.Mat3{}, false, err
	}
	reflected := det < 0
	if reflected {
		for i := 0; i < 3; i++ {
			r.Set(i, 2, -r.At(i, 2))
		}
	}

	rot, err := compute.ToMat3(r)
	return rot, reflected, err
}

func (m *Matcher) each(n int, fn func(i int)) {
	dynamo.ParallelFor(n, m.minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// unscale maps a transform fitted on offsets divided by radius back to raw
// offsets: linear columns scale by 1/radius, quadratic and mixed by 1/radius².
func unscale(a compute.Matrix, radius float32) {
	inv := 1 / radius
	for r := 0; r < a.Rows(); r++ {
		for k := 0; k < a.Cols(); k++ {
			f := inv
			if k >= 3 {
				f = inv * inv
			}
			a.Set(r, k, a.At(r, k)*f)
		}
	}
}

func quadraticRow(d mgl32.Vec3) [quadraticTerms]float32 {
	return [quadraticTerms]float32{
		d[0], d[1], d[2],
		d[0] * d[0], d[1] * d[1], d[2] * d[2],
		d[0] * d[1], d[1] * d[2], d[2] * d[0],
	}
}
