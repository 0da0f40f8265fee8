package compute

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MaxCondition is the largest condition number Gonum.Inverse accepts.
// Rounding a rank-deficient product to float32 alone lifts its condition
// number to about 1e6, so anything above this is treated as singular.
const MaxCondition = 1e5

// Gonum implements Backend on gonum.org/v1/gonum/mat.
type Gonum struct {
	maxCond float64
}

func NewGonum() *Gonum {
	return &Gonum{maxCond: MaxCondition}
}

// WithMaxCondition returns a copy accepting condition numbers up to c.
func (g *Gonum) WithMaxCondition(c float64) *Gonum {
	return &Gonum{maxCond: c}
}

func (g *Gonum) Name() string { return "gonum" }

func (g *Gonum) Mul(a, b Matrix) (Matrix, error) {
	if a.cols != b.rows || a.rows == 0 || a.cols == 0 || b.cols == 0 {
		return Matrix{}, fmt.Errorf("%w: mul %dx%d * %dx%d", ErrShape, a.rows, a.cols, b.rows, b.cols)
	}
	var out mat.Dense
	out.Mul(toDense(a), toDense(b))
	return fromDense(&out), nil
}

func (g *Gonum) Transpose(a Matrix) Matrix {
	out := Zeros(a.cols, a.rows)
	for i := 0; i < a.rows; i++ {
		for j := 0; j < a.cols; j++ {
			out.Set(j, i, a.At(i, j))
		}
	}
	return out
}

func (g *Gonum) Inverse(a Matrix) (Matrix, error) {
	if a.rows != a.cols || a.rows == 0 {
		return Matrix{}, fmt.Errorf("%w: inverse of %dx%d", ErrShape, a.rows, a.cols)
	}
	d := toDense(a)

	var lu mat.LU
	lu.Factorize(d)
	cond := lu.Cond()
	if math.IsNaN(cond) || cond > g.maxCond {
		return Matrix{}, fmt.Errorf("%w: condition number %.3g", ErrSingular, cond)
	}

	var inv mat.Dense
	if err := inv.Inverse(d); err != nil {
		return Matrix{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	out := fromDense(&inv)
	if !finite(out.data) {
		return Matrix{}, fmt.Errorf("%w: non-finite inverse", ErrSingular)
	}
	return out, nil
}

func (g *Gonum) Det(a Matrix) (float32, error) {
	if a.rows != a.cols || a.rows == 0 {
		return 0, fmt.Errorf("%w: determinant of %dx%d", ErrShape, a.rows, a.cols)
	}
	return float32(mat.Det(toDense(a))), nil
}

func (g *Gonum) SVD(a Matrix) (Matrix, []float32, Matrix, error) {
	if a.rows == 0 || a.cols == 0 {
		return Matrix{}, nil, Matrix{}, fmt.Errorf("%w: svd of %dx%d", ErrShape, a.rows, a.cols)
	}
	if !finite(a.data) {
		return Matrix{}, nil, Matrix{}, fmt.Errorf("%w: svd input not finite", ErrNoConvergence)
	}

	var svd mat.SVD
	if ok := svd.Factorize(toDense(a), mat.SVDFull); !ok {
		return Matrix{}, nil, Matrix{}, ErrNoConvergence
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	s := make([]float32, len(values))
	for i, x := range values {
		s[i] = float32(x)
	}
	return fromDense(&u), s, fromDense(&v), nil
}

func toDense(m Matrix) *mat.Dense {
	data := make([]float64, len(m.data))
	for i, v := range m.data {
		data[i] = float64(v)
	}
	return mat.NewDense(m.rows, m.cols, data)
}

func fromDense(d *mat.Dense) Matrix {
	r, c := d.Dims()
	out := Zeros(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, float32(d.At(i, j)))
		}
	}
	return out
}

func finite(data []float32) bool {
	for _, v := range data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
