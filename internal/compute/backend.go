package compute

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrSingular is returned when a matrix cannot be inverted at single
	// precision.
	ErrSingular = errors.New("compute: matrix is singular")

	// ErrNoConvergence is returned when a factorization fails.
	ErrNoConvergence = errors.New("compute: factorization did not converge")

	// ErrShape is returned for incompatible operand dimensions.
	ErrShape = errors.New("compute: dimension mismatch")
)

// Backend is the dense linear algebra capability.
type Backend interface {
	Name() string
	Mul(a, b Matrix) (Matrix, error)
	Transpose(a Matrix) Matrix
	Inverse(a Matrix) (Matrix, error)
	Det(a Matrix) (float32, error)
	// SVD factors a = u * diag(s) * vᵀ with s in descending order.
	SVD(a Matrix) (u Matrix, s []float32, v Matrix, err error)
}

// Matrix is a dense row-major float32 matrix.
type Matrix struct {
	rows, cols int
	data       []float32
}

// NewMatrix wraps data (row-major, len rows*cols) without copying.
func NewMatrix(rows, cols int, data []float32) Matrix {
	if len(data) != rows*cols {
		panic(fmt.Sprintf("compute: %dx%d matrix needs %d values, got %d", rows, cols, rows*cols, len(data)))
	}
	return Matrix{rows: rows, cols: cols, data: data}
}

func Zeros(rows, cols int) Matrix {
	return Matrix{rows: rows, cols: cols, data: make([]float32, rows*cols)}
}

// Identity returns a rows x cols matrix with ones on the main diagonal.
func Identity(rows, cols int) Matrix {
	m := Zeros(rows, cols)
	for i := 0; i < rows && i < cols; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func (m Matrix) Rows() int { return m.rows }
func (m Matrix) Cols() int { return m.cols }

func (m Matrix) At(i, j int) float32 { return m.data[i*m.cols+j] }

func (m Matrix) Set(i, j int, v float32) { m.data[i*m.cols+j] = v }

// Data exposes the backing slice.
func (m Matrix) Data() []float32 { return m.data }

func (m Matrix) Clone() Matrix {
	c := Zeros(m.rows, m.cols)
	copy(c.data, m.data)
	return c
}

// Scale returns s*m.
func (m Matrix) Scale(s float32) Matrix {
	out := Zeros(m.rows, m.cols)
	for i, v := range m.data {
		out.data[i] = v * s
	}
	return out
}

// Add returns m+o.
func (m Matrix) Add(o Matrix) (Matrix, error) {
	if m.rows != o.rows || m.cols != o.cols {
		return Matrix{}, fmt.Errorf("%w: add %dx%d + %dx%d", ErrShape, m.rows, m.cols, o.rows, o.cols)
	}
	out := Zeros(m.rows, m.cols)
	for i := range m.data {
		out.data[i] = m.data[i] + o.data[i]
	}
	return out, nil
}

// Slice copies the block [r0,r1) x [c0,c1).
func (m Matrix) Slice(r0, r1, c0, c1 int) Matrix {
	out := Zeros(r1-r0, c1-c0)
	for i := r0; i < r1; i++ {
		for j := c0; j < c1; j++ {
			out.Set(i-r0, j-c0, m.At(i, j))
		}
	}
	return out
}

// ToMat3 converts a 3x3 matrix to mgl32's column-major layout.
func ToMat3(m Matrix) (mgl32.Mat3, error) {
	if m.rows != 3 || m.cols != 3 {
		return mgl32.Mat3{}, fmt.Errorf("%w: expected 3x3, got %dx%d", ErrShape, m.rows, m.cols)
	}
	var out mgl32.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Set(i, j, m.At(i, j))
		}
	}
	return out, nil
}

func FromMat3(m mgl32.Mat3) Matrix {
	out := Zeros(3, 3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Set(i, j, m.At(i, j))
		}
	}
	return out
}
