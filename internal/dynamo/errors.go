package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidArgument indicates a non-positive timestep or mass, or an
	// empty particle set.
	ErrInvalidArgument = errors.New("dynamo: invalid argument")

	// ErrInvalidIndex indicates a particle index outside [0, N).
	ErrInvalidIndex = errors.New("dynamo: particle index out of range")

	// ErrDegenerateConfiguration indicates the quadratic moment matrix could
	// not be inverted (too few particles, or a colinear/coincident cloud).
	ErrDegenerateConfiguration = errors.New("dynamo: degenerate particle configuration")

	// ErrParameterBounds indicates a blend parameter is outside its range.
	ErrParameterBounds = fmt.Errorf("%w: parameter out of valid bounds", ErrInvalidArgument)

	// ErrDimensionMismatch indicates a snapshot of the wrong particle count.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between snapshot and store")

	// ErrInvalidState indicates NaN or Inf in particle state.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// StepError wraps an error with the frame it happened in.
type StepError struct {
	Frame   int
	Time    float64
	Phase   string
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f) %s: %v", e.Frame, e.Time, e.Phase, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
