// Package dynamo provides the shared primitives of the soft body simulation.
//
// The package defines the values every stage of a frame agrees on:
//
//   - [Params]: per-step physics parameter snapshot
//   - the error taxonomy ([ErrInvalidArgument], [ErrInvalidIndex],
//     [ErrDegenerateConfiguration]) and [StepError] for driver context
//   - [ParallelFor]: chunked fan-out for per-particle loops
//
// # Example
//
//	params := dynamo.DefaultParams()
//	params.Stiffness = 0.8
//	if err := params.Validate(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Params is a plain value and is safe to share. Stores built on top of
// these primitives are NOT thread-safe; calls must be serialized by the
// caller.
package dynamo
