// Package compute provides the dense linear algebra used by shape matching.
//
// The [Backend] interface is the capability the shape matcher consumes:
// multiply, transpose, invert, determinant and singular value decomposition
// over single-precision [Matrix] values of any size. Backends are stateless
// services injected by the caller; there is no package-level default.
//
//	be := compute.NewGonum()
//	inv, err := be.Inverse(m)
//	if errors.Is(err, compute.ErrSingular) {
//	    // reject the configuration
//	}
//
// The [Gonum] backend evaluates in float64 through gonum.org/v1/gonum/mat
// and rounds results back to float32.
package compute
