package dynamo

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Params is the physics parameter snapshot handed to every integrator and
// shape matching call. Mass is shared by all particles.
type Params struct {
	Gravity         mgl32.Vec3
	Mass            float32
	Elasticity      float32
	DynamicFriction float32
	Stiffness       float32
	Flappyness      float32
	Deformation     float32
}

func DefaultParams() Params {
	return Params{
		Gravity:         mgl32.Vec3{0, -9.8, 0},
		Mass:            1.0,
		Elasticity:      0.2,
		DynamicFriction: 0.3,
		Stiffness:       0.5,
		Flappyness:      0.5,
		Deformation:     0.3,
	}
}

// Validate checks mass and the blend factors.
func (p Params) Validate() error {
	if !(p.Mass > 0) {
		return fmt.Errorf("%w: mass must be positive, got %g", ErrInvalidArgument, p.Mass)
	}
	if p.DynamicFriction < 0 {
		return fmt.Errorf("%w: dynamic friction %g < 0", ErrParameterBounds, p.DynamicFriction)
	}
	if p.Flappyness < 0 {
		return fmt.Errorf("%w: flappyness %g < 0", ErrParameterBounds, p.Flappyness)
	}
	if p.Stiffness < 0 || p.Stiffness > 1 {
		return fmt.Errorf("%w: stiffness %g not in [0,1]", ErrParameterBounds, p.Stiffness)
	}
	if p.Deformation < 0 || p.Deformation > 1 {
		return fmt.Errorf("%w: deformation %g not in [0,1]", ErrParameterBounds, p.Deformation)
	}
	if !finiteVec(p.Gravity) {
		return fmt.Errorf("%w: gravity %v is not finite", ErrInvalidArgument, p.Gravity)
	}
	return nil
}

// ValidateDt rejects non-positive (and NaN) timesteps.
func ValidateDt(dt float32) error {
	if !(dt > 0) || math.IsInf(float64(dt), 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidArgument, dt)
	}
	return nil
}

// Finite reports whether v has no NaN or Inf component.
func Finite(v mgl32.Vec3) bool { return finiteVec(v) }

func finiteVec(v mgl32.Vec3) bool {
	for _, c := range v {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
