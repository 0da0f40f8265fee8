package config

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/softbody/internal/dynamo"
)

const (
	ShapeBox    = "box"
	ShapeSphere = "sphere"
	ShapeCloud  = "cloud"
)

// minParticles is the smallest cloud the quadratic fit can resolve.
const minParticles = 9

var Shapes = []string{ShapeBox, ShapeSphere, ShapeCloud}

func (b BodyConfig) validate(shape string) error {
	if b.Size <= 0 {
		return fmt.Errorf("%w: body size must be positive, got %g", dynamo.ErrInvalidArgument, b.Size)
	}
	if b.Jitter < 0 {
		return fmt.Errorf("%w: jitter must not be negative, got %g", dynamo.ErrInvalidArgument, b.Jitter)
	}
	switch shape {
	case ShapeBox:
		if b.Count < 3 {
			return fmt.Errorf("%w: box needs at least 3 particles per edge, got %d", dynamo.ErrInvalidArgument, b.Count)
		}
	case ShapeSphere, ShapeCloud:
		if b.Count < minParticles {
			return fmt.Errorf("%w: %s needs at least %d particles, got %d", dynamo.ErrInvalidArgument, shape, minParticles, b.Count)
		}
	default:
		return fmt.Errorf("%w: unknown shape %q", dynamo.ErrInvalidArgument, shape)
	}
	return nil
}

// BuildPositions generates the initial particle cloud: the chosen shape,
// tilted about the x=z diagonal by Body.Tilt radians and shifted so its
// lowest particle sits at Body.Height.
func (c *Config) BuildPositions() ([]mgl32.Vec3, error) {
	if err := c.Body.validate(c.Shape); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(c.Seed))

	var pts []mgl32.Vec3
	switch c.Shape {
	case ShapeBox:
		pts = Box(c.Body.Count, float32(c.Body.Size), float32(c.Body.Jitter), rng)
	case ShapeSphere:
		pts = Sphere(c.Body.Count, float32(c.Body.Size)/2)
	case ShapeCloud:
		pts = Cloud(c.Body.Count, float32(c.Body.Size)/2, rng)
	}

	if c.Body.Tilt != 0 {
		q := mgl32.QuatRotate(float32(c.Body.Tilt), mgl32.Vec3{1, 0, 1}.Normalize())
		for i := range pts {
			pts[i] = q.Rotate(pts[i])
		}
	}

	minY := float32(math.Inf(1))
	for _, p := range pts {
		minY = min(minY, p[1])
	}
	shift := mgl32.Vec3{0, float32(c.Body.Height) - minY, 0}
	for i := range pts {
		pts[i] = pts[i].Add(shift)
	}
	return pts, nil
}

// Box is an n×n×n lattice of edge length size centered on the origin.
// Each particle is displaced by up to jitter along each axis.
func Box(n int, size, jitter float32, rng *rand.Rand) []mgl32.Vec3 {
	pts := make([]mgl32.Vec3, 0, n*n*n)
	step := size / float32(n-1)
	half := size / 2
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				p := mgl32.Vec3{float32(i)*step - half, float32(j)*step - half, float32(k)*step - half}
				if jitter > 0 {
					p = p.Add(mgl32.Vec3{
						(rng.Float32()*2 - 1) * jitter,
						(rng.Float32()*2 - 1) * jitter,
						(rng.Float32()*2 - 1) * jitter,
					})
				}
				pts = append(pts, p)
			}
		}
	}
	return pts
}

// Sphere places n particles on concentric Fibonacci shells of a ball of
// the given radius. Outer shells hold more particles in proportion to
// their area.
func Sphere(n int, radius float32) []mgl32.Vec3 {
	shells := 1
	for shells < 4 && n/(shells+1) >= 8 {
		shells++
	}

	weights := make([]float64, shells)
	var total float64
	for s := range weights {
		r := float64(s+1) / float64(shells)
		weights[s] = r * r
		total += weights[s]
	}

	golden := math.Pi * (3 - math.Sqrt(5))
	pts := make([]mgl32.Vec3, 0, n)
	remaining := n
	for s := shells - 1; s >= 0; s-- {
		count := int(math.Round(float64(n) * weights[s] / total))
		if s == 0 || count > remaining {
			count = remaining
		}
		remaining -= count

		r := radius * float32(s+1) / float32(shells)
		for i := 0; i < count; i++ {
			y := 1 - 2*(float64(i)+0.5)/float64(count)
			ring := math.Sqrt(1 - y*y)
			theta := golden*float64(i) + float64(s)
			pts = append(pts, mgl32.Vec3{
				r * float32(ring*math.Cos(theta)),
				r * float32(y),
				r * float32(ring*math.Sin(theta)),
			})
		}
	}
	return pts
}

// Cloud scatters n particles uniformly inside a ball of the given radius.
func Cloud(n int, radius float32, rng *rand.Rand) []mgl32.Vec3 {
	pts := make([]mgl32.Vec3, 0, n)
	for len(pts) < n {
		p := mgl32.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1}
		if p.Len() > 1 {
			continue
		}
		pts = append(pts, p.Mul(radius))
	}
	return pts
}
