package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/softbody/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Variant is one parameter set in a sweep.
type Variant struct {
	Name   string
	Params dynamo.Params
}

// Factory builds a fresh simulator with its own store for one variant.
type Factory func() (*Simulator, error)

// Ensemble runs independent bodies under different parameters
// concurrently. Each variant gets its own store so runs share no state.
type Ensemble struct {
	factory Factory
	limit   int
}

func NewEnsemble(factory Factory) *Ensemble {
	return &Ensemble{factory: factory}
}

// WithLimit caps the number of concurrent runs; 0 means unlimited.
func (e *Ensemble) WithLimit(n int) *Ensemble {
	e.limit = n
	return e
}

// Run returns results in variant order. The first failing run cancels
// the others.
func (e *Ensemble) Run(ctx context.Context, variants []Variant, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(variants))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, v := range variants {
		i, v := i, v
		g.Go(func() error {
			s, err := e.factory()
			if err != nil {
				return fmt.Errorf("variant %s: %w", v.Name, err)
			}
			res, err := s.Run(ctx, v.Params, cfg)
			if err != nil {
				return fmt.Errorf("variant %s: %w", v.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
