// Package embed defines the boundary to the external embedding model. The
// engines never see raw text rows; they consume vectors produced through
// this interface, which any model backend can implement.
package embed

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/veclusterhq/vecluster/pkg/engine"
	"github.com/veclusterhq/vecluster/pkg/vecmath"
)

// Embedder turns a text into a fixed-length vector. Implementations must
// return vectors of one consistent dimension for the lifetime of a session.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedderFunc adapts a plain function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

// Embed implements Embedder.
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// EmbedAll embeds every text with at most concurrency in-flight model calls
// (GOMAXPROCS when <= 0) and returns the vectors in input order. The first
// model error cancels the remaining work and is returned; a dimension
// disagreement between rows surfaces as vecmath.ErrDimensionMismatch.
func EmbedAll(ctx context.Context, e Embedder, texts []string, concurrency int) (engine.VectorSet, error) {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	vectors := make(engine.VectorSet, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			v, err := e.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed row %d: %w", i, err)
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := 1; i < len(vectors); i++ {
		if len(vectors[i]) != len(vectors[0]) {
			return nil, fmt.Errorf("row %d has dimension %d, row 0 has %d: %w",
				i, len(vectors[i]), len(vectors[0]), vecmath.ErrDimensionMismatch)
		}
	}
	return vectors, nil
}
