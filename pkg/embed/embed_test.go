package embed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veclusterhq/vecluster/pkg/vecmath"
)

// hashEmbedder deterministically maps a text to a tiny vector.
type hashEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (h *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	return []float32{sum, float32(len(text)), 1}, nil
}

func TestEmbedAllPreservesOrder(t *testing.T) {
	texts := []string{"alpha", "beta", "gamma", "delta"}
	e := &hashEmbedder{}

	vs, err := EmbedAll(context.Background(), e, texts, 2)
	require.NoError(t, err)
	require.Len(t, vs, 4)
	assert.Equal(t, 4, e.calls)

	for i, text := range texts {
		want, _ := e.Embed(context.Background(), text)
		assert.Equal(t, want, vs[i], "row %d out of order", i)
	}
}

func TestEmbedAllPropagatesError(t *testing.T) {
	boom := errors.New("model offline")
	e := EmbedderFunc(func(_ context.Context, text string) ([]float32, error) {
		if text == "bad" {
			return nil, boom
		}
		return []float32{1}, nil
	})

	_, err := EmbedAll(context.Background(), e, []string{"ok", "bad", "ok"}, 1)
	require.ErrorIs(t, err, boom)
}

func TestEmbedAllDimensionMismatch(t *testing.T) {
	e := EmbedderFunc(func(_ context.Context, text string) ([]float32, error) {
		return make([]float32, len(text)), nil
	})

	_, err := EmbedAll(context.Background(), e, []string{"ab", "abc"}, 2)
	require.ErrorIs(t, err, vecmath.ErrDimensionMismatch)
}

func TestEmbedAllBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	e := EmbedderFunc(func(_ context.Context, _ string) ([]float32, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		return []float32{1, 2}, nil
	})

	texts := make([]string, 64)
	for i := range texts {
		texts[i] = fmt.Sprintf("row-%d", i)
	}
	_, err := EmbedAll(context.Background(), e, texts, 3)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestEmbedAllEmpty(t *testing.T) {
	vs, err := EmbedAll(context.Background(), &hashEmbedder{}, nil, 4)
	require.NoError(t, err)
	assert.Empty(t, vs)
}
