package engine

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/veclusterhq/vecluster/pkg/compute"
	"github.com/veclusterhq/vecluster/pkg/vecmath"
)

// AllPairs computes the cosine similarity of every unordered row pair and
// returns the pairs sorted by score descending. Ties keep the canonical
// row-major triangular order, so the result is deterministic for one input
// regardless of which backend served the call.
//
// Fewer than two rows, or zero-dimension vectors, yield an empty result.
func (e *Engine) AllPairs(ctx context.Context, vs VectorSet, opts ...CallOption) ([]SimilarityPair, error) {
	if err := vs.validate(); err != nil {
		return nil, err
	}
	o := newCallOptions(opts)

	n := len(vs)
	total := compute.PairCount(n)
	if total == 0 || vs.Dim() == 0 {
		return []SimilarityPair{}, nil
	}

	scores := make([]float32, total)
	if err := e.pairScores(ctx, vs, scores, &o); err != nil {
		return nil, err
	}

	pairs := make([]SimilarityPair, total)
	p := 0
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			pairs[p] = SimilarityPair{IndexA: i, IndexB: j, Score: scores[p]}
			p++
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].Score > pairs[b].Score
	})
	return pairs, nil
}

// pairScores fills scores[p] with the similarity of the p-th triangular pair
// of vs, trying the parallel backend first.
func (e *Engine) pairScores(ctx context.Context, vs VectorSet, scores []float32, o *callOptions) error {
	n := len(vs)
	total := len(scores)

	if e.cc.ShouldDispatch(total) {
		err := e.cc.Dispatch(ctx, total, func(start, end int) {
			i, j := compute.PairAt(start, n)
			for p := start; p < end; p++ {
				scores[p] = vecmath.CosineSimilarity(vs[i], vs[j])
				j++
				if j == n {
					i++
					j = i + 1
				}
			}
		})
		if err == nil {
			if o.progress != nil {
				o.progress(total, total)
			}
			return nil
		}
		e.logger.Warn("all-pairs dispatch failed, retrying on cpu", zap.Error(err))
	}

	e.cc.RecordCPU()
	p := 0
	for i := 0; i < n-1; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j := i + 1; j < n; j++ {
			scores[p] = vecmath.CosineSimilarity(vs[i], vs[j])
			p++
		}
		if o.progress != nil {
			o.progress(p, total)
		}
	}
	return nil
}
