package engine

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/veclusterhq/vecluster/pkg/vecmath"
)

// KMeans clusters the rows of vs into at most k groups by iterative
// centroid assignment and returns the non-empty clusters sorted by member
// count descending.
//
// Seeds are k distinct row indices drawn uniformly without replacement from
// the call's random source (see WithSeed); when k exceeds the row count,
// one seed per row is used and fewer clusters come back. The loop runs until
// the assignment array repeats exactly or the iteration bound is reached.
//
// The assignment step is the parallel-friendly half: every row's nearest
// centroid is independent of every other row's, so the parallel path runs
// one unit per row. The centroid update stays on the CPU on both backends.
func (e *Engine) KMeans(ctx context.Context, vs VectorSet, k int, opts ...CallOption) ([]Cluster, error) {
	if k <= 0 {
		return nil, ErrInvalidClusterCount
	}
	if err := vs.validate(); err != nil {
		return nil, err
	}
	o := newCallOptions(opts)

	n := len(vs)
	dim := vs.Dim()
	if n == 0 || dim == 0 {
		return []Cluster{}, nil
	}
	if k > n {
		k = n
	}

	// Seed centroids from k distinct rows, copied so iteration never touches
	// caller vectors.
	centroids := make([][]float32, k)
	for c, row := range o.rng.Perm(n)[:k] {
		centroids[c] = make([]float32, dim)
		copy(centroids[c], vs[row])
	}

	assign := make([]int, n)
	prev := make([]int, n)
	for i := range prev {
		prev[i] = -1
	}
	memberRows := make([][]int, k)

	for iter := 0; iter < e.maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.assignRows(ctx, vs, centroids, assign)

		if o.fraction != nil {
			o.fraction(float64(iter+1) / float64(e.maxIterations))
		}
		if equalAssignments(assign, prev) {
			break
		}
		copy(prev, assign)

		// Centroid update: mean of members re-normalized to unit length.
		// Zero-norm means stay unnormalized; empty clusters keep their
		// previous centroid. Centroid buffers are rewritten in place.
		for c := range memberRows {
			memberRows[c] = memberRows[c][:0]
		}
		for r, c := range assign {
			memberRows[c] = append(memberRows[c], r)
		}
		for c, rows := range memberRows {
			if len(rows) == 0 {
				continue
			}
			vecmath.MeanInto(centroids[c], vs, rows)
			vecmath.NormalizeInPlace(centroids[c])
		}
	}

	// Assemble non-empty clusters in cluster-id order, then order the output
	// by size.
	for c := range memberRows {
		memberRows[c] = memberRows[c][:0]
	}
	for r, c := range assign {
		memberRows[c] = append(memberRows[c], r)
	}
	clusters := make([]Cluster, 0, k)
	for c, rows := range memberRows {
		if len(rows) == 0 {
			continue
		}
		clusters = append(clusters, newCluster(vs, rows, centroids[c]))
	}
	sortClusters(clusters)
	return clusters, nil
}

// assignRows writes the id of the most similar centroid for every row into
// assign, ties broken by the lowest centroid id. Tries the parallel backend
// first; the fallback recomputes the whole step on the CPU, so one degraded
// iteration still produces the identical assignment.
func (e *Engine) assignRows(ctx context.Context, vs VectorSet, centroids [][]float32, assign []int) {
	n := len(vs)
	step := func(start, end int) {
		for r := start; r < end; r++ {
			best := 0
			bestSim := float32(math.Inf(-1))
			for c, centroid := range centroids {
				sim := vecmath.CosineSimilarity(vs[r], centroid)
				if sim > bestSim {
					best = c
					bestSim = sim
				}
			}
			assign[r] = best
		}
	}

	if e.cc.ShouldDispatch(n) {
		err := e.cc.Dispatch(ctx, n, step)
		if err == nil {
			return
		}
		e.logger.Warn("k-means assignment dispatch failed, retrying on cpu", zap.Error(err))
	}
	e.cc.RecordCPU()
	step(0, n)
}

// equalAssignments compares two assignment arrays element-wise. Convergence
// is exact equality, not a drift threshold.
func equalAssignments(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
