package engine

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/veclusterhq/vecluster/pkg/compute"
	"github.com/veclusterhq/vecluster/pkg/vecmath"
)

// hcluster is the mutable per-merge state of one agglomerative cluster.
type hcluster struct {
	centroid []float32
	members  []int
}

// Hierarchical clusters the rows of vs agglomeratively: every row starts as
// its own cluster, and the two clusters with the most similar centroids are
// merged until k remain. When k >= N no merge happens and one cluster per
// row comes back. Output is sorted by member count descending.
//
// The per-merge similarity matrix is the parallel-friendly half: one unit
// per cluster pair, laid out by the same triangular bijection AllPairs uses.
// Each merge is O(C^2) in the live cluster count; the engine trades
// asymptotic optimality for simplicity at the dataset sizes it targets.
func (e *Engine) Hierarchical(ctx context.Context, vs VectorSet, k int, opts ...CallOption) ([]Cluster, error) {
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

	active := make([]*hcluster, n)
	for r := range vs {
		centroid := make([]float32, dim)
		copy(centroid, vs[r])
		active[r] = &hcluster{centroid: centroid, members: []int{r}}
	}

	initial := n
	// One similarity buffer sized for the first (largest) round, resliced as
	// the active list shrinks.
	simBuf := make([]float32, compute.PairCount(n))

	for len(active) > k {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c := len(active)
		sims := simBuf[:compute.PairCount(c)]
		e.centroidPairScores(ctx, active, sims)

		// First-found maximum in row-major order; strict > keeps the
		// earliest pair on ties, identically on both backends.
		bestP := 0
		bestSim := float32(math.Inf(-1))
		for p, sim := range sims {
			if sim > bestSim {
				bestP = p
				bestSim = sim
			}
		}
		i, j := compute.PairAt(bestP, c)

		// Merge j into i: union the members and recompute the centroid from
		// the original member vectors, not from the two old centroids.
		dst := active[i]
		dst.members = append(dst.members, active[j].members...)
		vecmath.MeanInto(dst.centroid, vs, dst.members)
		vecmath.NormalizeInPlace(dst.centroid)

		// Compact the active list; clusters after j shift down one slot.
		active = append(active[:j], active[j+1:]...)

		if o.fraction != nil {
			o.fraction(float64(initial-len(active)) / float64(initial-k))
		}
	}

	clusters := make([]Cluster, len(active))
	for idx, hc := range active {
		clusters[idx] = newCluster(vs, hc.members, hc.centroid)
	}
	sortClusters(clusters)
	return clusters, nil
}

// centroidPairScores fills sims[p] with the similarity of the p-th
// triangular pair of active centroids, trying the parallel backend first.
func (e *Engine) centroidPairScores(ctx context.Context, active []*hcluster, sims []float32) {
	c := len(active)
	total := len(sims)

	if e.cc.ShouldDispatch(total) {
		err := e.cc.Dispatch(ctx, total, func(start, end int) {
			i, j := compute.PairAt(start, c)
			for p := start; p < end; p++ {
				sims[p] = vecmath.CosineSimilarity(active[i].centroid, active[j].centroid)
				j++
				if j == c {
					i++
					j = i + 1
				}
			}
		})
		if err == nil {
			return
		}
		e.logger.Warn("hierarchical similarity dispatch failed, retrying on cpu", zap.Error(err))
	}

	e.cc.RecordCPU()
	p := 0
	for i := 0; i < c-1; i++ {
		for j := i + 1; j < c; j++ {
			sims[p] = vecmath.CosineSimilarity(active[i].centroid, active[j].centroid)
			p++
		}
	}
}
