// Package engine implements the similarity and clustering computations:
// all-pairs cosine ranking, k-means clustering, and agglomerative
// hierarchical clustering.
//
// Every operation has two implementations sharing the same vecmath kernels:
// a sequential CPU path and a parallel path that dispatches independent
// per-row or per-pair units over a compute.Context worker pool. The parallel
// path is tried first whenever the backend is available and the workload is
// large enough; any dispatch error falls back to the CPU path for that call
// only. Results are byte-for-byte identical across backends.
//
// Engines never mutate caller-supplied vectors. All returned pairs and
// clusters are freshly allocated. A failed call returns a nil result and an
// error, never a truncated one.
package engine

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/veclusterhq/vecluster/pkg/compute"
	"github.com/veclusterhq/vecluster/pkg/vecmath"
)

// ErrInvalidClusterCount is returned when a clustering operation is asked
// for k <= 0 clusters. It is surfaced before any computation begins.
var ErrInvalidClusterCount = errors.New("engine: cluster count must be >= 1")

// DefaultMaxIterations bounds the k-means iteration loop.
const DefaultMaxIterations = 100

// VectorSet is an ordered set of embedding vectors. The slice index is the
// row identity used in every result. All rows must share one dimension.
type VectorSet [][]float32

// Dim returns the shared vector dimension, or 0 for an empty set.
func (vs VectorSet) Dim() int {
	if len(vs) == 0 {
		return 0
	}
	return len(vs[0])
}

// validate checks that every row shares the first row's dimension.
func (vs VectorSet) validate() error {
	dim := vs.Dim()
	for _, v := range vs {
		if len(v) != dim {
			return vecmath.ErrDimensionMismatch
		}
	}
	return nil
}

// SimilarityPair is the cosine similarity of one unordered row pair,
// IndexA < IndexB always.
type SimilarityPair struct {
	IndexA int
	IndexB int
	Score  float32
}

// Cluster is one group of rows produced by a clustering run. Centroid is the
// mean of the member vectors re-normalized to unit length; Coherence is the
// mean cosine similarity of members to the centroid. Members are row indices
// in ascending order. Clusters are frozen once returned.
type Cluster struct {
	Centroid  []float32
	Members   []int
	Coherence float32
}

// Engine runs similarity and clustering operations against one backend
// context. It is safe for concurrent use; each call owns its own state.
type Engine struct {
	cc            *compute.Context
	logger        *zap.Logger
	maxIterations int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger for fallback diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxIterations overrides the k-means iteration bound.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// New creates an Engine on the given backend context. A nil context gets a
// default CPU-and-parallel context.
func New(cc *compute.Context, opts ...Option) *Engine {
	if cc == nil {
		cc = compute.NewContext(compute.DefaultConfig())
	}
	e := &Engine{
		cc:            cc,
		logger:        zap.NewNop(),
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// callOptions carries the per-call knobs shared by the operations.
type callOptions struct {
	progress func(processed, total int)
	fraction func(fraction float64)
	rng      *rand.Rand
}

// CallOption configures a single engine call.
type CallOption func(*callOptions)

// WithProgress installs a counter-style progress callback. AllPairs reports
// (processed, total) per row on the CPU path and a single (total, total) on
// the parallel path. The callback runs on the calling goroutine.
func WithProgress(fn func(processed, total int)) CallOption {
	return func(o *callOptions) { o.progress = fn }
}

// WithFraction installs a fractional progress callback in [0, 1], reported
// after each k-means iteration or hierarchical merge.
func WithFraction(fn func(fraction float64)) CallOption {
	return func(o *callOptions) { o.fraction = fn }
}

// WithSeed fixes the random source used for k-means centroid seeding, making
// repeated runs on the same input reproducible.
func WithSeed(seed int64) CallOption {
	return func(o *callOptions) { o.rng = rand.New(rand.NewSource(seed)) }
}

func newCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// newCluster assembles a frozen Cluster from its final members and centroid.
func newCluster(vs VectorSet, members []int, centroid []float32) Cluster {
	owned := make([]int, len(members))
	copy(owned, members)
	sort.Ints(owned)

	frozen := make([]float32, len(centroid))
	copy(frozen, centroid)

	var sum float64
	for _, r := range owned {
		sum += float64(vecmath.CosineSimilarity(vs[r], frozen))
	}
	coherence := float32(0)
	if len(owned) > 0 {
		coherence = float32(sum / float64(len(owned)))
	}

	return Cluster{Centroid: frozen, Members: owned, Coherence: coherence}
}

// sortClusters orders clusters by member count descending. The sort is
// stable so equal-sized clusters keep their cluster-id order.
func sortClusters(clusters []Cluster) {
	sort.SliceStable(clusters, func(a, b int) bool {
		return len(clusters[a].Members) > len(clusters[b].Members)
	})
}
