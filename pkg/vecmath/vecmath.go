// Package vecmath provides the float32 vector primitives shared by every
// similarity and clustering engine: dot product, L2 norm, cosine similarity,
// in-place normalization, and element-wise mean.
//
// The implementations delegate to the viterin/vek library, which selects
// AVX2 or NEON code paths at startup and falls back to optimized pure Go
// elsewhere. Use Info to inspect the active acceleration.
//
// Numeric policy: cosine similarity of a zero-norm vector with anything is
// exactly 0, never NaN. Engines that guarantee equal dimensions call
// CosineSimilarity directly; external callers use CosineSimilarityChecked,
// which reports ErrDimensionMismatch instead of panicking.
package vecmath

import (
	"errors"
	"fmt"
	"math"

	"github.com/viterin/vek/vek32"
)

// ErrDimensionMismatch is returned when two vectors of different lengths are
// passed to a checked entry point.
var ErrDimensionMismatch = errors.New("vecmath: vector dimension mismatch")

// Dot computes the dot product of a and b. Both vectors must have the same
// length; empty or mismatched inputs yield 0.
func Dot(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return vek32.Dot(a, b)
}

// Norm computes the Euclidean (L2) norm of v.
func Norm(v []float32) float32 {
	if len(v) == 0 {
		return 0
	}
	return vek32.Norm(v)
}

// CosineSimilarity computes dot(a,b) / (||a||*||b||). It assumes the caller
// has already ensured len(a) == len(b); mismatched or empty inputs yield 0.
//
// vek32 returns NaN when either vector has zero norm; this wrapper maps that
// case to 0 so the zero-norm rule holds identically on every backend.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	sim := vek32.CosineSimilarity(a, b)
	if math.IsNaN(float64(sim)) {
		return 0
	}
	return sim
}

// CosineSimilarityChecked is the validating entry point for direct callers.
// It returns ErrDimensionMismatch when the vectors disagree in length.
func CosineSimilarityChecked(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	return CosineSimilarity(a, b), nil
}

// NormalizeInPlace scales v to unit length. A zero-norm vector is left
// unchanged rather than divided by zero.
func NormalizeInPlace(v []float32) {
	if len(v) == 0 {
		return
	}
	n := vek32.Norm(v)
	if n == 0 {
		return
	}
	vek32.DivNumber_Inplace(v, n)
}

// MeanInto writes the element-wise arithmetic mean of the given rows of
// vectors into dst. Accumulation happens in float64 so large member sets do
// not lose precision. rows must be non-empty and every row index valid.
func MeanInto(dst []float32, vectors [][]float32, rows []int) {
	dim := len(dst)
	sums := make([]float64, dim)
	for _, r := range rows {
		row := vectors[r]
		for d := 0; d < dim; d++ {
			sums[d] += float64(row[d])
		}
	}
	inv := 1.0 / float64(len(rows))
	for d := 0; d < dim; d++ {
		dst[d] = float32(sums[d] * inv)
	}
}
