package vecmath

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-5

func approxEqual(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) < float64(eps)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{
			name:     "identical unit vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{1, 0, 0},
			expected: 1,
		},
		{
			name:     "perpendicular",
			a:        []float32{1, 0, 0},
			b:        []float32{0, 1, 0},
			expected: 0,
		},
		{
			name:     "opposite",
			a:        []float32{1, 0},
			b:        []float32{-1, 0},
			expected: -1,
		},
		{
			name:     "same direction different magnitude",
			a:        []float32{3, 4},
			b:        []float32{6, 8},
			expected: 1,
		},
		{
			name:     "zero vector yields exactly zero",
			a:        []float32{0, 0, 0},
			b:        []float32{1, 2, 3},
			expected: 0,
		},
		{
			name:     "both zero",
			a:        []float32{0, 0},
			b:        []float32{0, 0},
			expected: 0,
		},
		{
			name:     "empty",
			a:        []float32{},
			b:        []float32{},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if !approxEqual(got, tt.expected, epsilon) {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCosineSimilaritySelf(t *testing.T) {
	v := []float32{0.3, -1.2, 4.7, 0.01, 2.5}
	got := CosineSimilarity(v, v)
	if !approxEqual(got, 1, 1e-4) {
		t.Errorf("self similarity = %v, want ~1", got)
	}
}

func TestCosineSimilarityChecked(t *testing.T) {
	if _, err := CosineSimilarityChecked([]float32{1, 2}, []float32{1, 2, 3}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}

	sim, err := CosineSimilarityChecked([]float32{1, 0}, []float32{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(sim, 1, epsilon) {
		t.Errorf("similarity = %v, want 1", sim)
	}
}

func TestNorm(t *testing.T) {
	if got := Norm([]float32{3, 4}); !approxEqual(got, 5, epsilon) {
		t.Errorf("Norm() = %v, want 5", got)
	}
	if got := Norm(nil); got != 0 {
		t.Errorf("Norm(nil) = %v, want 0", got)
	}
}

func TestDot(t *testing.T) {
	if got := Dot([]float32{1, 2, 3}, []float32{4, 5, 6}); !approxEqual(got, 32, epsilon) {
		t.Errorf("Dot() = %v, want 32", got)
	}
	if got := Dot([]float32{1}, []float32{1, 2}); got != 0 {
		t.Errorf("Dot() mismatched lengths = %v, want 0", got)
	}
}

func TestNormalizeInPlace(t *testing.T) {
	v := []float32{3, 4}
	NormalizeInPlace(v)
	if !approxEqual(v[0], 0.6, epsilon) || !approxEqual(v[1], 0.8, epsilon) {
		t.Errorf("NormalizeInPlace() = %v, want [0.6 0.8]", v)
	}

	zero := []float32{0, 0, 0}
	NormalizeInPlace(zero)
	for _, x := range zero {
		if x != 0 {
			t.Errorf("zero vector changed by NormalizeInPlace: %v", zero)
		}
	}
}

func TestMeanInto(t *testing.T) {
	vectors := [][]float32{
		{1, 0},
		{3, 2},
		{0, 1},
	}
	dst := make([]float32, 2)
	MeanInto(dst, vectors, []int{0, 1})
	if !approxEqual(dst[0], 2, epsilon) || !approxEqual(dst[1], 1, epsilon) {
		t.Errorf("MeanInto() = %v, want [2 1]", dst)
	}

	MeanInto(dst, vectors, []int{2})
	if !approxEqual(dst[0], 0, epsilon) || !approxEqual(dst[1], 1, epsilon) {
		t.Errorf("MeanInto() single row = %v, want [0 1]", dst)
	}
}

func TestInfo(t *testing.T) {
	info := Info()
	if info.Arch == "" {
		t.Error("expected a non-empty arch")
	}
}
