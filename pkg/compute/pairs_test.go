package compute

import "testing"

func TestPairCount(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 3},
		{4, 6},
		{10, 45},
	}
	for _, tt := range tests {
		if got := PairCount(tt.n); got != tt.want {
			t.Errorf("PairCount(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

// TestPairAtBijection checks that the linear index enumeration visits every
// unordered pair exactly once, in row-major triangular order.
func TestPairAtBijection(t *testing.T) {
	for _, n := range []int{2, 3, 4, 7, 25} {
		p := 0
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				gi, gj := PairAt(p, n)
				if gi != i || gj != j {
					t.Fatalf("PairAt(%d, %d) = (%d, %d), want (%d, %d)", p, n, gi, gj, i, j)
				}
				p++
			}
		}
		if p != PairCount(n) {
			t.Fatalf("enumerated %d pairs for n=%d, want %d", p, n, PairCount(n))
		}
	}
}

func TestPairAtInvariant(t *testing.T) {
	n := 12
	for p := 0; p < PairCount(n); p++ {
		i, j := PairAt(p, n)
		if i < 0 || j <= i || j >= n {
			t.Fatalf("PairAt(%d, %d) = (%d, %d) violates 0 <= i < j < n", p, n, i, j)
		}
	}
}
