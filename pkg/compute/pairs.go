package compute

// Canonical triangular pair enumeration.
//
// All-pairs work over n rows is laid out in row-major triangular order: for
// each i from 0 to n-2, for each j from i+1 to n-1. This gives a bijection
// between a linear pair index p in [0, n(n-1)/2) and the pair (i, j), which
// lets a parallel unit assigned one p recover its (i, j) without any shared
// state, and guarantees every unit writes a distinct output slot.

// PairCount returns the number of unordered pairs over n rows: n(n-1)/2.
func PairCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// PairAt maps a linear pair index p to its (i, j) row pair, i < j. It
// decrements p by successive row widths (n-1), (n-2), ... until p fits in
// the current row.
func PairAt(p, n int) (i, j int) {
	width := n - 1
	for p >= width {
		p -= width
		width--
		i++
	}
	return i, i + p + 1
}
