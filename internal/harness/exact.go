package harness

import (
	"math"
	"sort"
)

// Exact answers rank queries from a fully sorted copy of the stream.
type Exact struct {
	sorted []int64
}

// NewExact ...
func NewExact(values []int64) *Exact {
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &Exact{sorted: sorted}
}

// Rank returns the number of values strictly less than x, which is what
// Sketch.Rank estimates.
func (e *Exact) Rank(x int64) int64 {
	return int64(sort.Search(len(e.sorted), func(i int) bool { return e.sorted[i] >= x }))
}

// Position returns the number of values less than or equal to x, the
// 1-indexed position of the last occurrence of x.
func (e *Exact) Position(x int64) int64 {
	return int64(sort.Search(len(e.sorted), func(i int) bool { return e.sorted[i] > x }))
}

// Quantile returns the value at index floor(phi*len), clamped to the
// stream.
func (e *Exact) Quantile(phi float64) int64 {
	if len(e.sorted) == 0 {
		return 0
	}
	i := int(math.Floor(phi * float64(len(e.sorted))))
	if i < 0 {
		i = 0
	} else if i >= len(e.sorted) {
		i = len(e.sorted) - 1
	}
	return e.sorted[i]
}

// Len ...
func (e *Exact) Len() int64 {
	return int64(len(e.sorted))
}
