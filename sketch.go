// Package mrl implements the Manku-Rajagopalan-Lindsay (MRL) quantile
// sketch over a stream of signed integers.
//
// The sketch keeps L+1 levels of k slots each. Values enter level 0;
// whenever a level fills up it is sorted and every other value (those at
// even positions) is promoted to the next level, after which the level
// is cleared. A value retained at level j stands for 2^j stream values,
// which is how rank and select queries weigh it.
package mrl

import (
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxSlotsPerLevel = 1 << 31

// Sketch is an MRL quantile sketch. It is not safe for concurrent use.
type Sketch struct {
	eps     float64
	n       int64
	k       int64
	levels  int64
	buffers []*levelBuffer
	count   int64

	trace           io.Writer
	traceCompressed bool
	traceErr        error
}

// Option configures a Sketch.
type Option func(*Sketch)

// WithTrace makes every Insert write the inserted value followed by a
// dump of all levels to w. A failing w never fails an insert: tracing
// stops at the first write error, which TraceErr reports.
func WithTrace(w io.Writer) Option {
	return func(s *Sketch) {
		s.trace = w
	}
}

// WithCompressedTrace elides the middle levels in trace dumps.
func WithCompressedTrace() Option {
	return func(s *Sketch) {
		s.traceCompressed = true
	}
}

// New returns a sketch with relative rank error eps sized for a stream
// of n values.
func New(eps float64, n int64, opts ...Option) (*Sketch, error) {
	k, levels, err := getSketchSpecs(eps, n)
	if err != nil {
		return nil, err
	}

	buffers := make([]*levelBuffer, levels+1)
	for j := range buffers {
		if buffers[j], err = newLevelBuffer(k); err != nil {
			return nil, err
		}
	}

	s := &Sketch{
		eps:     eps,
		n:       n,
		k:       k,
		levels:  levels,
		buffers: buffers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Insert adds value to the sketch, compacting full levels upward.
//
// If the compaction cascade would need a level above L, Insert returns
// an *OverflowError and leaves the sketch untouched.
func (s *Sketch) Insert(value int64) error {
	if s.overflows() {
		return &OverflowError{Epsilon: s.eps, N: s.n, Levels: s.levels, Value: value}
	}

	carry := []int64{value}
	for level := 0; len(carry) > 0; level++ {
		// Unreachable after the overflow check above.
		if int64(level) > s.levels {
			return &OverflowError{Epsilon: s.eps, N: s.n, Levels: s.levels, Value: value}
		}

		buf := s.buffers[level]
		var promoted []int64
		for _, v := range carry {
			if err := buf.push(v); err != nil {
				return errors.Wrapf(err, "level %d", level)
			}
			if buf.isFull() {
				promoted = append(promoted, buf.compact()...)
			}
		}
		carry = promoted
	}
	s.count++

	if s.trace != nil && s.traceErr == nil {
		s.traceErr = s.writeTrace(value)
	}
	return nil
}

func (s *Sketch) writeTrace(value int64) error {
	if _, err := fmt.Fprintf(s.trace, "Inserting: %d\n", value); err != nil {
		return errors.Wrapf(err, "trace insert of %d", value)
	}
	return errors.Wrapf(s.Fprint(s.trace, s.traceCompressed), "trace insert of %d", value)
}

// TraceErr returns the write error that stopped tracing, or nil.
func (s *Sketch) TraceErr() error {
	return s.traceErr
}

// overflows reports whether one more insert would promote values past
// the top level. A level receiving at most ceil(k/2) values can compact
// at most once per insert, so following the arrival counts up the
// levels is exact.
func (s *Sketch) overflows() bool {
	half := (s.k + 1) / 2
	arrivals := int64(1)
	for _, buf := range s.buffers {
		arrivals = (int64(buf.size()) + arrivals) / s.k * half
		if arrivals == 0 {
			return false
		}
	}
	return true
}

// Rank returns the approximate number of inserted values strictly less
// than x.
func (s *Sketch) Rank(x int64) int64 {
	var ans int64
	for j, buf := range s.buffers {
		weight := int64(1) << uint(j)
		for _, z := range buf.slots[:buf.size()] {
			if z < x {
				ans += weight
			}
		}
	}
	return ans
}

// Select returns the value at approximate weighted position r (1-indexed)
// of the stream in sorted order. Any r <= 0 selects the smallest
// retained value. It returns ErrEmpty if nothing has been inserted and
// ErrRankOutOfRange if r exceeds TotalWeight().
func (s *Sketch) Select(r int64) (int64, error) {
	return s.Summary().Select(r)
}

// Quantile returns Select(floor(phi * n)). phi is not range checked:
// phi <= 0 selects the minimum and a phi past the retained weight
// returns ErrRankOutOfRange. NaN is rejected.
func (s *Sketch) Quantile(phi float64) (int64, error) {
	if math.IsNaN(phi) {
		return 0, errors.New("mrl: quantile of NaN")
	}
	return s.Select(s.quantileRank(phi))
}

// Quantiles returns the m+1 evenly spaced quantiles 0, 1/m, ..., 1.
func (s *Sketch) Quantiles(m int64) ([]int64, error) {
	if m < 1 {
		m = 1
	}
	ranks := make([]int64, m+1)
	for i := range ranks {
		ranks[i] = s.quantileRank(float64(i) / float64(m))
	}
	return s.Summary().SelectAll(ranks)
}

// quantileRank saturates instead of relying on the platform's
// float-to-int conversion for out of range values.
func (s *Sketch) quantileRank(phi float64) int64 {
	r := math.Floor(phi * float64(s.n))
	switch {
	case r >= math.MaxInt64:
		return math.MaxInt64
	case r <= math.MinInt64:
		return math.MinInt64
	}
	return int64(r)
}

// Summary returns the sorted, weighted view of all retained values.
func (s *Sketch) Summary() *Summary {
	wvs := make([]weightedValue, 0, s.Retained())
	for j, buf := range s.buffers {
		weight := int64(1) << uint(j)
		for _, z := range buf.slots[:buf.size()] {
			wvs = append(wvs, weightedValue{value: z, weight: weight})
		}
	}
	sum := &Summary{}
	sum.buildFromWeightedValues(wvs)
	return sum
}

// TotalWeight returns the sum of 2^j over every occupied slot at every
// level j. It equals Count() whenever k is even; with an odd k each
// compaction at level j keeps (k+1)/2 values and adds 2^j of weight.
func (s *Sketch) TotalWeight() int64 {
	var total int64
	for j, buf := range s.buffers {
		total += int64(buf.size()) << uint(j)
	}
	return total
}

// Retained returns the number of occupied slots across all levels.
func (s *Sketch) Retained() int {
	var retained int
	for _, buf := range s.buffers {
		retained += buf.size()
	}
	return retained
}

// Level returns a copy of the occupied slots of level j in slot order,
// or nil if j is not a level of the sketch.
func (s *Sketch) Level(j int) []int64 {
	if j < 0 || j >= len(s.buffers) {
		return nil
	}
	return s.buffers[j].values()
}

// Count returns the number of values inserted so far.
func (s *Sketch) Count() int64 {
	return s.count
}

// K returns the number of slots per level.
func (s *Sketch) K() int64 {
	return s.k
}

// Levels returns L, the index of the top level.
func (s *Sketch) Levels() int64 {
	return s.levels
}

// Epsilon ...
func (s *Sketch) Epsilon() float64 {
	return s.eps
}

// N returns the declared stream size.
func (s *Sketch) N() int64 {
	return s.n
}

// Capacity returns the largest number of values an empty sketch with
// the same k and L accepts before Insert reports an overflow.
func (s *Sketch) Capacity() int64 {
	return capacity(s.k, s.levels)
}

// capacity works down from the top level: level L may hold at most k-1
// arrivals, which bounds how often level L-1 may compact, which bounds
// the arrivals at level L-1, and so on. Arrivals at any level above 0
// come in groups of ceil(k/2).
func capacity(k, levels int64) int64 {
	half := (k + 1) / 2
	arrivals := k - 1
	for j := levels - 1; j >= 0; j-- {
		compactions := arrivals / half
		if compactions >= math.MaxInt64/k-1 {
			return math.MaxInt64
		}
		arrivals = k*(compactions+1) - 1
		if j >= 1 {
			arrivals = arrivals / half * half
		}
	}
	return arrivals
}

// getSketchSpecs derives the slot count k and the top level L.
//
// k = floor((1/eps) * ceil(log2(eps*n))) + 1, with the logarithm clamped
// to at least 1, and L = ceil(log2(n/k)). For some (eps, n) that L
// leaves room for slightly fewer than n values, so L is raised until
// the sketch can absorb n values without overflowing.
func getSketchSpecs(eps float64, n int64) (int64, int64, error) {
	if math.IsNaN(eps) || eps <= 0 || eps >= 1 {
		return 0, 0, errors.Errorf("eps should be element of (0, 1), got %v", eps)
	}
	if n <= 0 {
		return 0, 0, errors.Errorf("n should be > 0, got %v", n)
	}

	depth := math.Ceil(math.Log2(eps * float64(n)))
	if depth < 1 {
		depth = 1
	}
	slots := (1/eps)*depth + 1
	if slots > maxSlotsPerLevel {
		return 0, 0, errors.Errorf("eps %v needs %.0f slots per level, more than %d", eps, slots, maxSlotsPerLevel)
	}
	k := int64(slots)

	var levels int64
	if ratio := float64(n) / float64(k); ratio > 1 {
		levels = int64(math.Ceil(math.Log2(ratio)))
	}
	for capacity(k, levels) < n {
		levels++
	}
	return k, levels, nil
}
