package mrl

import (
	"sort"

	"github.com/pkg/errors"
)

// Summary is a sorted, weighted view of every value retained by a
// Sketch. Equal values are folded into a single entry, which does not
// change the answer of any rank or select query.
type Summary struct {
	entries []SumEntry
}

// buildFromWeightedValues sorts wvs by value and accumulates ranks.
// The sort is stable, so equal values keep level-then-slot order.
func (sum *Summary) buildFromWeightedValues(wvs []weightedValue) {
	sort.SliceStable(wvs, func(i, j int) bool { return wvs[i].value < wvs[j].value })

	sum.entries = make([]SumEntry, 0, len(wvs))
	var cumWeight int64
	for _, wv := range wvs {
		if last := len(sum.entries) - 1; last >= 0 && sum.entries[last].Value == wv.value {
			sum.entries[last].Weight += wv.weight
			sum.entries[last].MaxRank += wv.weight
		} else {
			sum.entries = append(sum.entries, SumEntry{
				Value:   wv.value,
				Weight:  wv.weight,
				MinRank: cumWeight,
				MaxRank: cumWeight + wv.weight,
			})
		}
		cumWeight += wv.weight
	}
}

// Select returns the first value, in ascending order, at which the
// running weight reaches r. A rank of zero or less selects the minimum.
func (sum *Summary) Select(r int64) (int64, error) {
	if len(sum.entries) == 0 {
		return 0, ErrEmpty
	}
	if r <= 0 {
		return sum.entries[0].Value, nil
	}
	i := sort.Search(len(sum.entries), func(i int) bool { return sum.entries[i].MaxRank >= r })
	if i == len(sum.entries) {
		return 0, errors.Wrapf(ErrRankOutOfRange, "select(%d) with total weight %d", r, sum.TotalWeight())
	}
	return sum.entries[i].Value, nil
}

// SelectAll answers Select for every rank in ranks. The ranks must be
// in ascending order; they are resolved in a single pass over the
// entries instead of one search per rank.
func (sum *Summary) SelectAll(ranks []int64) ([]int64, error) {
	if len(sum.entries) == 0 {
		return nil, ErrEmpty
	}
	output := make([]int64, 0, len(ranks))
	curIdx := 0
	for i, r := range ranks {
		if i > 0 && r < ranks[i-1] {
			return nil, errors.Errorf("ranks must be ascending, got %d after %d", r, ranks[i-1])
		}
		for curIdx < len(sum.entries) && sum.entries[curIdx].MaxRank < r {
			curIdx++
		}
		if curIdx == len(sum.entries) {
			return nil, errors.Wrapf(ErrRankOutOfRange, "select(%d) with total weight %d", r, sum.TotalWeight())
		}
		output = append(output, sum.entries[curIdx].Value)
	}
	return output, nil
}

// Rank returns the total weight of the entries strictly less than x.
func (sum *Summary) Rank(x int64) int64 {
	i := sort.Search(len(sum.entries), func(i int) bool { return sum.entries[i].Value >= x })
	if i == 0 {
		return 0
	}
	return sum.entries[i-1].MaxRank
}

// Entries returns a copy of the summary entries in ascending order.
func (sum *Summary) Entries() []SumEntry {
	ret := make([]SumEntry, len(sum.entries))
	copy(ret, sum.entries)
	return ret
}

// MinValue ...
func (sum *Summary) MinValue() int64 {
	if len(sum.entries) != 0 {
		return sum.entries[0].Value
	}
	return 0
}

// MaxValue ...
func (sum *Summary) MaxValue() int64 {
	if len(sum.entries) != 0 {
		return sum.entries[len(sum.entries)-1].Value
	}
	return 0
}

// TotalWeight ...
func (sum *Summary) TotalWeight() int64 {
	if len(sum.entries) != 0 {
		return sum.entries[len(sum.entries)-1].MaxRank
	}
	return 0
}

// Size returns the number of distinct values.
func (sum *Summary) Size() int64 {
	return int64(len(sum.entries))
}
