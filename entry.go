package mrl

// SumEntry is one distinct retained value together with the total
// weight it carries. MinRank is the weight of all smaller values and
// MaxRank = MinRank + Weight.
type SumEntry struct {
	Value   int64
	Weight  int64
	MinRank int64
	MaxRank int64
}

// weightedValue is a retained slot paired with the weight 2^level of
// the level it sits in.
type weightedValue struct {
	value  int64
	weight int64
}
