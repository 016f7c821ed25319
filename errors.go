package mrl

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrOverflow is matched by every *OverflowError.
	ErrOverflow = errors.New("mrl: sketch overflow")
	// ErrEmpty is returned by queries that need at least one value.
	ErrEmpty = errors.New("mrl: sketch is empty")
	// ErrRankOutOfRange is returned by Select when the requested rank
	// exceeds the total weight retained by the sketch.
	ErrRankOutOfRange = errors.New("mrl: rank exceeds total weight")
)

// OverflowError reports an insert that would have promoted values past
// the top level. The sketch is left exactly as it was before the insert.
type OverflowError struct {
	Epsilon float64
	N       int64
	Levels  int64
	Value   int64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("mrl: epsilon value (%v) is too high for input stream size n=%d: "+
		"inserting %d would overflow beyond maximum level L=%d",
		e.Epsilon, e.N, e.Value, e.Levels)
}

// Is makes errors.Is(err, ErrOverflow) hold.
func (e *OverflowError) Is(target error) bool {
	return target == ErrOverflow
}
