package source

import (
	"math/rand"
	"sort"

	"github.com/pkg/errors"
)

// Kinds lists the stream shapes Generate knows.
var Kinds = []string{"uniform", "normal", "sorted", "reversed", "zipf"}

// Generate returns n values of the given kind. Every kind stays within
// [0, n), so results are comparable across kinds.
func Generate(kind string, n int64, seed int64) ([]int64, error) {
	if n <= 0 {
		return nil, errors.Errorf("n should be > 0, got %d", n)
	}
	rng := rand.New(rand.NewSource(seed))
	values := make([]int64, n)

	switch kind {
	case "uniform":
		for i := range values {
			values[i] = rng.Int63n(n)
		}
	case "normal":
		mean, sd := float64(n)/2, float64(n)/8
		for i := range values {
			v := int64(rng.NormFloat64()*sd + mean)
			if v < 0 {
				v = 0
			} else if v >= n {
				v = n - 1
			}
			values[i] = v
		}
	case "sorted", "reversed":
		for i := range values {
			values[i] = int64(i)
		}
		if kind == "reversed" {
			sort.Slice(values, func(i, j int) bool { return values[i] > values[j] })
		}
	case "zipf":
		if n == 1 {
			break
		}
		z := rand.NewZipf(rng, 1.2, 1, uint64(n-1))
		for i := range values {
			values[i] = int64(z.Uint64())
		}
	default:
		return nil, errors.Errorf("unknown stream kind %q, want one of %v", kind, Kinds)
	}
	return values, nil
}
