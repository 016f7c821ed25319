package harness

import (
	"math"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/beorn7/perks/quantile"
	"github.com/pkg/errors"
	"github.com/stripe/veneur/tdigest"
)

// baseline is another quantile estimator run over the same stream so its
// decile errors can be compared with the sketch's.
type baseline interface {
	Name() string
	Insert(v int64) error
	Quantile(q float64) (float64, error)
}

// BaselineNames lists the estimators newBaselines builds.
var BaselineNames = []string{"perks", "tdigest", "ddsketch"}

func newBaselines(eps float64) ([]baseline, error) {
	dd, err := ddsketch.NewDefaultDDSketch(eps)
	if err != nil {
		return nil, errors.Wrap(err, "ddsketch")
	}
	return []baseline{
		newPerksBaseline(eps),
		&tdigestBaseline{td: tdigest.NewMerging(100, false)},
		&ddsketchBaseline{dd: dd},
	}, nil
}

// perksBaseline targets every decile with the sketch's epsilon.
type perksBaseline struct {
	stream *quantile.Stream
}

func newPerksBaseline(eps float64) *perksBaseline {
	targets := make(map[float64]float64, len(deciles))
	for _, q := range deciles {
		targets[q] = eps * math.Min(q, 1-q)
		if targets[q] == 0 {
			targets[q] = eps / 10
		}
	}
	return &perksBaseline{stream: quantile.NewTargeted(targets)}
}

func (b *perksBaseline) Name() string { return "perks" }

func (b *perksBaseline) Insert(v int64) error {
	b.stream.Insert(float64(v))
	return nil
}

func (b *perksBaseline) Quantile(q float64) (float64, error) {
	if b.stream.Count() == 0 {
		return 0, errors.New("perks: no samples")
	}
	return b.stream.Query(q), nil
}

type tdigestBaseline struct {
	td    *tdigest.MergingDigest
	count int64
}

func (b *tdigestBaseline) Name() string { return "tdigest" }

func (b *tdigestBaseline) Insert(v int64) error {
	b.td.Add(float64(v), 1)
	b.count++
	return nil
}

func (b *tdigestBaseline) Quantile(q float64) (float64, error) {
	if b.count == 0 {
		return 0, errors.New("tdigest: no samples")
	}
	return b.td.Quantile(q), nil
}

type ddsketchBaseline struct {
	dd *ddsketch.DDSketch
}

func (b *ddsketchBaseline) Name() string { return "ddsketch" }

func (b *ddsketchBaseline) Insert(v int64) error {
	return b.dd.Add(float64(v))
}

func (b *ddsketchBaseline) Quantile(q float64) (float64, error) {
	return b.dd.GetValueAtQuantile(q)
}
