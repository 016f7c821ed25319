// Package harness measures how far the answers of an MRL sketch are from
// the exact answers over the same stream.
package harness

import (
	"math"
	"math/rand"

	"github.com/aclements/go-moremath/stats"
	"github.com/axiomhq/mrl"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// deciles are the quantiles 0.1, 0.2, ..., 1.0.
var deciles = func() []float64 {
	qs := make([]float64, 10)
	for i := range qs {
		qs[i] = float64(i+1) / 10
	}
	return qs
}()

// Config ...
type Config struct {
	Epsilon float64
	// Times is the number of stream values sampled for the rank error.
	Times     int
	Seed      int64
	Tag       string
	Baselines bool
}

// QuantileError is the decile error |Position(v)/n - q| of the value v
// an estimator returned for quantile q.
type QuantileError struct {
	Q     float64
	Value int64
	Err   float64
}

// BaselineReport holds the decile errors of one baseline estimator.
type BaselineReport struct {
	Name    string
	Deciles []QuantileError
	MeanErr float64
	MaxErr  float64
}

// Report is the outcome of one Run.
type Report struct {
	Tag      string
	Epsilon  float64
	N        int64
	K        int64
	Levels   int64
	Retained int

	Times       int
	MeanRankErr float64
	StdDevErr   float64
	P50RankErr  float64
	P99RankErr  float64
	MaxRankErr  float64

	Deciles   []QuantileError
	Baselines []BaselineReport
}

// Run builds a sketch over values and measures its rank and decile
// errors against the exact answers.
func Run(values []int64, cfg Config, logger *zap.Logger) (*Report, error) {
	n := int64(len(values))
	if n == 0 {
		return nil, errors.New("empty stream")
	}

	logger.Info("constructing MRL sketch", zap.Int64("n", n), zap.Float64("epsilon", cfg.Epsilon))
	sketch, err := mrl.New(cfg.Epsilon, n)
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		if err := sketch.Insert(v); err != nil {
			return nil, err
		}
	}
	logger.Info("MRL sketch constructed",
		zap.Int64("k", sketch.K()),
		zap.Int64("levels", sketch.Levels()),
		zap.Int("retained", sketch.Retained()))

	exact := NewExact(values)
	report := &Report{
		Tag:      cfg.Tag,
		Epsilon:  cfg.Epsilon,
		N:        n,
		K:        sketch.K(),
		Levels:   sketch.Levels(),
		Retained: sketch.Retained(),
		Times:    cfg.Times,
	}

	if cfg.Times > 0 {
		rankErrorStats(report, sketch, exact, values, cfg)
		logger.Info("mean rank error", zap.Int("times", cfg.Times), zap.Float64("error", report.MeanRankErr))
	}

	qs, err := sketch.Quantiles(int64(len(deciles)))
	if err != nil {
		return nil, errors.Wrap(err, "deciles")
	}
	for i, q := range deciles {
		v := qs[i+1]
		report.Deciles = append(report.Deciles, QuantileError{Q: q, Value: v, Err: decileError(exact, v, q)})
	}

	if cfg.Baselines {
		if report.Baselines, err = runBaselines(values, exact, cfg.Epsilon); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func rankErrorStats(report *Report, sketch *mrl.Sketch, exact *Exact, values []int64, cfg Config) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	n := float64(len(values))

	sample := stats.Sample{Xs: make([]float64, 0, cfg.Times)}
	for i := 0; i < cfg.Times; i++ {
		v := values[rng.Intn(len(values))]
		diff := sketch.Rank(v) - exact.Rank(v)
		if diff < 0 {
			diff = -diff
		}
		sample.Xs = append(sample.Xs, float64(diff)/n)
	}
	sample.Sort()

	report.MeanRankErr = sample.Mean()
	if len(sample.Xs) > 1 {
		report.StdDevErr = sample.StdDev()
	}
	report.P50RankErr = sample.Quantile(0.5)
	report.P99RankErr = sample.Quantile(0.99)
	_, report.MaxRankErr = sample.Bounds()
}

func decileError(exact *Exact, v int64, q float64) float64 {
	return math.Abs(float64(exact.Position(v))/float64(exact.Len()) - q)
}

func runBaselines(values []int64, exact *Exact, eps float64) ([]BaselineReport, error) {
	baselines, err := newBaselines(eps)
	if err != nil {
		return nil, err
	}

	reports := make([]BaselineReport, 0, len(baselines))
	for _, b := range baselines {
		for _, v := range values {
			if err := b.Insert(v); err != nil {
				return nil, errors.Wrapf(err, "%s: insert %d", b.Name(), v)
			}
		}

		br := BaselineReport{Name: b.Name()}
		errs := make([]float64, 0, len(deciles))
		for _, q := range deciles {
			est, err := b.Quantile(q)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: quantile %v", b.Name(), q)
			}
			v := int64(math.Round(est))
			qe := QuantileError{Q: q, Value: v, Err: decileError(exact, v, q)}
			br.Deciles = append(br.Deciles, qe)
			errs = append(errs, qe.Err)
		}
		br.MeanErr = stats.Mean(errs)
		_, br.MaxErr = stats.Bounds(errs)
		reports = append(reports, br)
	}
	return reports, nil
}
