package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/axiomhq/mrl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var goldenStream = []int64{4, 1, 4, 5, 7, 4, 5, 7, 8, 2, 1, 1, 3, 2}

// permutation returns i*step mod n for i in [0, n); step is coprime to n.
func permutation(n, step int64) []int64 {
	values := make([]int64, n)
	for i := range values {
		values[i] = int64(i) * step % n
	}
	return values
}

func TestExact(t *testing.T) {
	assert := assert.New(t)
	exact := NewExact(goldenStream)

	assert.Equal(int64(14), exact.Len())
	assert.Equal(int64(6), exact.Rank(4))
	assert.Equal(int64(9), exact.Position(4))
	assert.Equal(int64(0), exact.Rank(1))
	assert.Equal(int64(3), exact.Position(1))
	assert.Equal(int64(14), exact.Rank(100))
	assert.Equal(int64(1), exact.Quantile(0.2))
	assert.Equal(int64(8), exact.Quantile(1))
	assert.Equal(int64(1), exact.Quantile(-1))

	// NewExact must not reorder its input.
	assert.Equal(int64(4), goldenStream[0])
	assert.Zero(NewExact(nil).Quantile(0.5))
}

func TestRun(t *testing.T) {
	values := permutation(10000, 7919)
	report, err := Run(values, Config{Epsilon: 0.05, Times: 500, Seed: 3, Tag: "perm"}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "perm", report.Tag)
	assert.Equal(t, int64(10000), report.N)
	assert.Equal(t, int64(181), report.K)
	assert.Equal(t, int64(6), report.Levels)
	assert.Equal(t, 500, report.Times)
	assert.True(t, report.MeanRankErr <= 0.05, "mean rank error %v", report.MeanRankErr)
	assert.True(t, report.MaxRankErr <= 0.05, "max rank error %v", report.MaxRankErr)
	assert.True(t, report.P50RankErr <= report.P99RankErr)
	assert.True(t, report.P99RankErr <= report.MaxRankErr)
	assert.Empty(t, report.Baselines)

	require.Len(t, report.Deciles, 10)
	assert.Equal(t, 0.5, report.Deciles[4].Q)
	assert.Equal(t, int64(4918), report.Deciles[4].Value)
	assert.InDelta(t, 0.0081, report.Deciles[4].Err, 1e-9)
	assert.Equal(t, int64(9849), report.Deciles[9].Value)
	for _, d := range report.Deciles {
		assert.True(t, d.Err <= 0.05, "decile %v error %v", d.Q, d.Err)
	}
}

func TestRunIsReproducible(t *testing.T) {
	values := permutation(2000, 7)
	cfg := Config{Epsilon: 0.1, Times: 100, Seed: 11}
	a, err := Run(values, cfg, zap.NewNop())
	require.NoError(t, err)
	b, err := Run(values, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunBaselines(t *testing.T) {
	values := permutation(10000, 7919)
	report, err := Run(values, Config{Epsilon: 0.05, Times: 10, Seed: 1, Baselines: true}, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, report.Baselines, len(BaselineNames))
	for i, b := range report.Baselines {
		assert.Equal(t, BaselineNames[i], b.Name)
		assert.Len(t, b.Deciles, 10)
		assert.True(t, b.MeanErr <= 0.1, "%s mean error %v", b.Name, b.MeanErr)
		assert.True(t, b.MeanErr <= b.MaxErr)
	}
}

func TestRunFailures(t *testing.T) {
	_, err := Run(nil, Config{Epsilon: 0.1}, zap.NewNop())
	assert.Error(t, err)
	_, err = Run(goldenStream, Config{Epsilon: 1.5}, zap.NewNop())
	assert.Error(t, err)
}

func TestOutputs(t *testing.T) {
	dir := t.TempDir()
	report, err := Run(goldenStream, Config{Epsilon: 0.8, Times: 20, Seed: 1, Tag: "golden", Baselines: true}, zap.NewNop())
	require.NoError(t, err)

	rankLog := filepath.Join(dir, "rankerrs.csv")
	require.NoError(t, AppendRankLog(rankLog, report))
	require.NoError(t, AppendRankLog(rankLog, report))
	data, err := os.ReadFile(rankLog)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "golden,0.8,"))

	path, err := WriteQuantileErrors(dir, report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "0.80_golden.csv"), path)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, "quantile,error", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0.1,"))
	assert.True(t, strings.HasPrefix(lines[10], "1,"))

	data, err = os.ReadFile(filepath.Join(dir, "0.80_golden_baselines.csv"))
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 1+10*(1+len(BaselineNames)))
}

func TestSQLiteRecorder(t *testing.T) {
	ctx := context.Background()
	rec, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer rec.Close()

	report, err := Run(goldenStream, Config{Epsilon: 0.8, Times: 20, Seed: 1, Tag: "golden"}, zap.NewNop())
	require.NoError(t, err)

	first, err := rec.Record(ctx, report)
	require.NoError(t, err)
	second, err := rec.Record(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, first+1, second)

	means, err := rec.MeanRankErrors(ctx, "golden")
	require.NoError(t, err)
	assert.Equal(t, []float64{report.MeanRankErr, report.MeanRankErr}, means)

	var count int
	require.NoError(t, rec.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mrl_quantile_errors WHERE run_id = ?`, second).Scan(&count))
	assert.Equal(t, 10, count)

	means, err = rec.MeanRankErrors(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, means)
}

func TestDecilesMatchSketch(t *testing.T) {
	s, err := mrl.New(0.8, 14)
	require.NoError(t, err)
	for _, v := range goldenStream {
		require.NoError(t, s.Insert(v))
	}
	report, err := Run(goldenStream, Config{Epsilon: 0.8}, zap.NewNop())
	require.NoError(t, err)
	for _, d := range report.Deciles {
		v, err := s.Quantile(d.Q)
		require.NoError(t, err)
		assert.Equal(t, v, d.Value, "quantile %v", d.Q)
	}
}
