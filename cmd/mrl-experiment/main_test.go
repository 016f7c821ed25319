package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/axiomhq/mrl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Epsilon:     0.05,
		N:           5000,
		Generate:    "uniform",
		Seed:        1,
		Times:       200,
		Tag:         "uniform",
		RankLog:     filepath.Join(dir, "rankerrs.csv"),
		QuantileDir: dir,
		DB:          filepath.Join(dir, "runs.db"),
		Baselines:   true,
	}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out, zap.NewNop()))

	assert.Contains(t, out.String(), "Size: 5000, epsilon: 0.05")
	assert.Contains(t, out.String(), "quantile  mrl")
	assert.Contains(t, out.String(), filepath.Join(dir, "0.05_uniform.csv"))
	for _, name := range []string{"rankerrs.csv", "0.05_uniform.csv", "0.05_uniform_baselines.csv", "runs.db"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestRunMissingInput(t *testing.T) {
	cfg := &config.Config{Epsilon: 0.05, InputPath: filepath.Join(t.TempDir(), "missing.txt")}
	assert.Error(t, run(context.Background(), cfg, &bytes.Buffer{}, zap.NewNop()))
}
