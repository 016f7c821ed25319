package harness

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder keeps every harness run in a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and makes sure the
// run tables exist.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite db %q", path)
	}
	rec := &SQLiteRecorder{db: db}
	if err := rec.ensureTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return rec, nil
}

func (rec *SQLiteRecorder) ensureTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS mrl_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tag TEXT NOT NULL,
			epsilon REAL NOT NULL,
			n INTEGER NOT NULL,
			k INTEGER NOT NULL,
			levels INTEGER NOT NULL,
			retained INTEGER NOT NULL,
			times INTEGER NOT NULL,
			mean_rank_error REAL NOT NULL,
			stddev_rank_error REAL NOT NULL,
			p50_rank_error REAL NOT NULL,
			p99_rank_error REAL NOT NULL,
			max_rank_error REAL NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS mrl_quantile_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES mrl_runs(id),
			estimator TEXT NOT NULL,
			quantile REAL NOT NULL,
			value INTEGER NOT NULL,
			error REAL NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := rec.db.ExecContext(ctx, s); err != nil {
			return errors.Wrap(err, "create tables")
		}
	}
	return nil
}

// Record stores r and its decile errors in one transaction and returns
// the run id.
func (rec *SQLiteRecorder) Record(ctx context.Context, r *Report) (int64, error) {
	tx, err := rec.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO mrl_runs(tag, epsilon, n, k, levels, retained, times,
		mean_rank_error, stddev_rank_error, p50_rank_error, p99_rank_error, max_rank_error)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.Tag, r.Epsilon, r.N, r.K, r.Levels, r.Retained, r.Times,
		r.MeanRankErr, r.StdDevErr, r.P50RankErr, r.P99RankErr, r.MaxRankErr)
	if err != nil {
		return 0, errors.Wrap(err, "insert run")
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "run id")
	}

	insert := func(estimator string, qes []QuantileError) error {
		for _, qe := range qes {
			if _, err := tx.ExecContext(ctx, `INSERT INTO mrl_quantile_errors(run_id, estimator, quantile, value, error)
				VALUES(?,?,?,?,?)`, runID, estimator, qe.Q, qe.Value, qe.Err); err != nil {
				return errors.Wrapf(err, "insert %s quantile error", estimator)
			}
		}
		return nil
	}
	if err := insert("mrl", r.Deciles); err != nil {
		return 0, err
	}
	for _, b := range r.Baselines {
		if err := insert(b.Name, b.Deciles); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	return runID, nil
}

// MeanRankErrors returns the mean rank error of every recorded run of
// tag, oldest first.
func (rec *SQLiteRecorder) MeanRankErrors(ctx context.Context, tag string) ([]float64, error) {
	rows, err := rec.db.QueryContext(ctx, `SELECT mean_rank_error FROM mrl_runs WHERE tag = ? ORDER BY id`, tag)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Close ...
func (rec *SQLiteRecorder) Close() error {
	return rec.db.Close()
}
