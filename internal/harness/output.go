package harness

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// AppendRankLog appends the row "tag,epsilon,meanErr" to the csv file at
// path, creating it if needed. The file has no header.
func AppendRankLog(path string, r *Report) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open rank log %q", path)
	}
	w := csv.NewWriter(f)
	w.Write([]string{r.Tag, formatFloat(r.Epsilon), formatFloat(r.MeanRankErr)})
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return errors.Wrapf(err, "write rank log %q", path)
	}
	return f.Close()
}

// QuantileFileName returns "<eps>_<tag>.csv" with epsilon printed to two
// decimals.
func QuantileFileName(r *Report) string {
	return fmt.Sprintf("%.2f_%s.csv", r.Epsilon, r.Tag)
}

// WriteQuantileErrors writes the decile errors of r to a fresh file in
// dir and returns its path. Baseline errors, if any, go to a second file
// with a "_baselines" suffix.
func WriteQuantileErrors(dir string, r *Report) (string, error) {
	path := filepath.Join(dir, QuantileFileName(r))
	rows := [][]string{{"quantile", "error"}}
	for _, d := range r.Deciles {
		rows = append(rows, []string{formatFloat(d.Q), formatFloat(d.Err)})
	}
	if err := writeCSV(path, rows); err != nil {
		return "", err
	}

	if len(r.Baselines) > 0 {
		rows = [][]string{{"estimator", "quantile", "error"}}
		for _, d := range r.Deciles {
			rows = append(rows, []string{"mrl", formatFloat(d.Q), formatFloat(d.Err)})
		}
		for _, b := range r.Baselines {
			for _, d := range b.Deciles {
				rows = append(rows, []string{b.Name, formatFloat(d.Q), formatFloat(d.Err)})
			}
		}
		bpath := path[:len(path)-len(".csv")] + "_baselines.csv"
		if err := writeCSV(bpath, rows); err != nil {
			return "", err
		}
	}
	return path, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %q", path)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %q", path)
	}
	return f.Close()
}
