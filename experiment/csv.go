package experiment

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	StatsHeader = "min, mean, std, time(s)"
	MSEHeader   = "avg_mse, mse, time(s)"
)

// OutputPath returns the result file for a plan inside dir, e.g.
// result_30.csv or canonical_stats_2.csv.
func OutputPath(dir string, rule RuleKind, report ReportKind, dim int) string {
	name := "result"
	if rule == Canonical {
		name = "canonical"
	}
	if report == Stats {
		name += "_stats"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%d.csv", name, dim))
}

func formatFloat(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }

// Row returns the CSV fields of res for the given report kind.  A failed
// task yields NaN values and a zero time so that later rows keep their
// catalog positions.
func (res Result) Row(report ReportKind) []string {
	if res.Failed {
		nan := formatFloat(math.NaN())
		if report == Stats {
			return []string{nan, nan, nan, "0.0000"}
		}
		return []string{nan, nan, "0.0000"}
	}
	if report == Stats {
		return []string{
			formatFloat(res.Stats.Min),
			formatFloat(res.Stats.Mean),
			formatFloat(res.Stats.StdDev),
			fmt.Sprintf("%.4f", res.Stats.Elapsed.Seconds()),
		}
	}
	return []string{
		formatFloat(res.MSE.Avg),
		formatFloat(res.MSE.Best),
		fmt.Sprintf("%.4f", res.MSE.Elapsed.Seconds()),
	}
}

// WriteCSV writes the header for report followed by one row per result.
// Fields are separated by a comma and a space.
func WriteCSV(w io.Writer, report ReportKind, results []Result) error {
	bw := bufio.NewWriter(w)
	header := MSEHeader
	if report == Stats {
		header = StatsHeader
	}
	if _, err := fmt.Fprintln(bw, header); err != nil {
		return err
	}
	for _, res := range results {
		if _, err := fmt.Fprintln(bw, strings.Join(res.Row(report), ", ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Save writes results to path, creating its directory if needed.  Every
// failure wraps ErrPersistence.
func Save(path string, report ReportKind, results []Result) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrPersistence, cerr)
		}
	}()
	if err := WriteCSV(f, report, results); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrPersistence, path, err)
	}
	return nil
}
