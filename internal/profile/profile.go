// Package profile computes dataset summaries: schema overview, numeric
// statistics, missingness, and pairwise correlations. Every report is itself
// a Table so the render pipeline handles it like any query result.
package profile

import (
	"errors"
	"math"

	"github.com/tabq-io/tabq/internal/table"
)

// ErrNoNumericPairs is returned by Correlations when the dataset has fewer
// than two numeric columns.
var ErrNoNumericPairs = errors.New("need at least two numeric columns for correlation")

// Schema reports each column's name, type, and null counts.
func Schema(t *table.Table) *table.Table {
	cols := []table.Column{
		{Name: "column", Type: table.TypeText},
		{Name: "type", Type: table.TypeText},
		{Name: "non_null", Type: table.TypeNumeric},
		{Name: "nulls", Type: table.TypeNumeric},
	}
	rows := make([][]any, t.NumColumns())
	for i := 0; i < t.NumColumns(); i++ {
		c := t.Column(i)
		nulls := 0
		for row := 0; row < t.NumRows(); row++ {
			if t.Value(row, i) == nil {
				nulls++
			}
		}
		rows[i] = []any{c.Name, c.Type.String(), float64(t.NumRows() - nulls), float64(nulls)}
	}
	out, _ := table.New(t.Name(), cols, rows)
	return out
}

// Stats reports count, mean, min, max, and standard deviation for each
// numeric column. Nulls are skipped.
func Stats(t *table.Table) *table.Table {
	cols := []table.Column{
		{Name: "column", Type: table.TypeText},
		{Name: "count", Type: table.TypeNumeric},
		{Name: "mean", Type: table.TypeNumeric},
		{Name: "min", Type: table.TypeNumeric},
		{Name: "max", Type: table.TypeNumeric},
		{Name: "stddev", Type: table.TypeNumeric},
	}
	var rows [][]any
	for i := 0; i < t.NumColumns(); i++ {
		c := t.Column(i)
		if c.Type != table.TypeNumeric {
			continue
		}
		values := numericColumn(t, i)
		if len(values) == 0 {
			rows = append(rows, []any{c.Name, float64(0), nil, nil, nil, nil})
			continue
		}
		mean := meanOf(values)
		lo, hi := values[0], values[0]
		for _, v := range values[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		rows = append(rows, []any{c.Name, float64(len(values)), mean, lo, hi, stddevOf(values, mean)})
	}
	out, _ := table.New(t.Name(), cols, rows)
	return out
}

// Missingness reports per-column null counts and percentages.
func Missingness(t *table.Table) *table.Table {
	cols := []table.Column{
		{Name: "column", Type: table.TypeText},
		{Name: "missing", Type: table.TypeNumeric},
		{Name: "missing_pct", Type: table.TypeNumeric},
	}
	rows := make([][]any, t.NumColumns())
	for i := 0; i < t.NumColumns(); i++ {
		missing := 0
		for row := 0; row < t.NumRows(); row++ {
			if t.Value(row, i) == nil {
				missing++
			}
		}
		pct := 0.0
		if t.NumRows() > 0 {
			pct = 100 * float64(missing) / float64(t.NumRows())
		}
		rows[i] = []any{t.Column(i).Name, float64(missing), pct}
	}
	out, _ := table.New(t.Name(), cols, rows)
	return out
}

// Correlations reports the Pearson correlation for every pair of numeric
// columns. Rows where either value is null are dropped pairwise.
func Correlations(t *table.Table) (*table.Table, error) {
	var numeric []int
	for i := 0; i < t.NumColumns(); i++ {
		if t.Column(i).Type == table.TypeNumeric {
			numeric = append(numeric, i)
		}
	}
	if len(numeric) < 2 {
		return nil, ErrNoNumericPairs
	}

	cols := []table.Column{
		{Name: "column_a", Type: table.TypeText},
		{Name: "column_b", Type: table.TypeText},
		{Name: "correlation", Type: table.TypeNumeric},
	}
	var rows [][]any
	for a := 0; a < len(numeric); a++ {
		for b := a + 1; b < len(numeric); b++ {
			r, ok := pearson(t, numeric[a], numeric[b])
			var cell any
			if ok {
				cell = r
			}
			rows = append(rows, []any{t.Column(numeric[a]).Name, t.Column(numeric[b]).Name, cell})
		}
	}
	return table.New(t.Name(), cols, rows)
}

func numericColumn(t *table.Table, col int) []float64 {
	var values []float64
	for row := 0; row < t.NumRows(); row++ {
		if v, ok := t.Value(row, col).(float64); ok {
			values = append(values, v)
		}
	}
	return values
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddevOf computes the sample standard deviation.
func stddevOf(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// pearson computes the correlation between two columns over rows where both
// are non-null. ok is false when fewer than two such rows exist or a column
// is constant.
func pearson(t *table.Table, a, b int) (float64, bool) {
	var xs, ys []float64
	for row := 0; row < t.NumRows(); row++ {
		x, okX := t.Value(row, a).(float64)
		y, okY := t.Value(row, b).(float64)
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return 0, false
	}
	mx, my := meanOf(xs), meanOf(ys)
	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	return cov / math.Sqrt(vx*vy), true
}
