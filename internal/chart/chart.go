// Package chart prepares plottable series from a dataset. It produces data,
// not pixels; rendering is left to whatever front end consumes the series.
package chart

import (
	"errors"
	"fmt"

	"github.com/tabq-io/tabq/internal/table"
)

// Kind selects the chart shape a series is prepared for.
type Kind string

const (
	KindBar     Kind = "bar"
	KindLine    Kind = "line"
	KindScatter Kind = "scatter"
)

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrNotNumeric     = errors.New("y column must be numeric")
	ErrUnknownKind    = errors.New("unknown chart kind")
)

// Point is one plotted value. X keeps the source cell type so temporal and
// categorical axes survive serialization.
type Point struct {
	X any     `json:"x"`
	Y float64 `json:"y"`
}

// Series is chart-ready data for one x/y column pair.
type Series struct {
	Kind   Kind    `json:"kind"`
	XLabel string  `json:"x_label"`
	YLabel string  `json:"y_label"`
	Points []Point `json:"points"`
}

// Build extracts a series from the table. Rows where either cell is null are
// dropped. Bar charts group by x and sum y; line and scatter keep row order.
func Build(t *table.Table, xCol, yCol string, kind Kind) (*Series, error) {
	switch kind {
	case KindBar, KindLine, KindScatter:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	xi, ok := t.ColumnIndex(xCol)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, xCol)
	}
	yi, ok := t.ColumnIndex(yCol)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, yCol)
	}
	if t.Column(yi).Type != table.TypeNumeric {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotNumeric, t.Column(yi).Name, t.Column(yi).Type)
	}

	s := &Series{Kind: kind, XLabel: t.Column(xi).Name, YLabel: t.Column(yi).Name}
	if kind == KindBar {
		s.Points = groupSum(t, xi, yi)
		return s, nil
	}
	for row := 0; row < t.NumRows(); row++ {
		x := t.Value(row, xi)
		y, ok := t.Value(row, yi).(float64)
		if x == nil || !ok {
			continue
		}
		s.Points = append(s.Points, Point{X: x, Y: y})
	}
	return s, nil
}

// groupSum buckets y by x in first-occurrence order.
func groupSum(t *table.Table, xi, yi int) []Point {
	index := make(map[string]int)
	var points []Point
	for row := 0; row < t.NumRows(); row++ {
		x := t.Value(row, xi)
		y, ok := t.Value(row, yi).(float64)
		if x == nil || !ok {
			continue
		}
		key := fmt.Sprint(x)
		if i, seen := index[key]; seen {
			points[i].Y += y
			continue
		}
		index[key] = len(points)
		points = append(points, Point{X: x, Y: y})
	}
	return points
}

// AvailableColumns lists candidate axis columns: any column can be x, only
// numeric columns can be y.
func AvailableColumns(t *table.Table) (x, y []string) {
	for i := 0; i < t.NumColumns(); i++ {
		c := t.Column(i)
		x = append(x, c.Name)
		if c.Type == table.TypeNumeric {
			y = append(y, c.Name)
		}
	}
	return x, y
}
