// Package table provides the in-memory tabular dataset that queries run
// against. A Table is immutable once loaded; filters and projections produce
// new derived Tables that share row data with their parent.
package table

import (
	"fmt"
	"strings"
)

// Type describes the declared type of a column.
type Type int

const (
	// TypeText holds free-form string values.
	TypeText Type = iota
	// TypeNumeric holds float64 values.
	TypeNumeric
	// TypeBool holds boolean values.
	TypeBool
	// TypeTime holds time.Time values.
	TypeTime
)

// String returns the lowercase name of the type.
func (t Type) String() string {
	switch t {
	case TypeNumeric:
		return "numeric"
	case TypeBool:
		return "boolean"
	case TypeTime:
		return "temporal"
	default:
		return "text"
	}
}

// Column describes a single named, typed column.
type Column struct {
	Name string
	Type Type
}

// Table is an ordered set of named typed columns plus an ordered set of rows.
// Cell values are float64, string, bool, or time.Time; nil marks a null.
type Table struct {
	name    string
	columns []Column
	rows    [][]any
}

// New builds a Table after validating the shape: column names must be unique
// (case-insensitively) and every row must have exactly one cell per column.
func New(name string, columns []Column, rows [][]any) (*Table, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		key := strings.ToLower(c.Name)
		if c.Name == "" {
			return nil, fmt.Errorf("column name must not be empty")
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[key] = true
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
		}
	}
	return &Table{name: name, columns: columns, rows: rows}, nil
}

// Name returns the dataset name (typically the source filename).
func (t *Table) Name() string { return t.name }

// Columns returns a copy of the column descriptors.
func (t *Table) Columns() []Column {
	cols := make([]Column, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// Column returns the descriptor for column i.
func (t *Table) Column(i int) Column { return t.columns[i] }

// Value returns the cell at (row, col). nil means null.
func (t *Table) Value(row, col int) any { return t.rows[row][col] }

// Row returns the cells of a single row. Callers must not modify it.
func (t *Table) Row(i int) []any { return t.rows[i] }

// ColumnIndex finds a column by exact case-insensitive name.
func (t *Table) ColumnIndex(name string) (int, bool) {
	return ColumnIndex(t.columns, name)
}

// Lookup resolves a column reference the way questions do: exact
// case-insensitive match first, then substring containment in schema order.
func (t *Table) Lookup(name string) (int, bool) {
	return Lookup(t.columns, name)
}

// Head returns the first n rows as a derived Table.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > len(t.rows) {
		n = len(t.rows)
	}
	return t.Derive(t.rows[:n])
}

// Derive builds a new Table with the same schema over the given rows.
// Row slices are shared, not copied; the parent stays untouched.
func (t *Table) Derive(rows [][]any) *Table {
	return &Table{name: t.name, columns: t.columns, rows: rows}
}

// Project returns a derived Table containing only the named columns, in the
// given order. Names must resolve exactly (case-insensitively).
func (t *Table) Project(names ...string) (*Table, error) {
	idx := make([]int, 0, len(names))
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		i, ok := t.ColumnIndex(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		idx = append(idx, i)
		cols = append(cols, t.columns[i])
	}
	rows := make([][]any, len(t.rows))
	for r, row := range t.rows {
		out := make([]any, len(idx))
		for j, i := range idx {
			out[j] = row[i]
		}
		rows[r] = out
	}
	return &Table{name: t.name, columns: cols, rows: rows}, nil
}

// ColumnIndex finds a column by exact case-insensitive name.
func ColumnIndex(columns []Column, name string) (int, bool) {
	for i, c := range columns {
		if strings.EqualFold(c.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// Lookup resolves a column reference: exact case-insensitive match first,
// then the first column whose name contains the reference as a substring.
func Lookup(columns []Column, name string) (int, bool) {
	if i, ok := ColumnIndex(columns, name); ok {
		return i, true
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return 0, false
	}
	for i, c := range columns {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			return i, true
		}
	}
	return 0, false
}
