// Package resolve turns free-text questions into executed queries against
// the loaded dataset. Every question produces exactly one Result and exactly
// one session memory entry; failures are classified results, not errors.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tabq-io/tabq/internal/memory"
	"github.com/tabq-io/tabq/internal/pattern"
	"github.com/tabq-io/tabq/internal/sqlexec"
	"github.com/tabq-io/tabq/internal/table"
)

const (
	// DefaultFilterLimit caps filter results when the question does not
	// name its own limit.
	DefaultFilterLimit = 10
	// DefaultUniqueCap caps how many distinct values a unique-values
	// answer lists.
	DefaultUniqueCap = 20
)

// sqlPrefix marks a question as raw SQL rather than a pattern.
const sqlPrefix = "sql:"

var numPrinter = message.NewPrinter(language.English)

// Options tunes resolver behavior. Zero values fall back to defaults.
type Options struct {
	FilterLimit int
	UniqueCap   int
}

// Resolver answers questions against one dataset, recording every outcome
// in the session log.
type Resolver struct {
	tbl    *table.Table
	exec   *sqlexec.Executor
	log    *memory.Log
	logger *slog.Logger
	opts   Options
}

// New builds a Resolver over a loaded table. The executor and session log
// are required; a nil logger discards.
func New(tbl *table.Table, exec *sqlexec.Executor, log *memory.Log, logger *slog.Logger, opts Options) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.FilterLimit < 1 {
		opts.FilterLimit = DefaultFilterLimit
	}
	if opts.UniqueCap < 1 {
		opts.UniqueCap = DefaultUniqueCap
	}
	return &Resolver{tbl: tbl, exec: exec, log: log, logger: logger, opts: opts}
}

// Table returns the dataset the resolver answers against.
func (r *Resolver) Table() *table.Table { return r.tbl }

// Log returns the session memory log.
func (r *Resolver) Log() *memory.Log { return r.log }

// Resolve answers one question. Malformed, unknown, and failing queries all
// come back as KindError results; the returned error is reserved for the
// session log itself failing to record the outcome.
func (r *Resolver) Resolve(ctx context.Context, question string) (*Result, error) {
	q := strings.Join(strings.Fields(question), " ")

	var (
		res    *Result
		intent string
	)
	if stmt, ok := stripSQLPrefix(q); ok {
		intent = "sql"
		res = r.resolveSQL(ctx, stmt)
	} else {
		parsed := pattern.Match(q, r.tbl.Columns())
		intent = parsed.Kind.String()
		res = r.resolveIntent(parsed)
	}

	if res.IsError() {
		r.logger.Info("question failed", "intent", intent, "error_kind", string(res.ErrKind))
	} else {
		r.logger.Info("question resolved", "intent", intent)
	}

	if err := r.log.Append(ctx, q, intent, summarize(res)); err != nil {
		return res, fmt.Errorf("failed to record outcome: %w", err)
	}
	return res, nil
}

func stripSQLPrefix(q string) (string, bool) {
	if len(q) < len(sqlPrefix) || !strings.EqualFold(q[:len(sqlPrefix)], sqlPrefix) {
		return "", false
	}
	return strings.TrimSpace(q[len(sqlPrefix):]), true
}

func (r *Resolver) resolveIntent(in pattern.Intent) *Result {
	switch in.Kind {
	case pattern.KindAggregate:
		return r.aggregate(in.Op, in.Column)
	case pattern.KindUniqueValues:
		return r.uniqueValues(in.Column)
	case pattern.KindFilter:
		return r.filter(in.Filter)
	case pattern.KindParseError:
		return errorResult(ErrParse, in.Detail)
	default:
		if strings.HasPrefix(in.Detail, "column ") {
			return errorResult(ErrColumnNotFound, in.Detail)
		}
		return errorResult(ErrUnrecognizedQuery, "question not recognized; "+in.Detail)
	}
}

var opLabels = map[pattern.AggregateOp]string{
	pattern.OpAverage: "Average",
	pattern.OpSum:     "Sum",
	pattern.OpMax:     "Max",
	pattern.OpMin:     "Min",
}

func (r *Resolver) aggregate(op pattern.AggregateOp, column string) *Result {
	if op == pattern.OpCount {
		n := int64(r.tbl.NumRows())
		return scalarResult(n, fmt.Sprintf("Row count: %d", n))
	}

	i, ok := r.tbl.ColumnIndex(column)
	if !ok {
		return errorResult(ErrColumnNotFound, fmt.Sprintf("column %q not found", column))
	}
	col := r.tbl.Column(i)
	if col.Type != table.TypeNumeric {
		return errorResult(ErrTypeMismatch,
			fmt.Sprintf("%s requires a numeric column; %s is %s", op, col.Name, col.Type))
	}

	// Nulls are skipped, matching SQL aggregate semantics.
	var values []float64
	for row := 0; row < r.tbl.NumRows(); row++ {
		if v, ok := r.tbl.Value(row, i).(float64); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return errorResult(ErrEmptyData,
			fmt.Sprintf("column %s has no non-null values", col.Name))
	}

	var out float64
	switch op {
	case pattern.OpAverage:
		var sum float64
		for _, v := range values {
			sum += v
		}
		out = sum / float64(len(values))
	case pattern.OpSum:
		for _, v := range values {
			out += v
		}
	case pattern.OpMax:
		out = values[0]
		for _, v := range values[1:] {
			if v > out {
				out = v
			}
		}
	case pattern.OpMin:
		out = values[0]
		for _, v := range values[1:] {
			if v < out {
				out = v
			}
		}
	}

	answer := fmt.Sprintf("%s of %s: %s", opLabels[op], col.Name, formatScalar(out))
	return scalarResult(out, answer)
}

func (r *Resolver) uniqueValues(column string) *Result {
	i, ok := r.tbl.ColumnIndex(column)
	if !ok {
		return errorResult(ErrColumnNotFound, fmt.Sprintf("column %q not found", column))
	}
	col := r.tbl.Column(i)

	// First-occurrence order. time.Time is not comparable enough for map
	// keys across locations, so key on the formatted value.
	seen := make(map[string]bool)
	var distinct []any
	for row := 0; row < r.tbl.NumRows(); row++ {
		v := r.tbl.Value(row, i)
		if v == nil {
			continue
		}
		key := formatScalar(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		distinct = append(distinct, v)
	}
	if len(distinct) == 0 {
		return errorResult(ErrEmptyData,
			fmt.Sprintf("column %s has no non-null values", col.Name))
	}

	total := len(distinct)
	shown := distinct
	if total > r.opts.UniqueCap {
		shown = distinct[:r.opts.UniqueCap]
	}

	rows := make([][]any, len(shown))
	names := make([]string, len(shown))
	for j, v := range shown {
		rows[j] = []any{v}
		names[j] = formatScalar(v)
	}
	out, err := table.New(r.tbl.Name(), []table.Column{col}, rows)
	if err != nil {
		return errorResult(ErrEmptyData, err.Error())
	}

	var answer string
	if len(shown) < total {
		answer = fmt.Sprintf("%d unique values (showing first %d): %s",
			total, len(shown), strings.Join(names, ", "))
	} else {
		answer = fmt.Sprintf("%d unique values: %s", total, strings.Join(names, ", "))
	}
	return tableResult(out, answer)
}

func (r *Resolver) filter(spec *pattern.FilterSpec) *Result {
	limit := spec.Limit
	if limit < 1 {
		limit = r.opts.FilterLimit
	}

	idx := make([]int, len(spec.Conds))
	for j, c := range spec.Conds {
		i, ok := r.tbl.ColumnIndex(c.Column)
		if !ok {
			return errorResult(ErrColumnNotFound, fmt.Sprintf("column %q not found", c.Column))
		}
		idx[j] = i
	}

	var rows [][]any
	for row := 0; row < r.tbl.NumRows() && len(rows) < limit; row++ {
		match := true
		for j, c := range spec.Conds {
			if !c.Matches(r.tbl.Value(row, idx[j])) {
				match = false
				break
			}
		}
		if match {
			rows = append(rows, r.tbl.Row(row))
		}
	}

	out := r.tbl.Derive(rows)
	if len(rows) == 0 {
		return tableResult(out, "No rows matching filter")
	}
	return tableResult(out, fmt.Sprintf("Top %d rows matching filter", len(rows)))
}

func (r *Resolver) resolveSQL(ctx context.Context, statement string) *Result {
	rs, err := r.exec.Execute(ctx, statement, r.tbl)
	if err != nil {
		var forbidden *sqlexec.ForbiddenError
		if errors.As(err, &forbidden) {
			return errorResult(ErrForbidden, forbidden.Error())
		}
		return errorResult(ErrSQL, err.Error())
	}

	if len(rs.Rows) == 1 && len(rs.Columns) == 1 {
		v := rs.Rows[0][0]
		answer := fmt.Sprintf("%s: %s", rs.Columns[0], formatScalar(v))
		return scalarResult(v, answer)
	}

	out, err := resultTable(r.tbl.Name(), rs)
	if err != nil {
		return errorResult(ErrSQL, err.Error())
	}
	answer := numPrinter.Sprintf("Query returned %d rows", len(rs.Rows))
	return tableResult(out, answer)
}

// resultTable converts a ResultSet into a Table, inferring each column's
// type from its first non-null value.
func resultTable(name string, rs *sqlexec.ResultSet) (*table.Table, error) {
	cols := make([]table.Column, len(rs.Columns))
	for i, cname := range rs.Columns {
		cols[i] = table.Column{Name: cname, Type: table.TypeText}
		for _, row := range rs.Rows {
			switch row[i].(type) {
			case nil:
				continue
			case float64:
				cols[i].Type = table.TypeNumeric
			case bool:
				cols[i].Type = table.TypeBool
			case time.Time:
				cols[i].Type = table.TypeTime
			}
			break
		}
	}
	return table.New(name, cols, rs.Rows)
}

// summarize produces the one-line description stored in session memory.
func summarize(res *Result) string {
	switch res.Kind {
	case KindScalar:
		return res.Answer
	case KindTable:
		return fmt.Sprintf("%s (%d rows)", res.Answer, res.Table.NumRows())
	default:
		return fmt.Sprintf("error(%s): %s", res.ErrKind, res.Message)
	}
}
