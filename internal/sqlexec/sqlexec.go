// Package sqlexec runs raw SQL statements against the active dataset.
// Each call binds the in-memory Table into a fresh in-memory DuckDB database
// under one fixed identifier, so statements can never touch anything else.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/tabq-io/tabq/internal/table"
)

// DefaultBindName is the virtual table identifier the dataset is exposed as.
const DefaultBindName = "df"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ForbiddenError reports a statement rejected by the read-only guard before
// it reached the engine.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("statement not allowed: %s", e.Reason)
}

// ResultSet holds the rows returned by a statement. Cell values follow the
// same conventions as table cells (nil for NULL, []byte decoded to string).
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Executor executes read-only SQL against a Table.
type Executor struct {
	bind   string
	logger *slog.Logger
}

// New creates an Executor binding tables under the given identifier.
// An empty or invalid identifier falls back to DefaultBindName.
func New(bind string, logger *slog.Logger) *Executor {
	if bind == "" || !identRe.MatchString(bind) {
		bind = DefaultBindName
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{bind: bind, logger: logger}
}

// BindName returns the virtual table identifier in use.
func (e *Executor) BindName() string { return e.bind }

// Execute runs a single SELECT statement with the Table bound under the
// executor's identifier. Non-SELECT statements are rejected with a
// *ForbiddenError; engine failures come back as plain errors.
func (e *Executor) Execute(ctx context.Context, statement string, t *table.Table) (*ResultSet, error) {
	if err := checkReadOnly(statement); err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := e.bindTable(ctx, db, t); err != nil {
		return nil, err
	}

	e.logger.Debug("executing sql", "bind", e.bind, "statement", statement)

	rows, err := db.QueryContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectRows(rows)
}

// checkReadOnly enforces the select-only restriction independently of the
// engine: the binding name is a convention, not a safety mechanism.
func checkReadOnly(statement string) error {
	body := stripComments(statement)
	body = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(body), ";"))
	if body == "" {
		return &ForbiddenError{Reason: "empty statement"}
	}
	if strings.Contains(body, ";") {
		return &ForbiddenError{Reason: "multiple statements are not allowed"}
	}
	first := strings.ToLower(strings.Fields(body)[0])
	if first != "select" && first != "with" {
		return &ForbiddenError{Reason: fmt.Sprintf("only SELECT statements are accepted, got %q", first)}
	}
	return nil
}

func stripComments(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "--"):
			if nl := strings.IndexByte(s[i:], '\n'); nl >= 0 {
				i += nl + 1
			} else {
				i = len(s)
			}
		case strings.HasPrefix(s[i:], "/*"):
			if end := strings.Index(s[i:], "*/"); end >= 0 {
				i += end + 2
			} else {
				i = len(s)
			}
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String()
}

// bindTable materializes the Table under the bind identifier.
func (e *Executor) bindTable(ctx context.Context, db *sql.DB, t *table.Table) error {
	cols := t.Columns()
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(c.Name), duckdbType(c.Type))
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", e.bind, strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to bind table: %w", err)
	}

	if t.NumRows() == 0 {
		return nil
	}

	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", e.bind, strings.Join(placeholders, ", "))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bind transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := 0; i < t.NumRows(); i++ {
		if _, err := stmt.ExecContext(ctx, t.Row(i)...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to load row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bind transaction: %w", err)
	}
	return nil
}

func duckdbType(t table.Type) string {
	switch t {
	case table.TypeNumeric:
		return "DOUBLE"
	case table.TypeBool:
		return "BOOLEAN"
	case table.TypeTime:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// collectRows drains sql.Rows into a ResultSet, normalizing driver types.
func collectRows(rows *sql.Rows) (*ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x
	default:
		return v
	}
}
