package resolve

import (
	"math"
	"strconv"
	"time"

	"github.com/tabq-io/tabq/internal/table"
)

// Kind tags the shape of a query result.
type Kind int

const (
	// KindScalar is a single computed value.
	KindScalar Kind = iota
	// KindTable is a derived table of rows.
	KindTable
	// KindError is a recovered failure; nothing propagates past the
	// resolver as a fault.
	KindError
)

// ErrorKind classifies a failed resolution.
type ErrorKind string

const (
	ErrUnrecognizedQuery ErrorKind = "unrecognized_query"
	ErrColumnNotFound    ErrorKind = "column_not_found"
	ErrTypeMismatch      ErrorKind = "type_mismatch"
	ErrEmptyData         ErrorKind = "empty_data"
	ErrSQL               ErrorKind = "sql_error"
	ErrForbidden         ErrorKind = "forbidden"
	ErrParse             ErrorKind = "parse_error"
)

// Result is the structured outcome of one resolved question, always paired
// with a human-readable answer string.
type Result struct {
	Kind    Kind
	Value   any          // set when Kind == KindScalar
	Table   *table.Table // set when Kind == KindTable
	ErrKind ErrorKind    // set when Kind == KindError
	Message string       // set when Kind == KindError
	Answer  string
}

// IsError reports whether the result is a recovered failure.
func (r *Result) IsError() bool { return r.Kind == KindError }

func scalarResult(value any, answer string) *Result {
	return &Result{Kind: KindScalar, Value: value, Answer: answer}
}

func tableResult(t *table.Table, answer string) *Result {
	return &Result{Kind: KindTable, Table: t, Answer: answer}
}

func errorResult(kind ErrorKind, message string) *Result {
	return &Result{Kind: KindError, ErrKind: kind, Message: message, Answer: message}
}

// formatScalar renders a scalar for answer strings. Floats always carry a
// decimal point ("150" would read as a count; averages print as "150.0").
func formatScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatFloat(x, 'f', 1, 64)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case string:
		return x
	default:
		return ""
	}
}
