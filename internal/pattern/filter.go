package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The filter grammar is deliberately small: comparisons joined by "and" only,
// no "or", no parentheses. An optional trailing "and show top <n>" caps the
// row count; without it the caller's configured default applies (Limit 0).
//
//	filter price > 100 and city == 'NY' and show top 5

// CompareOp is a comparison operator in a filter condition.
type CompareOp string

const (
	OpEq CompareOp = "=="
	OpNe CompareOp = "!="
	OpGt CompareOp = ">"
	OpLt CompareOp = "<"
	OpGe CompareOp = ">="
	OpLe CompareOp = "<="
)

// LiteralKind tags the parsed type of a comparison literal.
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
	LitBool
)

// Literal is a typed comparison value.
type Literal struct {
	Kind LiteralKind
	Num  float64
	Bool bool
	Str  string
}

// Cond is a single comparison against one column.
type Cond struct {
	Column string
	Op     CompareOp
	Value  Literal
}

// FilterSpec is a parsed filter expression: all conditions must hold
// (conjunction), and at most Limit rows are returned (0 = use default).
type FilterSpec struct {
	Conds []Cond
	Limit int
}

var (
	showTopRe = regexp.MustCompile(`(?i)\s+and show top\s+(\d+)\s*$`)
	andRe     = regexp.MustCompile(`(?i)\s+and\s+`)
	condRe    = regexp.MustCompile(`^([\w\- ]+?)\s*(>=|<=|==|!=|=|>|<)\s*(.+)$`)
)

// ParseFilter parses the expression following the "filter " keyword.
// Column names are returned as written; the caller resolves them against
// the schema.
func ParseFilter(expr string) (*FilterSpec, error) {
	spec := &FilterSpec{}

	if m := showTopRe.FindStringSubmatch(expr); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid row limit %q", m[1])
		}
		spec.Limit = n
		expr = expr[:len(expr)-len(m[0])]
	}

	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty filter expression")
	}

	for _, part := range andRe.Split(expr, -1) {
		part = strings.TrimSpace(part)
		m := condRe.FindStringSubmatch(part)
		if m == nil {
			return nil, fmt.Errorf("cannot parse condition %q", part)
		}
		op := CompareOp(m[2])
		if op == "=" {
			op = OpEq
		}
		if strings.ContainsAny(m[3][:1], "<>=!") {
			return nil, fmt.Errorf("cannot parse condition %q", part)
		}
		spec.Conds = append(spec.Conds, Cond{
			Column: strings.TrimSpace(m[1]),
			Op:     op,
			Value:  coerceLiteral(strings.TrimSpace(m[3])),
		})
	}

	return spec, nil
}

// coerceLiteral tries number, then boolean, then falls back to a string with
// surrounding quotes stripped.
func coerceLiteral(raw string) Literal {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Literal{Kind: LitNumber, Num: f}
	}
	if strings.EqualFold(raw, "true") || strings.EqualFold(raw, "false") {
		return Literal{Kind: LitBool, Bool: strings.EqualFold(raw, "true")}
	}
	return Literal{Kind: LitString, Str: strings.Trim(raw, `'"`)}
}

// Matches reports whether a cell value satisfies the condition.
// Null cells never match; a type mismatch between cell and literal is
// treated as a non-match rather than an error.
func (c Cond) Matches(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case float64:
		if c.Value.Kind != LitNumber {
			return false
		}
		return compareFloats(v, c.Value.Num, c.Op)
	case bool:
		if c.Value.Kind != LitBool {
			return false
		}
		switch c.Op {
		case OpEq:
			return v == c.Value.Bool
		case OpNe:
			return v != c.Value.Bool
		default:
			return false
		}
	case time.Time:
		if c.Value.Kind != LitString {
			return false
		}
		other, ok := parseTimeLiteral(c.Value.Str)
		if !ok {
			return false
		}
		return compareFloats(float64(v.UnixNano()), float64(other.UnixNano()), c.Op)
	case string:
		if c.Value.Kind != LitString {
			return false
		}
		return compareStrings(v, c.Value.Str, c.Op)
	default:
		return false
	}
}

func compareFloats(a, b float64, op CompareOp) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpGt:
		return a > b
	case OpLt:
		return a < b
	case OpGe:
		return a >= b
	case OpLe:
		return a <= b
	}
	return false
}

func compareStrings(a, b string, op CompareOp) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpGt:
		return a > b
	case OpLt:
		return a < b
	case OpGe:
		return a >= b
	case OpLe:
		return a <= b
	}
	return false
}

func parseTimeLiteral(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "01/02/2006"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
