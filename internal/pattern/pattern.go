// Package pattern classifies a natural-language question into one of a fixed
// set of intents and extracts its operands. The pattern set is closed and
// checked in a total order; anything that falls through is Unrecognized.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tabq-io/tabq/internal/table"
)

// IntentKind tags the classified meaning of a question.
type IntentKind int

const (
	// KindUnrecognized means no pattern matched, or a referenced column
	// does not exist in the schema.
	KindUnrecognized IntentKind = iota
	// KindAggregate is a single-scalar reduction over a column (or, for
	// count, over the whole table).
	KindAggregate
	// KindUniqueValues lists the distinct non-null values of a column.
	KindUniqueValues
	// KindFilter selects rows matching a predicate, up to a limit.
	KindFilter
	// KindParseError means the filter pattern matched but its expression
	// is malformed.
	KindParseError
)

// String returns the snake_case name of the intent kind.
func (k IntentKind) String() string {
	switch k {
	case KindAggregate:
		return "aggregate"
	case KindUniqueValues:
		return "unique_values"
	case KindFilter:
		return "filter"
	case KindParseError:
		return "parse_error"
	default:
		return "unrecognized"
	}
}

// AggregateOp names a scalar reduction.
type AggregateOp string

const (
	OpAverage AggregateOp = "average"
	OpSum     AggregateOp = "sum"
	OpMax     AggregateOp = "max"
	OpMin     AggregateOp = "min"
	OpCount   AggregateOp = "count"
)

// Intent is the classified question. It is immutable after Match returns.
// Column holds the resolved schema column name, not the raw reference.
type Intent struct {
	Kind   IntentKind
	Op     AggregateOp
	Column string
	Filter *FilterSpec
	Detail string // human-readable note for unrecognized / parse-error intents
}

// Keywords match case-insensitively, but operands keep their original case:
// column lookup is case-insensitive anyway, and lowercasing the question
// would mangle string literals in filter comparisons.
var (
	aggregateRe = regexp.MustCompile(`(?i)^(average|mean|sum|max|min) of ([\w\- ]+)$`)
	countRowsRe = regexp.MustCompile(`(?i)^count rows$`)
	uniqueRe    = regexp.MustCompile(`(?i)^unique values of ([\w\- ]+)$`)
	filterRe    = regexp.MustCompile(`(?i)^filter (.+)$`)
)

// Match classifies a question against the schema. The question is expected
// to be whitespace-normalized. First match in the precedence order wins:
// aggregates, count rows, unique values, filter.
func Match(question string, columns []table.Column) Intent {
	q := strings.TrimSpace(question)

	if m := aggregateRe.FindStringSubmatch(q); m != nil {
		op := AggregateOp(strings.ToLower(m[1]))
		if op == "mean" {
			op = OpAverage
		}
		col, ok := resolveColumn(m[2], columns)
		if !ok {
			return unknownColumn(m[2])
		}
		return Intent{Kind: KindAggregate, Op: op, Column: col}
	}

	if countRowsRe.MatchString(q) {
		return Intent{Kind: KindAggregate, Op: OpCount}
	}

	if m := uniqueRe.FindStringSubmatch(q); m != nil {
		col, ok := resolveColumn(m[1], columns)
		if !ok {
			return unknownColumn(m[1])
		}
		return Intent{Kind: KindUniqueValues, Column: col}
	}

	if m := filterRe.FindStringSubmatch(q); m != nil {
		spec, err := ParseFilter(m[1])
		if err != nil {
			return Intent{Kind: KindParseError, Detail: err.Error()}
		}
		for i := range spec.Conds {
			col, ok := resolveColumn(spec.Conds[i].Column, columns)
			if !ok {
				return unknownColumn(spec.Conds[i].Column)
			}
			spec.Conds[i].Column = col
		}
		return Intent{Kind: KindFilter, Filter: spec}
	}

	return Intent{Kind: KindUnrecognized, Detail: usageHint}
}

const usageHint = "try 'average of <col>', 'sum of <col>', 'count rows', " +
	"'unique values of <col>', or 'filter <col> > 10 and show top 5'; " +
	"prefix with 'sql:' for SQL"

func resolveColumn(ref string, columns []table.Column) (string, bool) {
	i, ok := table.Lookup(columns, strings.TrimSpace(ref))
	if !ok {
		return "", false
	}
	return columns[i].Name, true
}

func unknownColumn(ref string) Intent {
	return Intent{
		Kind:   KindUnrecognized,
		Detail: fmt.Sprintf("column %q not found", strings.TrimSpace(ref)),
	}
}
