package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabq-io/tabq/internal/table"
)

var testColumns = []table.Column{
	{Name: "unit_price", Type: table.TypeNumeric},
	{Name: "city", Type: table.TypeText},
	{Name: "active", Type: table.TypeBool},
}

func TestMatchAggregates(t *testing.T) {
	tests := []struct {
		question string
		wantOp   AggregateOp
		wantCol  string
	}{
		{"average of unit_price", OpAverage, "unit_price"},
		{"mean of unit_price", OpAverage, "unit_price"},
		{"Average of Unit_Price", OpAverage, "unit_price"},
		{"sum of price", OpSum, "unit_price"}, // substring containment
		{"max of unit_price", OpMax, "unit_price"},
		{"min of unit_price", OpMin, "unit_price"},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got := Match(tt.question, testColumns)
			require.Equal(t, KindAggregate, got.Kind)
			assert.Equal(t, tt.wantOp, got.Op)
			assert.Equal(t, tt.wantCol, got.Column)
		})
	}
}

func TestMatchCountRows(t *testing.T) {
	got := Match("count rows", testColumns)
	require.Equal(t, KindAggregate, got.Kind)
	assert.Equal(t, OpCount, got.Op)
	assert.Empty(t, got.Column)
}

func TestMatchUniqueValues(t *testing.T) {
	got := Match("unique values of city", testColumns)
	require.Equal(t, KindUniqueValues, got.Kind)
	assert.Equal(t, "city", got.Column)
}

func TestMatchUnknownColumnIsUnrecognized(t *testing.T) {
	for _, q := range []string{
		"average of banana",
		"unique values of banana",
		"filter banana > 10 and show top 5",
	} {
		got := Match(q, testColumns)
		assert.Equal(t, KindUnrecognized, got.Kind, "question %q", q)
		assert.Contains(t, got.Detail, "not found")
	}
}

func TestMatchUnrecognized(t *testing.T) {
	for _, q := range []string{"banana banana", "", "show me everything", "average unit_price"} {
		got := Match(q, testColumns)
		assert.Equal(t, KindUnrecognized, got.Kind, "question %q", q)
	}
}

func TestMatchFilter(t *testing.T) {
	got := Match("filter unit_price > 100 and city == 'NY' and show top 5", testColumns)
	require.Equal(t, KindFilter, got.Kind)
	require.NotNil(t, got.Filter)
	assert.Equal(t, 5, got.Filter.Limit)
	require.Len(t, got.Filter.Conds, 2)
	assert.Equal(t, "unit_price", got.Filter.Conds[0].Column)
	assert.Equal(t, OpGt, got.Filter.Conds[0].Op)
	assert.Equal(t, "city", got.Filter.Conds[1].Column)
	assert.Equal(t, "NY", got.Filter.Conds[1].Value.Str)
}

func TestMatchFilterWithoutLimit(t *testing.T) {
	got := Match("filter active == true", testColumns)
	require.Equal(t, KindFilter, got.Kind)
	assert.Zero(t, got.Filter.Limit, "caller applies the configured default")
	assert.Equal(t, LitBool, got.Filter.Conds[0].Value.Kind)
}

func TestMatchMalformedFilter(t *testing.T) {
	got := Match("filter unit_price >>> 100", testColumns)
	assert.Equal(t, KindParseError, got.Kind)
	assert.NotEmpty(t, got.Detail)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		expr      string
		wantConds int
		wantLimit int
		wantErr   bool
	}{
		{"price > 100", 1, 0, false},
		{"price > 100 and show top 7", 1, 7, false},
		{"price >= 10 and price <= 20 and city != LA", 3, 0, false},
		{"price = 10", 1, 0, false}, // = is an alias for ==
		{"", 0, 0, true},
		{"and show top 5", 0, 0, true},
		{"price ~ 10", 0, 0, true},
		{"price > 100 and show top 0", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			spec, err := ParseFilter(tt.expr)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, spec.Conds, tt.wantConds)
			assert.Equal(t, tt.wantLimit, spec.Limit)
		})
	}
}

func TestParseFilterEqAlias(t *testing.T) {
	spec, err := ParseFilter("price = 10")
	require.NoError(t, err)
	assert.Equal(t, OpEq, spec.Conds[0].Op)
}

func TestCondMatches(t *testing.T) {
	tests := []struct {
		name  string
		cond  Cond
		value any
		want  bool
	}{
		{"gt true", Cond{Op: OpGt, Value: Literal{Kind: LitNumber, Num: 100}}, float64(150), true},
		{"gt false", Cond{Op: OpGt, Value: Literal{Kind: LitNumber, Num: 100}}, float64(50), false},
		{"ge boundary", Cond{Op: OpGe, Value: Literal{Kind: LitNumber, Num: 100}}, float64(100), true},
		{"null never matches", Cond{Op: OpNe, Value: Literal{Kind: LitNumber, Num: 0}}, nil, false},
		{"string eq", Cond{Op: OpEq, Value: Literal{Kind: LitString, Str: "NY"}}, "NY", true},
		{"string ne", Cond{Op: OpNe, Value: Literal{Kind: LitString, Str: "NY"}}, "LA", true},
		{"bool eq", Cond{Op: OpEq, Value: Literal{Kind: LitBool, Bool: true}}, true, true},
		{"bool ordering unsupported", Cond{Op: OpGt, Value: Literal{Kind: LitBool, Bool: false}}, true, false},
		{"type mismatch excluded", Cond{Op: OpEq, Value: Literal{Kind: LitString, Str: "abc"}}, float64(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Matches(tt.value))
		})
	}
}
