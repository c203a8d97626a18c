package resolve

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabq-io/tabq/internal/memory"
	"github.com/tabq-io/tabq/internal/sqlexec"
	"github.com/tabq-io/tabq/internal/table"
	"github.com/tabq-io/tabq/internal/testutil"
)

func newTestTable(t *testing.T, rows [][]any) *table.Table {
	t.Helper()
	tbl, err := table.New("sales.csv", []table.Column{
		{Name: "price", Type: table.TypeNumeric},
		{Name: "city", Type: table.TypeText},
	}, rows)
	require.NoError(t, err)
	return tbl
}

func newTestResolver(t *testing.T, tbl *table.Table, opts Options) *Resolver {
	t.Helper()
	store, err := memory.OpenStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := testutil.NewTestLogger(t)
	log := memory.NewLog(store, uuid.NewString())
	exec := sqlexec.New(sqlexec.DefaultBindName, logger)
	return New(tbl, exec, log, logger, opts)
}

func mustResolve(t *testing.T, r *Resolver, question string) *Result {
	t.Helper()
	res, err := r.Resolve(context.Background(), question)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestAverageIgnoresNulls(t *testing.T) {
	tbl := newTestTable(t, [][]any{
		{float64(100), "NY"},
		{float64(200), "LA"},
		{nil, "NY"},
	})
	r := newTestResolver(t, tbl, Options{})

	res := mustResolve(t, r, "average of price")
	assert.Equal(t, KindScalar, res.Kind)
	assert.Equal(t, float64(150), res.Value)
	assert.Equal(t, "Average of price: 150.0", res.Answer)

	entries, err := r.Log().Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1, "one memory entry per call")
	assert.Equal(t, "average of price", entries[0].Question)
	assert.Equal(t, "aggregate", entries[0].Intent)
}

func TestAggregates(t *testing.T) {
	tbl := newTestTable(t, [][]any{
		{float64(100), "NY"},
		{float64(200), "LA"},
		{nil, "NY"},
	})
	r := newTestResolver(t, tbl, Options{})

	tests := []struct {
		question string
		value    any
		answer   string
	}{
		{"sum of price", float64(300), "Sum of price: 300.0"},
		{"max of price", float64(200), "Max of price: 200.0"},
		{"min of price", float64(100), "Min of price: 100.0"},
		{"mean of price", float64(150), "Average of price: 150.0"},
		{"count rows", int64(3), "Row count: 3"},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			res := mustResolve(t, r, tt.question)
			assert.Equal(t, KindScalar, res.Kind)
			assert.Equal(t, tt.value, res.Value)
			assert.Equal(t, tt.answer, res.Answer)
		})
	}
}

func TestAggregateOnTextColumn(t *testing.T) {
	tbl := newTestTable(t, [][]any{{float64(1), "NY"}})
	r := newTestResolver(t, tbl, Options{})

	res := mustResolve(t, r, "sum of city")
	assert.Equal(t, KindError, res.Kind)
	assert.Equal(t, ErrTypeMismatch, res.ErrKind)
	assert.Contains(t, res.Message, "city is text")
}

func TestUnknownColumn(t *testing.T) {
	tbl := newTestTable(t, [][]any{{float64(1), "NY"}})
	r := newTestResolver(t, tbl, Options{})

	res := mustResolve(t, r, "average of banana")
	assert.Equal(t, KindError, res.Kind)
	assert.Equal(t, ErrColumnNotFound, res.ErrKind)
	assert.Contains(t, res.Message, `"banana"`)
}

func TestUnrecognizedQuestion(t *testing.T) {
	tbl := newTestTable(t, [][]any{{float64(1), "NY"}})
	r := newTestResolver(t, tbl, Options{})

	res := mustResolve(t, r, "banana banana")
	assert.Equal(t, KindError, res.Kind)
	assert.Equal(t, ErrUnrecognizedQuery, res.ErrKind)

	entries, err := r.Log().Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1, "failures are recorded too")
	assert.Equal(t, "unrecognized", entries[0].Intent)
}

func TestUniqueValuesKeepFirstOccurrenceOrder(t *testing.T) {
	tbl := newTestTable(t, [][]any{
		{float64(1), "NY"},
		{float64(2), "LA"},
		{float64(3), "NY"},
		{float64(4), "SF"},
	})
	r := newTestResolver(t, tbl, Options{})

	res := mustResolve(t, r, "unique values of city")
	assert.Equal(t, KindTable, res.Kind)
	assert.Equal(t, "3 unique values: NY, LA, SF", res.Answer)
	require.NotNil(t, res.Table)
	require.Equal(t, 3, res.Table.NumRows())
	assert.Equal(t, "NY", res.Table.Value(0, 0))
	assert.Equal(t, "LA", res.Table.Value(1, 0))
	assert.Equal(t, "SF", res.Table.Value(2, 0))
}

func TestUniqueValuesCapped(t *testing.T) {
	tbl := newTestTable(t, [][]any{
		{float64(1), "NY"},
		{float64(2), "LA"},
		{float64(3), "SF"},
	})
	r := newTestResolver(t, tbl, Options{UniqueCap: 2})

	res := mustResolve(t, r, "unique values of city")
	assert.Equal(t, KindTable, res.Kind)
	assert.Equal(t, 2, res.Table.NumRows())
	assert.Equal(t, "3 unique values (showing first 2): NY, LA", res.Answer)
}

func TestFilterWithExplicitLimit(t *testing.T) {
	tbl := newTestTable(t, [][]any{
		{float64(50), "NY"},
		{float64(150), "LA"},
		{float64(250), "NY"},
		{float64(350), "SF"},
	})
	r := newTestResolver(t, tbl, Options{})

	res := mustResolve(t, r, "filter price > 100 and show top 2")
	assert.Equal(t, KindTable, res.Kind)
	require.Equal(t, 2, res.Table.NumRows())
	assert.Equal(t, float64(150), res.Table.Value(0, 0))
	assert.Equal(t, float64(250), res.Table.Value(1, 0))
	assert.Equal(t, "Top 2 rows matching filter", res.Answer)
}

func TestFilterDefaultLimit(t *testing.T) {
	rows := make([][]any, 6)
	for i := range rows {
		rows[i] = []any{float64(100 + i), "NY"}
	}
	r := newTestResolver(t, newTestTable(t, rows), Options{FilterLimit: 5})

	res := mustResolve(t, r, "filter price >= 100")
	assert.Equal(t, 5, res.Table.NumRows())
}

func TestFilterNoMatches(t *testing.T) {
	tbl := newTestTable(t, [][]any{{float64(1), "NY"}})
	r := newTestResolver(t, tbl, Options{})

	res := mustResolve(t, r, "filter price > 999")
	assert.Equal(t, KindTable, res.Kind)
	assert.Equal(t, 0, res.Table.NumRows())
	assert.Equal(t, "No rows matching filter", res.Answer)
}

func TestFilterParseError(t *testing.T) {
	tbl := newTestTable(t, [][]any{{float64(1), "NY"}})
	r := newTestResolver(t, tbl, Options{})

	res := mustResolve(t, r, "filter price >>> 3")
	assert.Equal(t, KindError, res.Kind)
	assert.Equal(t, ErrParse, res.ErrKind)
}

func TestSQLCountIsScalar(t *testing.T) {
	tbl := newTestTable(t, [][]any{
		{float64(100), "NY"},
		{float64(200), "LA"},
		{nil, "NY"},
	})
	r := newTestResolver(t, tbl, Options{})

	res := mustResolve(t, r, "sql: select count(*) as n from df")
	assert.Equal(t, KindScalar, res.Kind)
	assert.Equal(t, float64(3), res.Value)

	entries, err := r.Log().Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sql", entries[0].Intent)
}

func TestSQLMultiRowIsTable(t *testing.T) {
	tbl := newTestTable(t, [][]any{
		{float64(100), "NY"},
		{float64(200), "LA"},
	})
	r := newTestResolver(t, tbl, Options{})

	res := mustResolve(t, r, "sql: select city, price from df order by price desc")
	assert.Equal(t, KindTable, res.Kind)
	require.Equal(t, 2, res.Table.NumRows())
	assert.Equal(t, "LA", res.Table.Value(0, 0))
	assert.Equal(t, "Query returned 2 rows", res.Answer)
}

func TestSQLWriteForbidden(t *testing.T) {
	tbl := newTestTable(t, [][]any{{float64(1), "NY"}})
	r := newTestResolver(t, tbl, Options{})

	res := mustResolve(t, r, "sql: delete from df")
	assert.Equal(t, KindError, res.Kind)
	assert.Equal(t, ErrForbidden, res.ErrKind)
}

func TestSQLEngineError(t *testing.T) {
	tbl := newTestTable(t, [][]any{{float64(1), "NY"}})
	r := newTestResolver(t, tbl, Options{})

	res := mustResolve(t, r, "sql: select nosuch from df")
	assert.Equal(t, KindError, res.Kind)
	assert.Equal(t, ErrSQL, res.ErrKind)
}

func TestResolveIsIdempotent(t *testing.T) {
	tbl := newTestTable(t, [][]any{
		{float64(100), "NY"},
		{float64(200), "LA"},
	})
	r := newTestResolver(t, tbl, Options{})

	first := mustResolve(t, r, "average of price")
	second := mustResolve(t, r, "average of price")
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Answer, second.Answer)

	entries, err := r.Log().Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2, "every call appends, including repeats")
}

func TestWhitespaceIsNormalized(t *testing.T) {
	tbl := newTestTable(t, [][]any{{float64(100), "NY"}})
	r := newTestResolver(t, tbl, Options{})

	res := mustResolve(t, r, "  average   of\tprice ")
	assert.Equal(t, KindScalar, res.Kind)

	entries, err := r.Log().Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "average of price", entries[0].Question)
}

func TestEmptyNumericColumn(t *testing.T) {
	tbl := newTestTable(t, [][]any{{nil, "NY"}, {nil, "LA"}})
	r := newTestResolver(t, tbl, Options{})

	res := mustResolve(t, r, "average of price")
	assert.Equal(t, KindError, res.Kind)
	assert.Equal(t, ErrEmptyData, res.ErrKind)
}
