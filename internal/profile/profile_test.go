package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabq-io/tabq/internal/table"
)

func newProfileTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New("sales.csv", []table.Column{
		{Name: "price", Type: table.TypeNumeric},
		{Name: "qty", Type: table.TypeNumeric},
		{Name: "city", Type: table.TypeText},
	}, [][]any{
		{float64(100), float64(1), "NY"},
		{float64(200), float64(2), "LA"},
		{nil, float64(3), nil},
		{float64(300), float64(3), "SF"},
	})
	require.NoError(t, err)
	return tbl
}

func TestSchema(t *testing.T) {
	out := Schema(newProfileTable(t))
	require.Equal(t, 3, out.NumRows())
	assert.Equal(t, "price", out.Value(0, 0))
	assert.Equal(t, "numeric", out.Value(0, 1))
	assert.Equal(t, float64(3), out.Value(0, 2), "non_null")
	assert.Equal(t, float64(1), out.Value(0, 3), "nulls")
	assert.Equal(t, "city", out.Value(2, 0))
	assert.Equal(t, "text", out.Value(2, 1))
}

func TestStatsSkipsTextAndNulls(t *testing.T) {
	out := Stats(newProfileTable(t))
	require.Equal(t, 2, out.NumRows(), "only numeric columns")
	assert.Equal(t, "price", out.Value(0, 0))
	assert.Equal(t, float64(3), out.Value(0, 1), "count ignores the null")
	assert.Equal(t, float64(200), out.Value(0, 2), "mean")
	assert.Equal(t, float64(100), out.Value(0, 3), "min")
	assert.Equal(t, float64(300), out.Value(0, 4), "max")
	assert.InDelta(t, 100, out.Value(0, 5).(float64), 1e-9, "sample stddev")
}

func TestMissingness(t *testing.T) {
	out := Missingness(newProfileTable(t))
	require.Equal(t, 3, out.NumRows())
	assert.Equal(t, float64(1), out.Value(0, 1))
	assert.Equal(t, float64(25), out.Value(0, 2))
	assert.Equal(t, float64(0), out.Value(1, 1))
}

func TestCorrelations(t *testing.T) {
	out, err := Correlations(newProfileTable(t))
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
	assert.Equal(t, "price", out.Value(0, 0))
	assert.Equal(t, "qty", out.Value(0, 1))

	// price and qty move together perfectly over the pairwise-complete rows.
	assert.InDelta(t, 1.0, out.Value(0, 2).(float64), 1e-9)
}

func TestCorrelationsNeedTwoNumericColumns(t *testing.T) {
	tbl, err := table.New("one.csv", []table.Column{
		{Name: "price", Type: table.TypeNumeric},
		{Name: "city", Type: table.TypeText},
	}, nil)
	require.NoError(t, err)

	_, err = Correlations(tbl)
	assert.ErrorIs(t, err, ErrNoNumericPairs)
}
