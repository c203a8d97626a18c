package sqlexec

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabq-io/tabq/internal/table"
	"github.com/tabq-io/tabq/internal/testutil"
)

func TestCheckReadOnly(t *testing.T) {
	tests := []struct {
		name      string
		statement string
		forbidden bool
	}{
		{"plain select", "select * from df", false},
		{"uppercase select", "SELECT count(*) FROM df", false},
		{"cte", "WITH t AS (SELECT 1) SELECT * FROM t", false},
		{"leading comment", "-- note\nselect 1", false},
		{"block comment", "/* note */ select 1", false},
		{"trailing semicolon", "select 1;", false},
		{"delete", "delete from df", true},
		{"update", "update df set a = 1", true},
		{"insert", "insert into df values (1)", true},
		{"drop", "drop table df", true},
		{"create", "create table x (a int)", true},
		{"statement list", "select 1; drop table df", true},
		{"empty", "   ", true},
		{"comment only", "-- nothing here", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkReadOnly(tt.statement)
			if tt.forbidden {
				var fe *ForbiddenError
				require.Error(t, err)
				assert.True(t, errors.As(err, &fe), "want ForbiddenError, got %T", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewFallsBackToDefaultBind(t *testing.T) {
	assert.Equal(t, DefaultBindName, New("", nil).BindName())
	assert.Equal(t, DefaultBindName, New("not a name", nil).BindName())
	assert.Equal(t, "dataset", New("dataset", nil).BindName())
}

func TestCollectRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("select").WillReturnRows(
		sqlmock.NewRows([]string{"city", "total"}).
			AddRow([]byte("NY"), int64(3)).
			AddRow([]byte("LA"), int64(1)).
			AddRow(nil, nil),
	)

	rows, err := db.Query("select city, total from df")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	rs, err := collectRows(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "total"}, rs.Columns)
	require.Len(t, rs.Rows, 3)
	assert.Equal(t, "NY", rs.Rows[0][0], "driver bytes decode to string")
	assert.Equal(t, float64(3), rs.Rows[0][1], "integers widen to float64")
	assert.Nil(t, rs.Rows[2][0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func newTestTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New("orders.csv",
		[]table.Column{
			{Name: "price", Type: table.TypeNumeric},
			{Name: "city", Type: table.TypeText},
		},
		[][]any{
			{float64(100), "NY"},
			{float64(200), "LA"},
			{nil, "NY"},
		},
	)
	require.NoError(t, err)
	return tbl
}

func TestExecuteCount(t *testing.T) {
	e := New("df", testutil.NewTestLogger(t))
	rs, err := e.Execute(context.Background(), "select count(*) as n from df", newTestTable(t))
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, []string{"n"}, rs.Columns)
	assert.Equal(t, float64(3), rs.Rows[0][0])
}

func TestExecuteAggregateIgnoresNulls(t *testing.T) {
	e := New("df", testutil.NewTestLogger(t))
	rs, err := e.Execute(context.Background(), "select avg(price) as a from df", newTestTable(t))
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, float64(150), rs.Rows[0][0])
}

func TestExecuteRejectsMutation(t *testing.T) {
	e := New("df", testutil.NewTestLogger(t))
	_, err := e.Execute(context.Background(), "delete from df", newTestTable(t))
	var fe *ForbiddenError
	require.ErrorAs(t, err, &fe)
}

func TestExecuteSyntaxError(t *testing.T) {
	e := New("df", testutil.NewTestLogger(t))
	_, err := e.Execute(context.Background(), "select banana banana from", newTestTable(t))
	require.Error(t, err)
	var fe *ForbiddenError
	assert.False(t, errors.As(err, &fe), "engine failures are not Forbidden")
}
