package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSV = "city,price\nNY,100\nLA,200\nNY,\n"

func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0o644))

	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	writeDataset(t)
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tabq v")
}

func TestColumnsCommand(t *testing.T) {
	path := writeDataset(t)
	out, err := execute(t, "columns", path)
	require.NoError(t, err)
	assert.Contains(t, out, "city\ttext")
	assert.Contains(t, out, "price\tnumeric")
}

func TestAskCommandJSON(t *testing.T) {
	path := writeDataset(t)
	out, err := execute(t, "ask", "-f", path, "-o", "json", "average of price")
	require.NoError(t, err)

	var res struct {
		Kind   string  `json:"kind"`
		Answer string  `json:"answer"`
		Value  float64 `json:"value"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "scalar", res.Kind)
	assert.Equal(t, float64(150), res.Value)
	assert.Equal(t, "Average of price: 150.0", res.Answer)
}

func TestAskCommandErrorResult(t *testing.T) {
	path := writeDataset(t)
	out, err := execute(t, "ask", "-f", path, "-o", "json", "banana banana")
	require.NoError(t, err, "failed questions are results, not command errors")

	var res struct {
		Kind      string `json:"kind"`
		ErrorKind string `json:"error_kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "error", res.Kind)
	assert.Equal(t, "unrecognized_query", res.ErrorKind)
}

func TestHeadCommandMarkdown(t *testing.T) {
	path := writeDataset(t)
	out, err := execute(t, "head", path, "-n", "2", "-o", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "| city | price |")
	assert.Contains(t, out, "| NY | 100 |")
	assert.NotContains(t, out, "| LA | 200 |\n| NY |", "limited to two rows")
}

func TestProfileSchemaCommand(t *testing.T) {
	path := writeDataset(t)
	out, err := execute(t, "profile", "schema", path, "-o", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "column,type,non_null,nulls")
	assert.Contains(t, out, "price,numeric,2,1")
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "init", dir, "--example")
	require.NoError(t, err)

	cfg, err := os.ReadFile(filepath.Join(dir, "tabq.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "file: sample.csv")
	assert.Contains(t, string(cfg), "bind_name: df")

	_, err = os.Stat(filepath.Join(dir, "sample.csv"))
	assert.NoError(t, err)

	_, err = execute(t, "init", dir)
	require.Error(t, err, "refuses to overwrite without --force")
}
