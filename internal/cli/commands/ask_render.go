package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/tabq-io/tabq/internal/resolve"
	tabletypes "github.com/tabq-io/tabq/internal/table"
)

var (
	answerStyle = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// resolveFormat maps the "auto" output mode to a concrete format: rendered
// tables on a TTY, markdown when piped.
func resolveFormat(format string) string {
	if format != "auto" && format != "" {
		return format
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return "table"
	}
	return "markdown"
}

// renderResult writes a resolved answer. Scalar and error results are a
// single line; table results get the answer line followed by the rows.
func renderResult(w io.Writer, res *resolve.Result, format string) error {
	format = resolveFormat(format)

	if format == "json" {
		return renderResultJSON(w, res)
	}

	switch res.Kind {
	case resolve.KindError:
		_, _ = fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("Error (%s): %s", res.ErrKind, res.Message)))
		return nil
	case resolve.KindScalar:
		_, _ = fmt.Fprintln(w, answerStyle.Render(res.Answer))
		return nil
	default:
		_, _ = fmt.Fprintln(w, answerStyle.Render(res.Answer))
		return renderDataTable(w, res.Table, format)
	}
}

// renderResultJSON emits the full structured result.
func renderResultJSON(w io.Writer, res *resolve.Result) error {
	out := map[string]any{
		"kind":   kindName(res.Kind),
		"answer": res.Answer,
	}
	switch res.Kind {
	case resolve.KindScalar:
		out["value"] = res.Value
	case resolve.KindTable:
		out["columns"] = columnNames(res.Table)
		out["rows"] = tableRows(res.Table)
	case resolve.KindError:
		out["error_kind"] = string(res.ErrKind)
		out["message"] = res.Message
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func kindName(k resolve.Kind) string {
	switch k {
	case resolve.KindScalar:
		return "scalar"
	case resolve.KindTable:
		return "table"
	default:
		return "error"
	}
}

// renderDataTable writes a Table in the requested format.
func renderDataTable(w io.Writer, t *tabletypes.Table, format string) error {
	format = resolveFormat(format)
	switch format {
	case "json":
		out := map[string]any{"columns": columnNames(t), "rows": tableRows(t)}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "csv":
		return renderTableCSV(w, t)
	case "markdown", "md":
		return renderTableMarkdown(w, t)
	default:
		return renderTablePretty(w, t)
	}
}

func renderTablePretty(w io.Writer, t *tabletypes.Table) error {
	if t.NumRows() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, t.NumColumns())
	for i := 0; i < t.NumColumns(); i++ {
		header[i] = t.Column(i).Name
	}
	tw.AppendHeader(header)

	for r := 0; r < t.NumRows(); r++ {
		row := make(table.Row, t.NumColumns())
		for c := 0; c < t.NumColumns(); c++ {
			row[c] = formatCell(t.Value(r, c))
		}
		tw.AppendRow(row)
	}

	tw.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", t.NumRows())
	return nil
}

func renderTableCSV(w io.Writer, t *tabletypes.Table) error {
	_, _ = fmt.Fprintln(w, strings.Join(columnNames(t), ","))
	for r := 0; r < t.NumRows(); r++ {
		values := make([]string, t.NumColumns())
		for c := 0; c < t.NumColumns(); c++ {
			values[c] = escapeCSVCell(formatCell(t.Value(r, c)))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderTableMarkdown(w io.Writer, t *tabletypes.Table) error {
	if t.NumRows() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	cols := columnNames(t)
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))
	for r := 0; r < t.NumRows(); r++ {
		values := make([]string, t.NumColumns())
		for c := 0; c < t.NumColumns(); c++ {
			values[c] = formatCell(t.Value(r, c))
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func columnNames(t *tabletypes.Table) []string {
	names := make([]string, t.NumColumns())
	for i := 0; i < t.NumColumns(); i++ {
		names[i] = t.Column(i).Name
	}
	return names
}

func tableRows(t *tabletypes.Table) [][]any {
	rows := make([][]any, t.NumRows())
	for r := 0; r < t.NumRows(); r++ {
		rows[r] = t.Row(r)
	}
	return rows
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSVCell(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
