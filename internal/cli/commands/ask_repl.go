package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/tabq-io/tabq/internal/profile"
	"github.com/tabq-io/tabq/internal/resolve"
)

func runAskREPL(cmd *cobra.Command, cmdCtx *CommandContext, resolver *resolve.Resolver) error {
	historyFile := filepath.Join(os.TempDir(), "tabq_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "tabq> ",
		HistoryFile:     historyFile,
		AutoComplete:    newAskCompleter(resolver),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, loadedMessage(resolver.Table()))
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if handleAskDotCommand(cmd, cmdCtx, resolver, line) {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		if err := askOne(cmd, resolver, line, cmdCtx.Cfg.Output); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(out)
	}

	return nil
}

func handleAskDotCommand(cmd *cobra.Command, cmdCtx *CommandContext, resolver *resolve.Resolver, line string) bool {
	out := cmd.OutOrStdout()
	command := strings.ToLower(strings.Fields(line)[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printAskHelp(out)
		return true

	case ".columns":
		for _, c := range resolver.Table().Columns() {
			_, _ = fmt.Fprintf(out, "  %s (%s)\n", c.Name, c.Type)
		}
		return true

	case ".schema":
		if err := renderDataTable(out, profile.Schema(resolver.Table()), cmdCtx.Cfg.Output); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".history":
		entries, err := resolver.Log().Entries(cmd.Context())
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return true
		}
		if len(entries) == 0 {
			_, _ = fmt.Fprintln(out, "(no questions yet)")
			return true
		}
		for i, e := range entries {
			_, _ = fmt.Fprintf(out, "%3d  %-40s %s\n", i+1, e.Question, e.Summary)
		}
		return true

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

func printAskHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .columns        List dataset columns
  .schema         Show the dataset schema with null counts
  .history        Show this session's questions and outcomes
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Questions:
  average of <col>     sum of <col>     max of <col>     min of <col>
  count rows           unique values of <col>
  filter <col> > 10 and show top 5
  sql: select * from df limit 3
`
	_, _ = fmt.Fprintln(w, help)
}

// newAskCompleter completes column names and dot-commands.
func newAskCompleter(resolver *resolve.Resolver) *readline.PrefixCompleter {
	cols := resolver.Table().Columns()
	colItems := make([]readline.PrefixCompleterInterface, len(cols))
	for i, c := range cols {
		colItems[i] = readline.PcItem(c.Name)
	}

	items := []readline.PrefixCompleterInterface{
		readline.PcItem("average", readline.PcItem("of", colItems...)),
		readline.PcItem("sum", readline.PcItem("of", colItems...)),
		readline.PcItem("max", readline.PcItem("of", colItems...)),
		readline.PcItem("min", readline.PcItem("of", colItems...)),
		readline.PcItem("count", readline.PcItem("rows")),
		readline.PcItem("unique", readline.PcItem("values", readline.PcItem("of", colItems...))),
		readline.PcItem("filter", colItems...),
		readline.PcItem("sql:"),
		readline.PcItem(".help"),
		readline.PcItem(".columns"),
		readline.PcItem(".schema"),
		readline.PcItem(".history"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	}
	return readline.NewPrefixCompleter(items...)
}
