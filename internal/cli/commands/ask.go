package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tabq-io/tabq/internal/resolve"
)

// questionResolver is the slice of the resolver the ask pipeline needs.
type questionResolver interface {
	Resolve(ctx context.Context, question string) (*resolve.Result, error)
}

// AskOptions holds options for the ask command.
type AskOptions struct {
	Input string
}

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	opts := &AskOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the dataset",
		Long: `Ask a question about the loaded dataset.

Questions are simple phrases or raw SQL prefixed with "sql:". When invoked
without a question on a terminal, enters interactive REPL mode. Piped input
is treated as one question per line.`,
		Example: `  # One-shot questions
  tabq ask -f sales.csv "average of price"
  tabq ask -f sales.csv "filter price > 100 and show top 5"
  tabq ask -f sales.csv "sql: select city, sum(price) from df group by city"

  # One question per line from a pipe
  cat questions.txt | tabq ask -f sales.csv

  # Interactive mode
  tabq ask -f sales.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read questions from file, one per line")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string, opts *AskOptions) error {
	cmdCtx := NewCommandContext(cmd)

	t, err := cmdCtx.LoadDataset("")
	if err != nil {
		return err
	}

	resolver, cleanup, err := cmdCtx.NewResolver(t)
	if err != nil {
		return err
	}
	defer cleanup()

	switch {
	case len(args) > 0:
		return askOne(cmd, resolver, strings.Join(args, " "), cmdCtx.Cfg.Output)
	case opts.Input != "":
		f, err := os.Open(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read questions: %w", err)
		}
		defer func() { _ = f.Close() }()
		return askEach(cmd, resolver, f, cmdCtx.Cfg.Output)
	case !isTerminal(os.Stdin):
		return askEach(cmd, resolver, os.Stdin, cmdCtx.Cfg.Output)
	default:
		return runAskREPL(cmd, cmdCtx, resolver)
	}
}

func askOne(cmd *cobra.Command, resolver questionResolver, question, format string) error {
	res, err := resolver.Resolve(cmd.Context(), question)
	if err != nil {
		return err
	}
	return renderResult(cmd.OutOrStdout(), res, format)
}

// askEach answers one question per line, skipping blanks and # comments.
func askEach(cmd *cobra.Command, resolver questionResolver, r io.Reader, format string) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := askOne(cmd, resolver, line, format); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read questions: %w", err)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
