package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabq-io/tabq/internal/profile"
	"github.com/tabq-io/tabq/internal/table"
)

// NewProfileCommand creates the profile command and its report subcommands.
func NewProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Summarize the dataset",
		Long: `Summarize the loaded dataset.

Reports: schema (columns, types, null counts), stats (numeric summaries),
missing (null percentages), and corr (pairwise correlations).`,
		Example: `  tabq profile schema -f sales.csv
  tabq profile stats -f sales.csv
  tabq profile corr -f sales.csv --output json`,
	}

	cmd.AddCommand(newProfileReportCommand("schema", "Show columns, types, and null counts",
		func(t *table.Table) (*table.Table, error) { return profile.Schema(t), nil }))
	cmd.AddCommand(newProfileReportCommand("stats", "Show numeric column statistics",
		func(t *table.Table) (*table.Table, error) { return profile.Stats(t), nil }))
	cmd.AddCommand(newProfileReportCommand("missing", "Show per-column missingness",
		func(t *table.Table) (*table.Table, error) { return profile.Missingness(t), nil }))
	cmd.AddCommand(newProfileReportCommand("corr", "Show pairwise correlations of numeric columns",
		profile.Correlations))

	return cmd
}

func newProfileReportCommand(name, short string, report func(*table.Table) (*table.Table, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name + " [file]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)

			var explicit string
			if len(args) > 0 {
				explicit = args[0]
			}
			t, err := cmdCtx.LoadDataset(explicit)
			if err != nil {
				return err
			}

			out, err := report(t)
			if errors.Is(err, profile.ErrNoNumericPairs) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No numeric column pairs to correlate")
				return nil
			}
			if err != nil {
				return err
			}
			return renderDataTable(cmd.OutOrStdout(), out, cmdCtx.Cfg.Output)
		},
	}
}
