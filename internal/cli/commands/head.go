package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewHeadCommand creates the head command.
func NewHeadCommand() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "head [file]",
		Short: "Show the first rows of the dataset",
		Example: `  tabq head sales.csv
  tabq head sales.csv -n 10
  tabq head -f sales.csv --output csv`,
		Args: cobra.MaximumNArgs(1),
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

			n := rows
			if !cmd.Flags().Changed("rows") {
				n = cmdCtx.Cfg.HeadRows
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), loadedMessage(t))
			return renderDataTable(cmd.OutOrStdout(), t.Head(n), cmdCtx.Cfg.Output)
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 0, "Number of rows to show")

	return cmd
}
