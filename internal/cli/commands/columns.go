package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewColumnsCommand creates the columns command.
func NewColumnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "columns [file]",
		Short: "List the dataset's columns and their inferred types",
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

			for _, c := range t.Columns() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.Name, c.Type)
			}
			return nil
		},
	}
}
