package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tabq-io/tabq/internal/cli/config"
)

// sampleCSV is written by init --example so every documented question has
// data to run against.
const sampleCSV = `city,price,qty,sold_at
NY,100,1,2024-01-05
LA,200,2,2024-01-06
NY,150,3,2024-01-07
SF,300,,2024-01-08
LA,,2,2024-01-09
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a tabq project",
		Long: `Initialize a tabq project with a default configuration file.

This creates a tabq.yaml with the default settings spelled out. Use
--example to also write a small sample dataset wired into the config.`,
		Example: `  # Initialize in current directory
  tabq init

  # Initialize with a sample dataset
  tabq init --example

  # Initialize in a new directory
  tabq init my-project --example`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force, example)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Write a sample dataset alongside the config")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force, example bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "tabq.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("tabq.yaml already exists. Use --force to overwrite")
	}

	cfg := config.Config{
		BindName:    config.DefaultBindName,
		FilterLimit: config.DefaultFilterLimit,
		UniqueCap:   config.DefaultUniqueCap,
		HeadRows:    config.DefaultHeadRows,
		Port:        config.DefaultPort,
		Watch:       true,
		Output:      config.DefaultOutput,
	}
	if example {
		cfg.File = "sample.csv"
		samplePath := filepath.Join(dir, "sample.csv")
		if err := os.WriteFile(samplePath, []byte(sampleCSV), 0o644); err != nil {
			return fmt.Errorf("failed to write sample dataset: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", samplePath)
	}

	out, err := yaml.Marshal(configFile{
		File:        cfg.File,
		BindName:    cfg.BindName,
		FilterLimit: cfg.FilterLimit,
		UniqueCap:   cfg.UniqueCap,
		HeadRows:    cfg.HeadRows,
		Port:        cfg.Port,
		Watch:       cfg.Watch,
		Output:      cfg.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, out, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", configPath)

	if example {
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), `Try: tabq ask "average of price"`)
	}
	return nil
}

// configFile mirrors config.Config with yaml tags so the emitted keys keep
// a stable order.
type configFile struct {
	File        string `yaml:"file"`
	BindName    string `yaml:"bind_name"`
	FilterLimit int    `yaml:"filter_limit"`
	UniqueCap   int    `yaml:"unique_cap"`
	HeadRows    int    `yaml:"head_rows"`
	Port        int    `yaml:"port"`
	Watch       bool   `yaml:"watch"`
	Output      string `yaml:"output"`
}
