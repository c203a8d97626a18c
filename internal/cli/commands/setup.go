package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tabq-io/tabq/internal/cli/config"
	"github.com/tabq-io/tabq/internal/memory"
	"github.com/tabq-io/tabq/internal/resolve"
	"github.com/tabq-io/tabq/internal/sqlexec"
	"github.com/tabq-io/tabq/internal/table"
)

// msgPrinter formats row counts with thousands separators in user-facing
// messages.
var msgPrinter = message.NewPrinter(language.English)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// NewCommandContext creates a CommandContext from the command's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:    config.GetConfig(cmd.Context()),
		Logger: config.GetLogger(cmd.Context()),
	}
}

// LoadDataset loads the configured dataset. The explicit path (from a
// positional argument) wins over the configured file.
func (c *CommandContext) LoadDataset(explicit string) (*table.Table, error) {
	path := explicit
	if path == "" {
		path = c.Cfg.File
	}
	if path == "" {
		return nil, fmt.Errorf("no dataset: pass a file argument, set --file, or set file in tabq.yaml")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := table.ReadCSV(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	c.Logger.Debug("dataset loaded", "file", path, "rows", t.NumRows(), "columns", t.NumColumns())
	return t, nil
}

// NewResolver wires a resolver with a fresh session over the given dataset.
// The returned cleanup closes the session store and must be called.
func (c *CommandContext) NewResolver(t *table.Table) (*resolve.Resolver, func(), error) {
	store, err := memory.OpenStore()
	if err != nil {
		return nil, nil, err
	}
	log := memory.NewLog(store, uuid.NewString())
	exec := sqlexec.New(c.Cfg.BindName, c.Logger)
	r := resolve.New(t, exec, log, c.Logger, resolve.Options{
		FilterLimit: c.Cfg.FilterLimit,
		UniqueCap:   c.Cfg.UniqueCap,
	})
	cleanup := func() { _ = store.Close() }
	return r, cleanup, nil
}

// loadedMessage describes a freshly loaded dataset.
func loadedMessage(t *table.Table) string {
	return msgPrinter.Sprintf("Loaded %q with %d rows, %d columns", t.Name(), t.NumRows(), t.NumColumns())
}
