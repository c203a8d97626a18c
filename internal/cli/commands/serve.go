package commands

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tabq-io/tabq/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port  int
	Watch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tabq HTTP server",
		Long: `Start a local HTTP server exposing the question API.

Each browser session gets its own uploaded dataset and question history.
The server can also preload a shared dataset from --file; with --watch the
shared dataset reloads when the source file changes.`,
		Example: `  # Serve with a preloaded dataset
  tabq serve -f sales.csv

  # Custom port
  tabq serve -f sales.csv --port 3000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 4321)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload the preloaded dataset on file changes")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg

	port := cfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	watch := cfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	srvCfg := server.Config{
		Port:          port,
		BindName:      cfg.BindName,
		FilterLimit:   cfg.FilterLimit,
		UniqueCap:     cfg.UniqueCap,
		DatasetPath:   cfg.File,
		Watch:         watch,
		SessionSecret: sessionSecret(cfg.SessionSecret),
		Logger:        cmdCtx.Logger,
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return err
	}
	defer func() { _ = srv.Close() }()

	fmt.Printf("Starting server on http://localhost:%d\n", port)
	fmt.Println("Press Ctrl+C to stop")

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return srv.Serve(ctx)
}

// sessionSecret returns the configured cookie secret, or a random one scoped
// to this process. Sessions then reset on restart, which matches the
// in-memory lifetime of everything else.
func sessionSecret(configured string) string {
	if configured != "" {
		return configured
	}
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
