// Package server exposes the question API over HTTP. Each browser session
// gets its own dataset and question history; a shared dataset can be
// preloaded from disk and reloaded on file changes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/tabq-io/tabq/internal/memory"
	"github.com/tabq-io/tabq/internal/resolve"
	"github.com/tabq-io/tabq/internal/table"
)

// Config holds configuration for the HTTP server.
type Config struct {
	Port          int
	BindName      string
	FilterLimit   int
	UniqueCap     int
	DatasetPath   string // optional shared dataset, loaded at startup
	Watch         bool   // reload the shared dataset when the file changes
	SessionSecret string
	Logger        *slog.Logger
}

// Server is the tabq HTTP server.
type Server struct {
	cfg          Config
	sessionStore *sessions.CookieStore
	store        *memory.SQLiteStore
	workspaces   *workspaces
	logger       *slog.Logger
}

// New creates a server, opening the session store and preloading the shared
// dataset when configured.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := memory.OpenStore()
	if err != nil {
		return nil, err
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400)
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	s := &Server{
		cfg:          cfg,
		sessionStore: sessionStore,
		store:        store,
		logger:       logger,
		workspaces: newWorkspaces(store, cfg.BindName, resolve.Options{
			FilterLimit: cfg.FilterLimit,
			UniqueCap:   cfg.UniqueCap,
		}, logger),
	}

	if cfg.DatasetPath != "" {
		if err := s.loadShared(); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases the session store.
func (s *Server) Close() error {
	return s.store.Close()
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("starting server", "addr", fmt.Sprintf("http://localhost:%d", s.cfg.Port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.Watch && s.cfg.DatasetPath != "" {
		eg.Go(func() error {
			return s.watchDataset(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/ask", s.handleAsk)
		r.Get("/columns", s.handleColumns)
		r.Get("/history", s.handleHistory)
		r.Get("/chart", s.handleChart)
		r.Route("/profile", func(r chi.Router) {
			r.Get("/schema", s.handleProfile("schema"))
			r.Get("/stats", s.handleProfile("stats"))
			r.Get("/missing", s.handleProfile("missing"))
			r.Get("/corr", s.handleProfile("corr"))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// loadShared (re)loads the shared dataset from disk.
func (s *Server) loadShared() error {
	f, err := os.Open(s.cfg.DatasetPath)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := table.ReadCSV(f, filepath.Base(s.cfg.DatasetPath))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.cfg.DatasetPath, err)
	}
	s.workspaces.setShared(t)
	s.logger.Info("dataset loaded", "file", s.cfg.DatasetPath, "rows", t.NumRows())
	return nil
}

// watchDataset reloads the shared dataset when the source file is rewritten.
func (s *Server) watchDataset(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory, not the file: editors replace files on save.
	if err := watcher.Add(filepath.Dir(s.cfg.DatasetPath)); err != nil {
		s.logger.Error("failed to watch dataset directory", "error", err)
		return nil
	}

	target := filepath.Clean(s.cfg.DatasetPath)
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != target {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("dataset changed, reloading", "file", event.Name)
				if err := s.loadShared(); err != nil {
					s.logger.Error("reload failed", "error", err)
				}
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}
