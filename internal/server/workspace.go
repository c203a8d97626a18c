package server

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tabq-io/tabq/internal/memory"
	"github.com/tabq-io/tabq/internal/resolve"
	"github.com/tabq-io/tabq/internal/sqlexec"
	"github.com/tabq-io/tabq/internal/table"
)

// workspace is one browser session's state: its dataset, resolver, and
// question history. A workspace without an uploaded dataset falls back to
// the server's shared dataset.
type workspace struct {
	mu       sync.Mutex
	id       string
	resolver *resolve.Resolver
	ownsData bool // true once the session uploaded its own dataset
}

// workspaces tracks per-session workspaces and builds resolvers over the
// shared session store.
type workspaces struct {
	mu     sync.Mutex
	byID   map[string]*workspace
	store  memory.Store
	logger *slog.Logger
	opts   resolve.Options
	bind   string

	sharedMu sync.RWMutex
	shared   *table.Table
}

func newWorkspaces(store memory.Store, bind string, opts resolve.Options, logger *slog.Logger) *workspaces {
	return &workspaces{
		byID:   make(map[string]*workspace),
		store:  store,
		logger: logger,
		opts:   opts,
		bind:   bind,
	}
}

// setShared swaps the server-wide preloaded dataset. Sessions that have not
// uploaded their own dataset pick it up on their next question.
func (ws *workspaces) setShared(t *table.Table) {
	ws.sharedMu.Lock()
	ws.shared = t
	ws.sharedMu.Unlock()

	// Sessions still on the shared dataset follow the reload; sessions with
	// their own upload keep it.
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for _, w := range ws.byID {
		w.mu.Lock()
		if w.resolver != nil && !w.ownsData {
			w.resolver = resolve.New(t, sqlexec.New(ws.bind, ws.logger), w.resolver.Log(), ws.logger, ws.opts)
		}
		w.mu.Unlock()
	}
}

func (ws *workspaces) sharedTable() *table.Table {
	ws.sharedMu.RLock()
	defer ws.sharedMu.RUnlock()
	return ws.shared
}

// get returns the workspace for a session id, creating it on first use.
func (ws *workspaces) get(id string) *workspace {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if w, ok := ws.byID[id]; ok {
		return w
	}
	w := &workspace{id: id}
	ws.byID[id] = w
	return w
}

// resolverFor returns the session's resolver, building one over the shared
// dataset when the session has not uploaded its own.
func (ws *workspaces) resolverFor(w *workspace) (*resolve.Resolver, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.resolver != nil {
		return w.resolver, nil
	}
	shared := ws.sharedTable()
	if shared == nil {
		return nil, fmt.Errorf("no dataset loaded; upload one first")
	}
	w.resolver = ws.newResolver(shared)
	return w.resolver, nil
}

// setTable replaces the session's dataset with an uploaded one. History
// continues in the same session log.
func (ws *workspaces) setTable(w *workspace, t *table.Table) *resolve.Resolver {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.resolver != nil {
		// Keep the session id so history survives the re-upload.
		old := w.resolver.Log()
		w.resolver = resolve.New(t, sqlexec.New(ws.bind, ws.logger), old, ws.logger, ws.opts)
	} else {
		w.resolver = ws.newResolver(t)
	}
	w.ownsData = true
	return w.resolver
}

func (ws *workspaces) newResolver(t *table.Table) *resolve.Resolver {
	log := memory.NewLog(ws.store, uuid.NewString())
	return resolve.New(t, sqlexec.New(ws.bind, ws.logger), log, ws.logger, ws.opts)
}
