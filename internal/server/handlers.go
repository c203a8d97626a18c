package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tabq-io/tabq/internal/chart"
	"github.com/tabq-io/tabq/internal/profile"
	"github.com/tabq-io/tabq/internal/resolve"
	"github.com/tabq-io/tabq/internal/table"
)

const sessionName = "tabq_session"

// maxUploadBytes caps dataset uploads at 32 MiB.
const maxUploadBytes = 32 << 20

// session returns the workspace for the request's browser session, creating
// the session cookie on first contact.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*workspace, error) {
	sess, err := s.sessionStore.Get(r, sessionName)
	if err != nil {
		// A stale or tampered cookie falls back to a fresh session.
		sess, _ = s.sessionStore.New(r, sessionName)
	}
	id, ok := sess.Values["sid"].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		sess.Values["sid"] = id
		if err := sess.Save(r, w); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}
	return s.workspaces.get(id), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleUpload accepts a CSV file under the "file" form field and makes it
// the session's dataset.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ws, err := s.session(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = f.Close() }()

	t, err := table.ReadCSV(f, header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.workspaces.setTable(ws, t)
	s.logger.Info("dataset uploaded", "file", header.Filename, "rows", t.NumRows())
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    t.Name(),
		"rows":    t.NumRows(),
		"columns": columnList(t),
	})
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Kind      string   `json:"kind"`
	Answer    string   `json:"answer"`
	Value     any      `json:"value,omitempty"`
	Columns   []string `json:"columns,omitempty"`
	Rows      [][]any  `json:"rows,omitempty"`
	ErrorKind string   `json:"error_kind,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// handleAsk resolves one question for the session. Failed questions are 200s
// with kind "error"; only infrastructure failures are HTTP errors.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	ws, err := s.session(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		writeError(w, http.StatusBadRequest, "expected JSON body with a question field")
		return
	}

	resolver, err := s.workspaces.resolverFor(ws)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	res, err := resolver.Resolve(r.Context(), req.Question)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := askResponse{Answer: res.Answer}
	switch res.Kind {
	case resolve.KindScalar:
		resp.Kind = "scalar"
		resp.Value = res.Value
	case resolve.KindTable:
		resp.Kind = "table"
		resp.Columns = columnNames(res.Table)
		resp.Rows = tableRows(res.Table)
	case resolve.KindError:
		resp.Kind = "error"
		resp.ErrorKind = string(res.ErrKind)
		resp.Message = res.Message
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleColumns lists the session dataset's columns.
func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	resolver, ok := s.sessionResolver(w, r)
	if !ok {
		return
	}
	t := resolver.Table()
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    t.Name(),
		"rows":    t.NumRows(),
		"columns": columnList(t),
	})
}

type historyEntry struct {
	Question  string    `json:"question"`
	Intent    string    `json:"intent"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// handleHistory returns the session's question log in append order.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	resolver, ok := s.sessionResolver(w, r)
	if !ok {
		return
	}
	entries, err := resolver.Log().Entries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]historyEntry, len(entries))
	for i, e := range entries {
		out[i] = historyEntry{
			Question:  e.Question,
			Intent:    e.Intent,
			Summary:   e.Summary,
			CreatedAt: e.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleChart builds a plottable series: GET /api/chart?x=city&y=price&kind=bar
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	resolver, ok := s.sessionResolver(w, r)
	if !ok {
		return
	}

	kind := chart.Kind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = chart.KindBar
	}
	series, err := chart.Build(resolver.Table(), r.URL.Query().Get("x"), r.URL.Query().Get("y"), kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// handleProfile serves one of the profile reports as columns + rows.
func (s *Server) handleProfile(report string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolver, ok := s.sessionResolver(w, r)
		if !ok {
			return
		}

		t := resolver.Table()
		var out *table.Table
		var err error
		switch report {
		case "schema":
			out = profile.Schema(t)
		case "stats":
			out = profile.Stats(t)
		case "missing":
			out = profile.Missingness(t)
		case "corr":
			out, err = profile.Correlations(t)
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"columns": columnNames(out),
			"rows":    tableRows(out),
		})
	}
}

// sessionResolver fetches the session's resolver, writing the error response
// itself when no dataset is available.
func (s *Server) sessionResolver(w http.ResponseWriter, r *http.Request) (*resolve.Resolver, bool) {
	ws, err := s.session(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	resolver, err := s.workspaces.resolverFor(ws)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return nil, false
	}
	return resolver, true
}

type columnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func columnList(t *table.Table) []columnInfo {
	cols := t.Columns()
	out := make([]columnInfo, len(cols))
	for i, c := range cols {
		out[i] = columnInfo{Name: c.Name, Type: c.Type.String()}
	}
	return out
}

func columnNames(t *table.Table) []string {
	names := make([]string, t.NumColumns())
	for i := 0; i < t.NumColumns(); i++ {
		names[i] = t.Column(i).Name
	}
	return names
}

func tableRows(t *table.Table) [][]any {
	rows := make([][]any, t.NumRows())
	for r := 0; r < t.NumRows(); r++ {
		rows[r] = t.Row(r)
	}
	return rows
}
