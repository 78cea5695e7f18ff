package web

import (
	"net/http"

	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/JonMunkholm/csvedit/internal/web/templates"
)

// TableResponse is the JSON form of a session snapshot.
type TableResponse struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
	Version uint64              `json:"version"`
	Edits   uint64              `json:"edits"`
	Error   string              `json:"error,omitempty"`
	Pending bool                `json:"pending"`
}

func toTableResponse(view core.View) TableResponse {
	resp := TableResponse{
		Columns: make([]string, len(view.Table.Columns)),
		Rows:    make([]map[string]string, len(view.Table.Rows)),
		Version: view.Version,
		Edits:   view.Edits,
		Error:   view.Error,
		Pending: view.Pending,
	}
	copy(resp.Columns, view.Table.Columns)
	for i, row := range view.Table.Rows {
		out := make(map[string]string, len(row))
		for col, v := range row {
			out[col] = v
		}
		resp.Rows[i] = out
	}
	return resp
}

// HealthResponse reports process health for load balancers.
type HealthResponse struct {
	Status   string             `json:"status"`
	Sessions int                `json:"sessions"`
	Ingest   core.LimiterStatus `json:"ingest"`
}

// handleIndex renders the editor page for the caller's session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	page := templates.Page(sess.Snapshot(), int64(s.cfg.Upload.MaxFileSize))
	renderHTML(w, r, http.StatusOK, page)
}

// handleTable returns the caller's current table as JSON.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	writeJSON(w, r, http.StatusOK, toTableResponse(sess.Snapshot()))
}

// handleHealth reports session count and ingest slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:   "ok",
		Sessions: s.store.Len(),
		Ingest:   s.limiter.Status(),
	})
}
