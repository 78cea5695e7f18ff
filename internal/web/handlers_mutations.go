package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/JonMunkholm/csvedit/internal/logging"
	"github.com/JonMunkholm/csvedit/internal/web/templates"
)

// SetCellRequest is the body of POST /cell. Browsers send it form-encoded,
// API clients as JSON.
type SetCellRequest struct {
	Version uint64 `json:"version"`
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Value   string `json:"value"`
}

// SetCellResponse echoes the applied edit and the new table version.
type SetCellResponse struct {
	Version uint64 `json:"version"`
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Value   string `json:"value"`
}

// handleSetCell applies one cell edit to the caller's table.
func (s *Server) handleSetCell(w http.ResponseWriter, r *http.Request) {
	sess, err := s.existingSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	req, err := parseSetCell(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	_, version, err := sess.SetCell(req.Version, req.Row, req.Column, req.Value)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "session_id", sess.ID).Debug("cell updated",
		"row", req.Row,
		"column", req.Column,
		"version", version,
	)

	switch {
	case isHTMX(r):
		renderHTML(w, r, http.StatusOK, templates.VersionMarker(version, true))
	case wantsJSON(r):
		writeJSON(w, r, http.StatusOK, SetCellResponse{
			Version: version,
			Row:     req.Row,
			Column:  req.Column,
			Value:   req.Value,
		})
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// parseSetCell reads the edit from a JSON or form body. A version that does
// not parse can never match and is reported as stale; a row that does not
// parse addresses no cell.
func parseSetCell(r *http.Request) (SetCellRequest, error) {
	var req SetCellRequest

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("%w: invalid request body: %v", core.ErrCellOutOfRange, err)
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("%w: invalid form: %v", core.ErrCellOutOfRange, err)
	}

	version, err := strconv.ParseUint(r.PostForm.Get("version"), 10, 64)
	if err != nil {
		return req, fmt.Errorf("%w: version %q", core.ErrStaleTable, r.PostForm.Get("version"))
	}
	row, err := strconv.Atoi(r.PostForm.Get("row"))
	if err != nil {
		return req, fmt.Errorf("%w: row %q", core.ErrCellOutOfRange, r.PostForm.Get("row"))
	}

	req.Version = version
	req.Row = row
	req.Column = r.PostForm.Get("column")
	req.Value = r.PostForm.Get("value")
	return req, nil
}

// handleClearError dismisses the caller's error message.
func (s *Server) handleClearError(w http.ResponseWriter, r *http.Request) {
	if sess, err := s.existingSession(r); err == nil {
		sess.ClearError()
	}

	switch {
	case isHTMX(r):
		// Empty body: the error region is swapped to nothing.
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	case wantsJSON(r):
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
