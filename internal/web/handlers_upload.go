package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/JonMunkholm/csvedit/internal/logging"
	"github.com/JonMunkholm/csvedit/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size for part headers and
// boundaries.
const multipartOverhead = 64 << 10

// handleUpload ingests the uploaded file into the caller's session.
//
// The multipart body is streamed straight into the decoder; the declared
// type is the one the browser put on the file part. Ingest failures are
// recorded on the session by core, so the response is the re-rendered
// workspace showing the message with the previous table intact.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	logger := logging.WithFields(r.Context(), "session_id", sess.ID)

	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.Upload.MaxFileSize)+multipartOverhead)

	part, err := filePart(r)
	if err != nil {
		if errors.Is(err, core.ErrFileTooLarge) {
			sess.Fail(core.MapError(err).Message)
			s.respondIngest(w, r, sess.Snapshot(), err)
			return
		}
		s.respondError(w, r, err)
		return
	}
	defer part.Close()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	f := core.File{
		Name:        part.FileName(),
		ContentType: part.Header.Get("Content-Type"),
		Body:        part,
	}
	logger.Info("upload started", "file", f.Name, "content_type", f.ContentType)

	var view core.View
	err = s.limiter.Do(ctx, func(ctx context.Context) error {
		var ingestErr error
		view, ingestErr = sess.Ingest(ctx, s.ingestor, f)
		return ingestErr
	})

	switch {
	case err == nil:
		logger.Info("upload ingested",
			"file", f.Name,
			"columns", len(view.Table.Columns),
			"rows", view.Table.Len(),
			"version", view.Version,
		)
		s.respondIngest(w, r, view, nil)

	case errors.Is(err, core.ErrSuperseded):
		logger.Info("upload superseded by a newer one", "file", f.Name)
		s.respondIngest(w, r, sess.Snapshot(), nil)

	case isIngestFailure(err):
		logger.Warn("upload rejected", "file", f.Name, "error", err)
		s.respondIngest(w, r, view, err)

	default:
		// Busy, timed out or cancelled: the session is unchanged.
		s.respondError(w, r, err)
	}
}

// respondIngest answers an upload with the workspace for htmx, the table or
// error for JSON clients and a redirect back to the page otherwise.
func (s *Server) respondIngest(w http.ResponseWriter, r *http.Request, view core.View, ingestErr error) {
	switch {
	case isHTMX(r):
		status := http.StatusOK
		if ingestErr != nil {
			status = statusFor(ingestErr)
		}
		renderHTML(w, r, status, templates.Workspace(view))
	case wantsJSON(r):
		if ingestErr != nil {
			respondErrorJSON(w, core.MapError(ingestErr), statusFor(ingestErr))
			return
		}
		writeJSON(w, r, http.StatusOK, toTableResponse(view))
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// isIngestFailure reports whether err is a file problem that core has
// already recorded on the session.
func isIngestFailure(err error) bool {
	var ie *core.IngestError
	return errors.As(err, &ie)
}

// filePart advances the multipart reader to the "file" part. A part with no
// file name is what browsers send when nothing was selected.
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, core.ErrNoFile
		}
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				return nil, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
			}
			return nil, fmt.Errorf("read upload: %w", err)
		}
		if part.FormName() == "file" && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}
