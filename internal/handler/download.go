package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/narratia/narratia-api/internal/metrics"
	"github.com/narratia/narratia-api/internal/middleware"
	"github.com/narratia/narratia-api/internal/security"
)

// downloadableFiles is the fixed whitelist of published lead-magnet
// PDFs. Nothing outside this set is ever served, regardless of what
// sits in the downloads directory.
var downloadableFiles = map[string]bool{
	"odbicie-umyslu.pdf":         true,
	"reflection-of-the-mind.pdf": true,
	"fragmenty-ksiazek.pdf":      true,
	"chapter-samples.pdf":        true,
}

// DownloadHandler serves the lead-magnet PDFs.
type DownloadHandler struct {
	dir     string
	events  *security.Logger
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewDownloadHandler creates a new DownloadHandler serving files from dir.
func NewDownloadHandler(dir string, events *security.Logger, recorder metrics.Recorder, logger *slog.Logger) *DownloadHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &DownloadHandler{
		dir:     dir,
		events:  events,
		metrics: recorder,
		logger:  logger,
	}
}

// Serve handles GET /api/download/{filename}.
func (h *DownloadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if filename == "" || strings.Contains(filename, "..") ||
		strings.ContainsAny(filename, "/\\") || filename != filepath.Base(filename) {
		h.logEvent(r, security.EventPathTraversalAttempt, filename)
		h.metrics.IncDownload("rejected")
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	if !downloadableFiles[filename] {
		h.logEvent(r, security.EventFileNotWhitelisted, filename)
		h.metrics.IncDownload("rejected")
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	f, err := os.Open(filepath.Join(h.dir, filename))
	if err != nil {
		h.logger.Error("download_open_failed", "filename", filename, "error", err)
		h.metrics.IncDownload("missing")
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.logger.Error("download_stat_failed", "filename", filename, "error", err)
		h.metrics.IncDownload("missing")
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))

	if _, err := io.Copy(w, f); err != nil {
		// Response is already streaming; the client likely went away.
		h.logger.Warn("download_copy_failed", "filename", filename, "error", err)
		return
	}

	h.logger.Info("pdf_download",
		"filename", filename,
		"user_agent", r.UserAgent(),
		"referer", r.Referer(),
	)
	h.metrics.IncDownload("served")
}

func (h *DownloadHandler) logEvent(r *http.Request, eventType security.EventType, filename string) {
	if h.events == nil {
		return
	}
	h.events.Log(r.Context(), security.Event{
		Type:     eventType,
		Endpoint: "/api/download",
		IP:       middleware.ClientIdentifier(r),
		Details:  map[string]any{"filename": filename},
	})
}
