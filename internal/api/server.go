// Package api provides the HTTP server and handlers for the audit dashboard.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/trustnocode/auditdash/internal/artifacts"
	"github.com/trustnocode/auditdash/internal/browser"
	"github.com/trustnocode/auditdash/internal/fserr"
	"github.com/trustnocode/auditdash/internal/logging"
	"github.com/trustnocode/auditdash/internal/metrics"
	"github.com/trustnocode/auditdash/internal/paths"
	"github.com/trustnocode/auditdash/internal/reports"
	"github.com/trustnocode/auditdash/internal/volumes"
)

// maxBodySize caps JSON request bodies, including saved bootstrap prompts.
const maxBodySize = 10 << 20

// Options configures the optional parts of the server.
type Options struct {
	// StaticDir, if set, is served for non-API GET requests with an
	// index.html fallback for client-side routes.
	StaticDir string

	// CORSOrigin is sent as Access-Control-Allow-Origin. "*" echoes the
	// request origin; empty disables CORS headers.
	CORSOrigin string

	// DefaultRoot supplies the browse directory when the caller omits one.
	DefaultRoot func() string
}

// Server is the auditdash HTTP server.
type Server struct {
	browser *browser.Browser
	reports *reports.Repository
	store   *artifacts.Store
	volumes volumes.Prober
	opts    Options
}

// NewServer creates a new server.
func NewServer(store *artifacts.Store, prober volumes.Prober, opts Options) *Server {
	if opts.DefaultRoot == nil {
		opts.DefaultRoot = browser.DefaultRoot
	}
	return &Server{
		browser: browser.New(),
		reports: reports.New(),
		store:   store,
		volumes: prober,
		opts:    opts,
	}
}

// Handler returns the HTTP handler with logging, CORS and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	// Filesystem
	mux.HandleFunc("GET /api/drives", s.handleDrives)
	mux.HandleFunc("POST /api/validate", s.handleValidate)
	mux.HandleFunc("GET /api/browse", s.handleBrowse)

	// Reports
	mux.HandleFunc("GET /api/reports", s.handleReports)
	mux.HandleFunc("GET /api/report", s.handleReport)

	// Bootstrap artifacts
	mux.HandleFunc("POST /api/bootstrap/save", s.handleSave)
	mux.HandleFunc("GET /api/bootstrap/list", s.handleList)
	mux.HandleFunc("POST /api/bootstrap/cleanup", s.handleCleanup)
	mux.HandleFunc("DELETE /api/bootstrap/{filename}", s.handleDelete)

	// Unknown API routes and the optional UI
	mux.HandleFunc("/", s.handleFallback)

	return logging.Middleware(s.cors(metrics.Middleware(mux)))
}

func (s *Server) cors(next http.Handler) http.Handler {
	if s.opts.CORSOrigin == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := s.opts.CORSOrigin
		if origin == "*" {
			if reqOrigin := r.Header.Get("Origin"); reqOrigin != "" {
				origin = reqOrigin
			}
		}
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (s *Server) handleDrives(w http.ResponseWriter, r *http.Request) {
	drives := s.volumes.ListVolumes(r.Context())
	if drives == nil {
		drives = []string{}
	}
	s.writeJSON(w, http.StatusOK, DrivesResponse{Drives: drives})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context())

	var req ValidateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		logger.Warn("validate: bad request body", zap.Error(err))
		s.writeJSON(w, http.StatusOK, ValidateResponse{Error: "Failed to validate path"})
		return
	}

	mode := paths.ParseMode(req.Type)
	res, err := paths.Resolve(req.Path, mode)
	if err != nil {
		reason := fserr.ReasonOf(err)
		msg := reason.Message()
		if reason == "" {
			reason, msg = "error", "Failed to validate path"
		}
		metrics.RecordValidation(mode.String(), string(reason))
		logger.Debug("path rejected",
			zap.String("path", req.Path),
			zap.String("mode", mode.String()),
			zap.Error(err))
		s.writeJSON(w, http.StatusOK, ValidateResponse{Error: msg})
		return
	}

	metrics.RecordValidation(mode.String(), "valid")
	s.writeJSON(w, http.StatusOK, ValidateResponse{Valid: true, WillCreate: res.WillCreate})
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("path")
	if dir == "" {
		dir = s.opts.DefaultRoot()
	}

	listing, err := s.browser.List(dir)
	if err != nil {
		s.sendFSError(w, r, err, http.StatusInternalServerError, "Failed to browse directory")
		return
	}
	s.writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("path")
	if dir == "" {
		s.sendError(w, http.StatusBadRequest, fserr.PathRequired.Message())
		return
	}

	list, err := s.reports.List(dir)
	if err != nil {
		s.sendFSError(w, r, err, http.StatusInternalServerError, "Failed to list reports")
		return
	}
	s.writeJSON(w, http.StatusOK, ReportsResponse{Reports: list})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("path")
	if file == "" {
		s.sendError(w, http.StatusBadRequest, fserr.PathRequired.Message())
		return
	}

	content, err := s.reports.Read(file)
	if err != nil {
		s.sendFSError(w, r, err, http.StatusNotFound, "Failed to read report")
		return
	}
	s.writeJSON(w, http.StatusOK, ReportResponse{Content: content})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context())

	var req SaveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.sendError(w, http.StatusRequestEntityTooLarge, "Content too large")
			return
		}
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Content == "" {
		s.sendError(w, http.StatusBadRequest, "Content is required")
		return
	}

	rec, err := s.store.Save(req.Content, req.Name)
	if err != nil {
		logger.Error("save bootstrap failed", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "Failed to save bootstrap file")
		return
	}

	logger.Info("bootstrap saved", zap.String("filename", rec.Name), zap.Int64("size", rec.Size))
	s.writeJSON(w, http.StatusOK, SaveResponse{
		Success:   true,
		Filename:  rec.Name,
		Path:      rec.Path,
		ExpiresIn: formatHours(s.store.TTL()),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	files, err := s.store.List()
	if err != nil {
		logging.WithContext(r.Context()).Error("list bootstrap failed", zap.Error(err))
		files = []artifacts.Record{}
	}
	s.writeJSON(w, http.StatusOK, ArtifactListResponse{Files: files})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context())

	deleted, err := s.store.Cleanup(time.Now())
	if err != nil {
		logger.Error("cleanup failed", zap.Int("deleted", deleted), zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "Failed to cleanup temp files")
		return
	}
	if deleted > 0 {
		logger.Info("expired bootstrap files removed", zap.Int("deleted", deleted))
	}
	s.writeJSON(w, http.StatusOK, CleanupResponse{
		Success: true,
		Deleted: deleted,
		Message: fmt.Sprintf("Removed %d file(s) older than %s", deleted, formatHours(s.store.TTL())),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if err := s.store.Delete(name); err != nil {
		s.sendFSError(w, r, err, http.StatusNotFound, "Failed to delete file")
		return
	}
	logging.WithContext(r.Context()).Info("bootstrap deleted", zap.String("filename", name))
	s.writeJSON(w, http.StatusOK, DeleteResponse{Success: true})
}

func (s *Server) handleFallback(w http.ResponseWriter, r *http.Request) {
	if s.opts.StaticDir == "" || strings.HasPrefix(r.URL.Path, "/api/") ||
		(r.Method != http.MethodGet && r.Method != http.MethodHead) {
		s.sendError(w, http.StatusNotFound, "Endpoint not found")
		return
	}

	name := filepath.Join(s.opts.StaticDir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		http.ServeFile(w, r, name)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.opts.StaticDir, "index.html"))
}

// formatHours renders a TTL the way the UI displays it, e.g. "24 hours".
func formatHours(d time.Duration) string {
	h := d.Hours()
	if h == float64(int64(h)) {
		return fmt.Sprintf("%d hours", int64(h))
	}
	return fmt.Sprintf("%.1f hours", h)
}

// statusFor maps a classified error to an HTTP status. notFound is the
// status used for a missing target.
func statusFor(err error, notFound int) int {
	switch fserr.ReasonOf(err) {
	case fserr.NotFound:
		return notFound
	case fserr.PathRequired, fserr.PathTraversal, fserr.PathEscape, fserr.NotAbsolute,
		fserr.InvalidType, fserr.UnsupportedType:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// sendFSError logs err and answers with a taxonomy message. Server errors get
// the generic fallback message so OS error text never reaches the caller.
func (s *Server) sendFSError(w http.ResponseWriter, r *http.Request, err error, notFound int, fallback string) {
	code := statusFor(err, notFound)
	msg := fallback
	switch {
	case code == http.StatusNotFound:
		msg = "File not found"
	case code < http.StatusInternalServerError:
		msg = fserr.ReasonOf(err).Message()
	}

	logger := logging.WithContext(r.Context())
	if code >= http.StatusInternalServerError {
		logger.Error(fallback, zap.Error(err))
	} else {
		logger.Warn(fallback, zap.Int("status", code), zap.Error(err))
	}
	s.sendError(w, code, msg)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("encode response failed", zap.Error(err))
	}
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
