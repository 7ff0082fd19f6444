package api

import (
	"github.com/trustnocode/auditdash/internal/artifacts"
	"github.com/trustnocode/auditdash/internal/reports"
)

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// DrivesResponse is returned by GET /api/drives.
type DrivesResponse struct {
	Drives []string `json:"drives"`
}

// ValidateRequest is the body for POST /api/validate.
type ValidateRequest struct {
	Path string `json:"path"`
	Type string `json:"type"` // "read" or "write"
}

// ValidateResponse is returned by POST /api/validate. Failures are reported
// here rather than through the HTTP status.
type ValidateResponse struct {
	Valid      bool   `json:"valid"`
	WillCreate bool   `json:"willCreate,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ReportsResponse is returned by GET /api/reports.
type ReportsResponse struct {
	Reports []reports.Descriptor `json:"reports"`
}

// ReportResponse is returned by GET /api/report.
type ReportResponse struct {
	Content string `json:"content"`
}

// SaveRequest is the body for POST /api/bootstrap/save.
type SaveRequest struct {
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// SaveResponse is returned by POST /api/bootstrap/save.
type SaveResponse struct {
	Success   bool   `json:"success"`
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	ExpiresIn string `json:"expiresIn"`
}

// ArtifactListResponse is returned by GET /api/bootstrap/list.
type ArtifactListResponse struct {
	Files []artifacts.Record `json:"files"`
}

// CleanupResponse is returned by POST /api/bootstrap/cleanup.
type CleanupResponse struct {
	Success bool   `json:"success"`
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
}

// DeleteResponse is returned by DELETE /api/bootstrap/{filename}.
type DeleteResponse struct {
	Success bool `json:"success"`
}
