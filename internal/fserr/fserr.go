// Package fserr defines the error taxonomy shared by the filesystem components.
//
// Every failure that reaches a caller carries one of the Reason codes below.
// The wrapped OS error is kept for logging but never shown to the caller.
package fserr

import (
	"errors"
	"io/fs"
)

// Reason classifies a filesystem failure.
type Reason string

const (
	NotFound        Reason = "not_found"
	AccessDenied    Reason = "access_denied"
	ParentMissing   Reason = "parent_missing"
	PathTraversal   Reason = "path_traversal"
	PathEscape      Reason = "path_escape"
	InvalidType     Reason = "invalid_type"
	UnsupportedType Reason = "unsupported_type"
	NotReadable     Reason = "not_readable"
	NotDirectory    Reason = "not_directory"
	NotAbsolute     Reason = "not_absolute"
	PathRequired    Reason = "path_required"
)

var messages = map[Reason]string{
	NotFound:        "Path does not exist",
	AccessDenied:    "Permission denied",
	ParentMissing:   "Parent directory does not exist or is not writable",
	PathTraversal:   "Invalid path",
	PathEscape:      "Invalid path",
	InvalidType:     "Invalid file type",
	UnsupportedType: "Only .md and .json files are allowed",
	NotReadable:     "Path cannot be read",
	NotDirectory:    "Path is not a directory",
	NotAbsolute:     "Path must be absolute",
	PathRequired:    "Path is required",
}

// Message returns the user-displayable sentence for r.
func (r Reason) Message() string {
	if m, ok := messages[r]; ok {
		return m
	}
	return "Unexpected filesystem error"
}

// Error is a classified filesystem failure.
type Error struct {
	Reason Reason
	Path   string
	Err    error // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := string(e.Reason)
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an *Error with no underlying cause.
func New(reason Reason, path string) *Error {
	return &Error{Reason: reason, Path: path}
}

// Wrap classifies err and returns it as an *Error. If err already carries a
// reason it is returned unchanged.
func Wrap(err error, path string, fallback Reason) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Reason: Classify(err, fallback), Path: path, Err: err}
}

// Classify maps OS errors to a Reason, using fallback when nothing matches.
func Classify(err error, fallback Reason) Reason {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, fs.ErrPermission):
		return AccessDenied
	default:
		return fallback
	}
}

// ReasonOf extracts the Reason from err, or "" if err is not classified.
func ReasonOf(err error) Reason {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ""
}

// Is reports whether err carries the given reason.
func Is(err error, reason Reason) bool {
	return ReasonOf(err) == reason
}
