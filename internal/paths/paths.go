// Package paths normalizes and classifies caller-supplied filesystem paths.
//
// Resolve is advisory only: it performs no writes and caches nothing, so a
// result may be stale by the time the caller acts on it.
package paths

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/trustnocode/auditdash/internal/fserr"
)

// Mode selects the validation rules applied by Resolve.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

// ParseMode maps the wire value ("read" or "write") to a Mode. Anything other
// than "write" is treated as read.
func ParseMode(s string) Mode {
	if strings.EqualFold(s, "write") {
		return ModeWrite
	}
	return ModeRead
}

func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Kind is the filesystem entry type of a resolved path.
type Kind int

const (
	KindNone Kind = iota
	KindFile
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "none"
	}
}

// Access is the access level a resolved path was validated for.
type Access int

const (
	AccessNone Access = iota
	AccessRead
	AccessWrite
)

// Resolved describes a path that passed validation.
type Resolved struct {
	Raw        string
	Normalized string
	Exists     bool
	Kind       Kind
	Access     Access
	WillCreate bool
}

// Normalize resolves "." and ".." segments and unifies separators without
// touching the filesystem.
func Normalize(raw string) string {
	return filepath.Clean(filepath.FromSlash(strings.TrimSpace(raw)))
}

// CheckTraversal rejects any normalized path that still contains "..".
// The check is syntactic and also rejects names such as "a..b".
func CheckTraversal(normalized string) error {
	if strings.Contains(normalized, "..") {
		return fserr.New(fserr.PathTraversal, normalized)
	}
	return nil
}

// Clean normalizes raw and applies the traversal and absolute-path checks.
// Every component calls it before using a caller path.
func Clean(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fserr.New(fserr.PathRequired, "")
	}
	p := Normalize(raw)
	if err := CheckTraversal(p); err != nil {
		return "", err
	}
	if !filepath.IsAbs(p) {
		return "", fserr.New(fserr.NotAbsolute, p)
	}
	return p, nil
}

// Resolve validates raw for the given mode.
func Resolve(raw string, mode Mode) (Resolved, error) {
	p, err := Clean(raw)
	if err != nil {
		return Resolved{}, err
	}
	res := Resolved{Raw: raw, Normalized: p}
	if mode == ModeWrite {
		return resolveWrite(res)
	}
	return resolveRead(res)
}

func resolveRead(res Resolved) (Resolved, error) {
	info, err := os.Stat(res.Normalized)
	if err != nil {
		if missing(err) {
			return Resolved{}, &fserr.Error{Reason: fserr.NotFound, Path: res.Normalized, Err: err}
		}
		return Resolved{}, fserr.Wrap(err, res.Normalized, fserr.NotReadable)
	}
	switch {
	case info.IsDir():
		res.Kind = KindDirectory
	case info.Mode().IsRegular():
		res.Kind = KindFile
	default:
		return Resolved{}, fserr.New(fserr.NotFound, res.Normalized)
	}
	res.Exists = true
	res.Access = AccessRead
	return res, nil
}

func resolveWrite(res Resolved) (Resolved, error) {
	info, err := os.Stat(res.Normalized)
	if err == nil {
		if !info.IsDir() {
			return Resolved{}, fserr.New(fserr.NotDirectory, res.Normalized)
		}
		if err := writable(res.Normalized); err != nil {
			return Resolved{}, fserr.Wrap(err, res.Normalized, fserr.AccessDenied)
		}
		res.Exists = true
		res.Kind = KindDirectory
		res.Access = AccessWrite
		return res, nil
	}
	if !missing(err) {
		return Resolved{}, fserr.Wrap(err, res.Normalized, fserr.NotReadable)
	}

	parent := filepath.Dir(res.Normalized)
	pinfo, err := os.Stat(parent)
	if err != nil {
		if os.IsPermission(err) {
			return Resolved{}, fserr.Wrap(err, parent, fserr.AccessDenied)
		}
		return Resolved{}, &fserr.Error{Reason: fserr.ParentMissing, Path: parent, Err: err}
	}
	if !pinfo.IsDir() {
		return Resolved{}, fserr.New(fserr.ParentMissing, parent)
	}
	if err := writable(parent); err != nil {
		return Resolved{}, &fserr.Error{Reason: fserr.AccessDenied, Path: parent, Err: err}
	}
	res.Kind = KindNone
	res.Access = AccessWrite
	res.WillCreate = true
	return res, nil
}

// missing reports whether a stat failure means the path does not exist,
// including a file standing where a directory component should be.
func missing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
