// Package artifacts stores generated bootstrap prompts as short-lived files.
//
// Artifacts live directly under a single storage root and are named
// <label>-<timestamp>.bootstrap.md. Anything older than the TTL is removed by
// Cleanup, which runs at startup, periodically, and on demand.
package artifacts

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/trustnocode/auditdash/internal/fserr"
	"github.com/trustnocode/auditdash/internal/metrics"
	"github.com/trustnocode/auditdash/internal/paths"
)

const (
	// Suffix marks files owned by the store.
	Suffix = ".bootstrap.md"

	// DefaultLabel is used when the caller supplies no label.
	DefaultLabel = "audit"

	// DefaultTTL is the age after which an artifact is reclaimed.
	DefaultTTL = 24 * time.Hour

	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// Record describes a stored artifact.
type Record struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Created time.Time `json:"created"`
	Size    int64     `json:"size"`
}

// Store manages artifacts under a root directory. It keeps no in-memory
// index; every call reads the directory.
type Store struct {
	root string
	ttl  time.Duration
	now  func() time.Time
}

// New opens the store and creates the root directory if needed.
func New(root string, ttl time.Duration) (*Store, error) {
	s, err := Open(root, ttl)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureRoot(); err != nil {
		return nil, err
	}
	return s, nil
}

// Open returns a Store without touching the filesystem. Operations on a root
// that does not exist report their own errors.
func Open(root string, ttl time.Duration) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root %s: %w", root, err)
	}
	return &Store{root: abs, ttl: ttl, now: time.Now}, nil
}

// EnsureRoot creates the root directory.
func (s *Store) EnsureRoot() error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return fmt.Errorf("create storage root %s: %w", s.root, err)
	}
	return nil
}

// Root returns the absolute storage root.
func (s *Store) Root() string { return s.root }

// TTL returns the artifact time-to-live.
func (s *Store) TTL() time.Duration { return s.ttl }

// Sanitize replaces every character outside [A-Za-z0-9_-] with '_'.
func Sanitize(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Timestamp formats t as a filesystem-safe UTC ISO-8601 string,
// e.g. 2026-10-19T08-30-00-123Z.
func Timestamp(t time.Time) string {
	s := t.UTC().Format(timestampLayout)
	return strings.NewReplacer(":", "-", ".", "-").Replace(s)
}

// Filename builds the artifact name for label at t.
func Filename(label string, t time.Time) string {
	if label == "" {
		label = DefaultLabel
	}
	return Sanitize(label) + "-" + Timestamp(t) + Suffix
}

// Save writes content under a name derived from label and the current time.
// Two saves with the same label in the same millisecond share a name and the
// later one wins.
func (s *Store) Save(content, label string) (Record, error) {
	name := Filename(label, s.now())
	path := filepath.Join(s.root, name)

	if err := writeFileAtomic(s.root, path, []byte(content)); err != nil {
		metrics.RecordArtifactSave(0, false)
		return Record{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		metrics.RecordArtifactSave(0, false)
		return Record{}, fmt.Errorf("stat %s: %w", name, err)
	}
	metrics.RecordArtifactSave(info.Size(), true)
	return recordOf(path, info), nil
}

// writeFileAtomic writes data to a temp file in dir then renames it to path.
func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".auditdash-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp for %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp to %s: %w", filepath.Base(path), err)
	}
	return nil
}

// List returns every stored artifact, newest first.
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fserr.Wrap(err, s.root, fserr.NotReadable)
	}

	out := []Record{}
	for _, de := range entries {
		if !isArtifact(de) {
			continue
		}
		full := filepath.Join(s.root, de.Name())
		info, err := os.Stat(full)
		if err != nil {
			metrics.RecordSkippedEntry("artifacts")
			continue
		}
		out = append(out, recordOf(full, info))
	}

	slices.SortFunc(out, func(a, b Record) int {
		if c := b.Created.Compare(a.Created); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}

// Delete removes the named artifact. The name must carry the artifact
// suffix and must resolve to a file directly inside the root.
func (s *Store) Delete(name string) error {
	full, err := s.pathFor(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return fserr.Wrap(err, full, fserr.NotReadable)
	}
	metrics.RecordArtifactDelete()
	return nil
}

// Read returns the content of the named artifact.
func (s *Store) Read(name string) (string, error) {
	full, err := s.pathFor(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fserr.Wrap(err, full, fserr.NotReadable)
	}
	return string(data), nil
}

func (s *Store) pathFor(name string) (string, error) {
	if !strings.HasSuffix(name, Suffix) {
		return "", fserr.New(fserr.InvalidType, name)
	}
	full := paths.Normalize(filepath.Join(s.root, name))
	if filepath.Dir(full) != s.root {
		return "", fserr.New(fserr.PathEscape, name)
	}
	return full, nil
}

// Cleanup removes artifacts that are older than the store TTL at now.
func (s *Store) Cleanup(now time.Time) (int, error) {
	n, err := Cleanup(s.root, s.ttl, now)
	metrics.RecordArtifactsExpired(n)
	return n, err
}

// Cleanup deletes every artifact under root whose age at now exceeds ttl and
// returns how many were removed. Files that disappear during the sweep are
// ignored; other failures are collected and the sweep continues.
func Cleanup(root string, ttl time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, fserr.Wrap(err, root, fserr.NotReadable)
	}

	var errs []error
	deleted := 0
	for _, de := range entries {
		if !isArtifact(de) {
			continue
		}
		full := filepath.Join(root, de.Name())
		info, err := os.Stat(full)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if now.Sub(info.ModTime()) <= ttl {
			continue
		}
		if err := os.Remove(full); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}

func isArtifact(de fs.DirEntry) bool {
	return de.Type().IsRegular() && strings.HasSuffix(de.Name(), Suffix)
}

func recordOf(path string, info fs.FileInfo) Record {
	return Record{
		Name:    info.Name(),
		Path:    path,
		Created: info.ModTime().UTC(),
		Size:    info.Size(),
	}
}
