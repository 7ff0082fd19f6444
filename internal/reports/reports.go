// Package reports lists and reads audit reports (Markdown and JSON files)
// in a directory. Content is returned raw; rendering is the UI's job.
package reports

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/trustnocode/auditdash/internal/fserr"
	"github.com/trustnocode/auditdash/internal/logging"
	"github.com/trustnocode/auditdash/internal/metrics"
	"github.com/trustnocode/auditdash/internal/paths"
)

// Kind is the report format.
type Kind string

const (
	Markdown Kind = "markdown"
	JSON     Kind = "json"
)

// KindOf returns the report kind for name, or false if the extension is not
// a recognized report extension.
func KindOf(name string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md":
		return Markdown, true
	case ".json":
		return JSON, true
	}
	return "", false
}

// Descriptor describes one report file.
type Descriptor struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Modified time.Time `json:"modified"`
	Size     int64     `json:"size"`
	Type     Kind      `json:"type"`
}

// Repository reads reports from the local filesystem.
type Repository struct{}

// New returns a Repository.
func New() *Repository {
	return &Repository{}
}

// List returns the reports directly under dir, newest first.
func (r *Repository) List(dir string) ([]Descriptor, error) {
	p, err := paths.Clean(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, fserr.Wrap(err, p, fserr.NotReadable)
	}

	out := []Descriptor{}
	for _, de := range entries {
		if !de.Type().IsRegular() {
			continue
		}
		kind, ok := KindOf(de.Name())
		if !ok {
			continue
		}
		full := filepath.Join(p, de.Name())
		info, err := os.Stat(full)
		if err != nil {
			metrics.RecordSkippedEntry("reports")
			logging.Debug("skipping report", logging.String("path", full), logging.Err(err))
			continue
		}
		out = append(out, Descriptor{
			Name:     de.Name(),
			Path:     full,
			Modified: info.ModTime().UTC(),
			Size:     info.Size(),
			Type:     kind,
		})
	}

	slices.SortFunc(out, func(a, b Descriptor) int {
		if c := b.Modified.Compare(a.Modified); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	metrics.RecordReportsListed(len(out))
	return out, nil
}

// Read returns the raw text of a report. The extension is checked before
// the filesystem is touched.
func (r *Repository) Read(file string) (string, error) {
	if _, ok := KindOf(file); !ok {
		return "", fserr.New(fserr.UnsupportedType, file)
	}
	p, err := paths.Clean(file)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", fserr.Wrap(err, p, fserr.NotReadable)
	}
	return string(data), nil
}
