// Package browser lists the immediate children of a directory.
package browser

import (
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

// Entry describes one child of a listed directory.
type Entry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Modified time.Time `json:"modified"`
	Size     int64     `json:"size"`
}

// Listing is the result of Browser.List.
type Listing struct {
	Path   string  `json:"path"`
	Parent string  `json:"parent"`
	Dirs   []Entry `json:"dirs"`
	Files  []Entry `json:"files"`
}

// Browser lists directories. It holds no state between calls.
type Browser struct{}

// New returns a Browser.
func New() *Browser {
	return &Browser{}
}

// DefaultRoot is the directory shown when the caller gives no path: the
// user's home directory, or the filesystem root if that is unknown.
func DefaultRoot() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	if vol := filepath.VolumeName(os.TempDir()); vol != "" {
		return vol + string(filepath.Separator)
	}
	return string(filepath.Separator)
}

// List returns the sub-directories and files directly under dir.
// Children that cannot be stat'ed are omitted.
func (b *Browser) List(dir string) (Listing, error) {
	p, err := paths.Clean(dir)
	if err != nil {
		return Listing{}, err
	}

	entries, err := os.ReadDir(p)
	if err != nil {
		return Listing{}, fserr.Wrap(err, p, fserr.NotReadable)
	}

	listing := Listing{
		Path:   p,
		Parent: filepath.Dir(p),
		Dirs:   []Entry{},
		Files:  []Entry{},
	}
	for _, de := range entries {
		full := filepath.Join(p, de.Name())
		info, err := os.Stat(full)
		if err != nil {
			metrics.RecordSkippedEntry("browser")
			logging.Debug("skipping entry", logging.String("path", full), logging.Err(err))
			continue
		}
		e := Entry{
			Name:     de.Name(),
			Path:     full,
			Modified: info.ModTime().UTC(),
			Size:     info.Size(),
		}
		if info.IsDir() {
			listing.Dirs = append(listing.Dirs, e)
		} else {
			listing.Files = append(listing.Files, e)
		}
	}

	byName := func(a, b Entry) int { return strings.Compare(a.Name, b.Name) }
	slices.SortFunc(listing.Dirs, byName)
	slices.SortFunc(listing.Files, byName)
	return listing, nil
}
