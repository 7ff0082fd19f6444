package volumes

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/trustnocode/auditdash/internal/logging"
)

// DefaultCandidates are the well-known mount points probed on POSIX systems.
var DefaultCandidates = []string{"/", "/home", "/mnt", "/opt", "/var", "/tmp"}

// DefaultContainerMount is where container runtimes conventionally surface
// external volumes as sub-directories.
const DefaultContainerMount = "/mnt"

// PosixProbe probes a fixed list of mount points.
type PosixProbe struct {
	Candidates     []string
	Home           string
	ContainerMount string

	stat statFunc
}

// NewPosixProbe returns a probe with the default candidates and $HOME.
func NewPosixProbe() *PosixProbe {
	return &PosixProbe{
		Candidates:     DefaultCandidates,
		Home:           os.Getenv("HOME"),
		ContainerMount: DefaultContainerMount,
		stat:           os.Stat,
	}
}

// ListVolumes returns the existing candidates, the home directory and every
// directory under the container mount, de-duplicated and sorted.
func (p *PosixProbe) ListVolumes(_ context.Context) []string {
	stat := p.stat
	if stat == nil {
		stat = os.Stat
	}

	var found []string
	for _, c := range p.Candidates {
		if exists(stat, c) {
			found = append(found, c)
		}
	}

	if p.Home != "" && !slices.Contains(found, p.Home) && exists(stat, p.Home) {
		found = append(found, p.Home)
	}

	if p.ContainerMount != "" {
		entries, err := os.ReadDir(p.ContainerMount)
		if err != nil {
			logging.Debug("container mount not readable",
				logging.String("path", p.ContainerMount), logging.Err(err))
		}
		for _, e := range entries {
			full := filepath.Join(p.ContainerMount, e.Name())
			info, err := stat(full)
			if err != nil || !info.IsDir() {
				continue
			}
			found = append(found, full)
		}
	}

	found = dedupe(found)
	slices.Sort(found)
	return found
}
