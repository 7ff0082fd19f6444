// Package volumes discovers navigable filesystem roots (mount points or drive
// letters) offered to the browser as shortcuts.
package volumes

import (
	"context"
	"os"
	"runtime"
	"time"
)

// Prober lists volumes. Implementations never fail; on total failure they
// return an empty list.
type Prober interface {
	ListVolumes(ctx context.Context) []string
}

// DefaultTimeout bounds the Windows volume listing command.
const DefaultTimeout = 5 * time.Second

// Detect returns the Prober for the running platform. It is called once at
// startup; the result is not re-checked per call.
func Detect(timeout time.Duration) Prober {
	return detect(runtime.GOOS, timeout)
}

func detect(goos string, timeout time.Duration) Prober {
	if goos == "windows" {
		return NewWindowsProbe(timeout)
	}
	return NewPosixProbe()
}

type statFunc func(name string) (os.FileInfo, error)

func exists(stat statFunc, path string) bool {
	_, err := stat(path)
	return err == nil
}

// dedupe drops repeated entries, keeping the first occurrence.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
