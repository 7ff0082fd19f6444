//go:build !unix

package paths

import (
	"fmt"
	"io/fs"
	"os"
)

// writable reports whether path can be written. Windows ignores the
// read-only attribute on directories, so only files are checked.
func writable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() && info.Mode().Perm()&0o200 == 0 {
		return fmt.Errorf("%s is read-only: %w", path, fs.ErrPermission)
	}
	return nil
}
