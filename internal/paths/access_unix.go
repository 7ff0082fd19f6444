//go:build unix

package paths

import "golang.org/x/sys/unix"

// writable asks the kernel whether the current process may write to path.
func writable(path string) error {
	return unix.Access(path, unix.W_OK)
}
