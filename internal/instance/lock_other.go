//go:build !unix && !windows

package instance

import "os"

// No file locking here; the host is effectively single-process on these targets.
func lockExclusive(f *os.File) error {
	return nil
}
