//go:build unix

package instance

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockExclusive acquires an exclusive non-blocking lock on the file
func lockExclusive(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return ErrAlreadyRunning
	}
	return err
}
