//go:build windows

package instance

import (
	"os"
	"syscall"

	"golang.org/x/sys/windows"
)

// lockExclusive acquires an exclusive non-blocking lock on the file using LockFileEx
func lockExclusive(f *os.File) error {
	const flags = windows.LOCKFILE_EXCLUSIVE_LOCK | windows.LOCKFILE_FAIL_IMMEDIATELY

	ol := &windows.Overlapped{}

	err := windows.LockFileEx(
		windows.Handle(f.Fd()),
		flags,
		0,
		0xFFFFFFFF,
		0xFFFFFFFF,
		ol,
	)

	if err == windows.ERROR_LOCK_VIOLATION || err == syscall.EWOULDBLOCK {
		return ErrAlreadyRunning
	}

	return err
}
