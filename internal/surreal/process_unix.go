//go:build unix

package surreal

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureCommand puts the database in its own process group so a kill
// reaches anything it spawned.
func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcess(proc *os.Process) error {
	err := syscall.Kill(-proc.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
