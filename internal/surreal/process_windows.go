//go:build windows

package surreal

import (
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/windows"
)

// configureCommand keeps the database from opening a console window.
func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}

func killProcess(proc *os.Process) error {
	kill := exec.Command("taskkill", "/PID", strconv.Itoa(proc.Pid), "/F", "/T")
	configureCommand(kill)
	return kill.Run()
}
