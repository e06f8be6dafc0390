//go:build unix

// Package osutil holds platform specific process helpers.
package osutil

import (
	"os/exec"
	"syscall"

	"github.com/pkg/errors"
)

// SetProcessGroup configures the command to run in its own process group
// so a timeout can take down everything it spawned.
func SetProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// SetProcessGroupKill makes context cancellation SIGKILL the whole process
// group. Must be called after SetProcessGroup and before cmd.Start().
func SetProcessGroupKill(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return err
	}
}
