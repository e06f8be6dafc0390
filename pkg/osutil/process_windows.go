//go:build windows

// Package osutil holds platform specific process helpers.
package osutil

import (
	"errors"
	"os"
	"os/exec"
)

// SetProcessGroup is a no-op on Windows.
func SetProcessGroup(_ *exec.Cmd) {}

// SetProcessGroupKill terminates the main process on cancellation. Children
// of mgrep (node) may outlive it since Windows has no process groups.
func SetProcessGroupKill(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		err := cmd.Process.Signal(os.Kill)
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return err
	}
}
