//go:build windows

package player

import (
	"os/exec"
	"syscall"
)

// setupPlayerProcess detaches the player from the TUI's console
func setupPlayerProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | syscall.DETACHED_PROCESS,
	}
}
