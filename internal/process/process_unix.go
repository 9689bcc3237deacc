//go:build !windows

// Package process controls compiler subprocess groups so a timed-out
// compile never leaves orphaned children behind.
package process

import (
	"os/exec"
	"syscall"
)

// Isolate starts cmd in its own process group so the whole tree can be
// signalled at once.
func Isolate(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) error {
	if pid <= 0 {
		return syscall.ESRCH
	}
	return syscall.Kill(-pid, syscall.SIGKILL)
}
