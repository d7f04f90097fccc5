//go:build !windows

package commandexec

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the child in its own process group, so the whole
// subprocess tree can be addressed at once.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessTree kills the child's entire process group. The negative pid
// addresses the group.
func killProcessTree(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
