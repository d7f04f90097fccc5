//go:build windows

package commandexec

import "os/exec"

// Windows has no process groups in the POSIX sense; only the direct child is
// killed.

func setProcessGroup(*exec.Cmd) {}

func killProcessTree(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	cmd.Process.Kill()
}
