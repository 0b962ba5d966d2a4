//go:build unix

package runner

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func setProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(c *exec.Cmd) {
	if c.Process != nil {
		_ = unix.Kill(-c.Process.Pid, unix.SIGKILL)
	}
}
