//go:build !windows

package process

import (
	"fmt"
	"os/exec"
	"syscall"
)

// configureProcAttr puts the child in a new process group so the whole tree
// can be signalled at once.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

func terminate(pid int) error {
	return signalGroup(pid, syscall.SIGTERM)
}

func kill(pid int) error {
	return signalGroup(pid, syscall.SIGKILL)
}

// signalGroup signals the process group, falling back to the single process.
func signalGroup(pid int, sig syscall.Signal) error {
	if err := syscall.Kill(-pid, sig); err != nil {
		if err2 := syscall.Kill(pid, sig); err2 != nil {
			return fmt.Errorf("signal %v to group -%d: %v, to process %d: %v", sig, pid, err, pid, err2)
		}
	}
	return nil
}
