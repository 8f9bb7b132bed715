//go:build unix

package ipc

import (
	"os/exec"
	"syscall"

	"github.com/creack/pty"
)

// Gives the child a pseudo-terminal as its stdin, stdout and stderr, and makes
// it the controlling terminal of a new session. The parent reads and writes
// the terminal through the same master file, exposed as both Stdin and Stdout.
func (s *stdio) setupPTY(cmd *exec.Cmd) error {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return err
	}
	cmd.Stdin, cmd.Stdout, cmd.Stderr = tty, tty, tty
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
	cmd.SysProcAttr.Setctty = true
	s.stdin, s.stdout = ptmx, ptmx
	s.childEnds = append(s.childEnds, tty)
	s.parentEnds = append(s.parentEnds, ptmx)
	return nil
}
