package ipc

import (
	"errors"
	"os/exec"
)

var errNoPTY = errors.New("pseudo-terminal stdio is not supported on Windows")

func (s *stdio) setupPTY(cmd *exec.Cmd) error { return errNoPTY }
