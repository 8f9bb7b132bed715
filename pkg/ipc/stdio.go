package ipc

import (
	"errors"
	"io"
	"os"
	"os/exec"
)

// Stdio is the disposition of one standard stream of a child process.
type Stdio int

// Possible values of Stdio.
const (
	// Connect the stream to a pipe whose other end is exposed by the Process.
	Pipe Stdio = iota
	// Share the stream with the current process.
	Inherit
	// Connect the stream to the null device.
	Null
)

// Parent ends of the standard streams of a child.
type stdio struct {
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
	// Files to close once the child has started.
	childEnds []*os.File
	// Files to close when the Process is closed.
	parentEnds []*os.File
}

func (s *stdio) setup(cmd *exec.Cmd, in, out, errs Stdio) error {
	switch in {
	case Pipe:
		r, w, err := os.Pipe()
		if err != nil {
			return err
		}
		cmd.Stdin, s.stdin = r, w
		s.childEnds = append(s.childEnds, r)
		s.parentEnds = append(s.parentEnds, w)
	case Inherit:
		cmd.Stdin = os.Stdin
	}
	if err := s.setupOutput(&cmd.Stdout, &s.stdout, out, os.Stdout); err != nil {
		return err
	}
	return s.setupOutput(&cmd.Stderr, &s.stderr, errs, os.Stderr)
}

func (s *stdio) setupOutput(child *io.Writer, parent *io.ReadCloser, disp Stdio, inherit *os.File) error {
	switch disp {
	case Pipe:
		r, w, err := os.Pipe()
		if err != nil {
			return err
		}
		*child, *parent = w, r
		s.childEnds = append(s.childEnds, w)
		s.parentEnds = append(s.parentEnds, r)
	case Inherit:
		*child = inherit
	}
	return nil
}

func (s *stdio) closeChildEnds() {
	for _, f := range s.childEnds {
		f.Close()
	}
	s.childEnds = nil
}

func (s *stdio) closeParentEnds() error {
	var firstErr error
	for _, f := range s.parentEnds {
		// Reading ends may already have been closed by the caller.
		if err := f.Close(); err != nil && firstErr == nil && !errors.Is(err, os.ErrClosed) {
			firstErr = err
		}
	}
	s.parentEnds = nil
	return firstErr
}
