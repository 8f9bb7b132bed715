package ipc

import (
	"errors"
	"os"
	"os/exec"
)

// A waiter reaps a started child in the background, so that liveness can be
// probed without blocking and without racing with an explicit Wait.
type waiter struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func startWaiter(cmd *exec.Cmd) *waiter {
	w := &waiter{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// A non-zero exit is reported through the ProcessState.
			err = nil
		}
		w.err = err
		close(w.done)
	}()
	return w
}

func (w *waiter) exited() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func (w *waiter) wait() (*os.ProcessState, error) {
	<-w.done
	return w.cmd.ProcessState, w.err
}

// Returns the exit status if the child has exited, and nil otherwise.
func (w *waiter) state() *os.ProcessState {
	if w.exited() {
		return w.cmd.ProcessState
	}
	return nil
}

// Kills the child and waits for it to be reaped. Used to tear down a child
// whose handshake failed.
func (w *waiter) kill() {
	if !w.exited() {
		err := w.cmd.Process.Kill()
		if err != nil && !errors.Is(err, os.ErrProcessDone) {
			logger.Printf("failed to kill pid %d: %v", w.cmd.Process.Pid, err)
		}
	}
	<-w.done
}
