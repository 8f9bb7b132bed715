package ipc

import (
	"context"
	"os"
	"os/exec"
	"time"

	"src.arkts.dev/pkg/ipc/ipcdefs"
)

// Number of connection attempts, pipePollInterval apart, before the handshake
// gives up. Variable for testing.
var handshakeAttempts = 300

// The child creates a named pipe and the parent connects to it, the inverse of
// the Unix roles. The parent polls for the pipe, checking before each attempt
// whether the child has already exited.
func handshake(ctx context.Context, cmd *exec.Cmd, afterStart func()) (*waiter, Endpoint, error) {
	name := ipcdefs.TokenName(os.Getpid())
	withToken(cmd, name)
	w, err := startChild(cmd, name, afterStart)
	if err != nil {
		return nil, nil, err
	}

	ep, err := pollPipe(ctx, w, name)
	if err != nil {
		w.kill()
		return nil, nil, err
	}
	logger.Printf("connected to pid %d", cmd.Process.Pid)
	return w, ep, nil
}

func pollPipe(ctx context.Context, w *waiter, name string) (Endpoint, error) {
	for i := 0; i < handshakeAttempts; i++ {
		if w.exited() {
			return nil, &Error{Op: "connect", Kind: KindPeerExited, Path: name, Status: w.state()}
		}
		ep, err := openPipe(name)
		if err == nil {
			return ep, nil
		}
		if !isPipeNotFound(err) {
			return nil, ioError("connect", name, err)
		}
		timer := time.NewTimer(pipePollInterval)
		select {
		case <-timer.C:
		case <-w.done:
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
			return nil, contextError("connect", name, ctx.Err())
		}
	}
	return nil, &Error{Op: "connect", Kind: KindTimeout, Path: name}
}
