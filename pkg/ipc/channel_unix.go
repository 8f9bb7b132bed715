//go:build unix

package ipc

import (
	"context"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"src.arkts.dev/pkg/ipc/ipcdefs"
)

// How long to keep accepting after the child has exited, to pick up a
// connection it made just before exiting. Variable for testing.
var exitGrace = 100 * time.Millisecond

// The parent listens on a unix socket in the temporary directory and the child
// connects to it. Accept has no timeout of its own: it only stops when the
// child connects, the child exits, or ctx is done.
func handshake(ctx context.Context, cmd *exec.Cmd, afterStart func()) (*waiter, Endpoint, error) {
	path := filepath.Join(os.TempDir(), ipcdefs.TokenName(os.Getpid())+".sock")
	if _, err := os.Lstat(path); err == nil {
		logger.Println("removing stale socket", path)
		if err := os.Remove(path); err != nil {
			afterStart()
			return nil, nil, ioError("remove stale socket", path, err)
		}
	}

	l, err := listenUnix(path)
	if err != nil {
		afterStart()
		return nil, nil, ioError("listen", path, err)
	}
	// The socket file is removed explicitly below, whether or not the
	// handshake succeeds.
	l.SetUnlinkOnClose(false)
	defer func() {
		l.Close()
		// The socket file is not needed once connected. Failing to remove it
		// must not mask the outcome of the handshake.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Printf("failed to remove socket %s: %v", path, err)
		}
	}()
	logger.Println("listening on", path)

	withToken(cmd, path)
	w, err := startChild(cmd, path, afterStart)
	if err != nil {
		return nil, nil, err
	}

	conn, err := accept(ctx, l, w, path)
	if err != nil {
		w.kill()
		return nil, nil, err
	}
	logger.Printf("pid %d connected", cmd.Process.Pid)
	return w, sockEndpoint{conn}, nil
}

// Listens on a socket only the current user can connect to. The mode is set
// after the socket is created, since the umask is shared by the whole process.
func listenUnix(path string) (*net.UnixListener, error) {
	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

func accept(ctx context.Context, l *net.UnixListener, w *waiter, path string) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		conn, err := l.Accept()
		resultCh <- result{conn, err}
	}()

	select {
	case r := <-resultCh:
		if r.err != nil {
			return nil, ioError("accept", path, r.err)
		}
		return r.conn, nil
	case <-w.done:
		l.SetDeadline(time.Now().Add(exitGrace))
		r := <-resultCh
		if r.err == nil {
			return r.conn, nil
		}
		return nil, &Error{Op: "accept", Kind: KindPeerExited, Path: path, Status: w.state()}
	case <-ctx.Done():
		l.Close()
		if r := <-resultCh; r.conn != nil {
			r.conn.Close()
		}
		return nil, contextError("accept", path, ctx.Err())
	}
}
