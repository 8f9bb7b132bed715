package ipc

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"src.arkts.dev/pkg/env"
	"src.arkts.dev/pkg/logutil"
)

var logger = logutil.GetLogger("[ipc] ")

// Channel is a connected IPC channel to a child process. It imposes no
// framing on the bytes that flow through it.
type Channel struct {
	ep Endpoint
}

// NewChannel wraps an already connected Endpoint.
func NewChannel(ep Endpoint) *Channel { return &Channel{ep} }

// Read does at most one read from the underlying endpoint. It returns io.EOF
// unwrapped when the peer has closed its end, so that a Channel can be used
// as an ordinary io.Reader.
func (c *Channel) Read(p []byte) (int, error) {
	n, err := c.ep.Read(p)
	if err != nil && err != io.EOF {
		err = ioError("read", "", err)
	}
	return n, err
}

// Write writes all of p to the channel.
func (c *Channel) Write(p []byte) (int, error) {
	n, err := c.ep.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return n, ioError("write", "", err)
	}
	return n, c.ep.Flush()
}

// Close closes the channel. The peer sees EOF.
func (c *Channel) Close() error { return c.ep.Close() }

// Starts cmd after injecting the handshake token, or the Node.js channel if
// node is true, into its environment, and returns once the child has
// connected to the channel. The afterStart function is called right after the
// child has started.
//
// On failure, the child, if started, is killed and reaped.
func openChannel(ctx context.Context, cmd *exec.Cmd, node bool, afterStart func()) (*waiter, *Channel, error) {
	var w *waiter
	var ep Endpoint
	var err error
	if node {
		w, ep, err = nodeChannel(cmd, afterStart)
	} else {
		w, ep, err = handshake(ctx, cmd, afterStart)
	}
	if err != nil {
		return nil, nil, err
	}
	return w, NewChannel(ep), nil
}

func withToken(cmd *exec.Cmd, token string) {
	environ := cmd.Env
	if environ == nil {
		environ = os.Environ()
	}
	cmd.Env = append(environ[:len(environ):len(environ)], env.IPC_SOCKET_PATH+"="+token)
}

// Names the inherited descriptor fd as the Node.js IPC channel. The
// handshake token is dropped, since the child is connected from the start.
func withNodeChannel(cmd *exec.Cmd, fd int) {
	environ := cmd.Env
	if environ == nil {
		environ = os.Environ()
	}
	cmd.Env = make([]string, 0, len(environ)+2)
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		switch name {
		case env.IPC_SOCKET_PATH, env.NODE_CHANNEL_FD, env.NODE_CHANNEL_SERIALIZATION_MODE:
			continue
		}
		cmd.Env = append(cmd.Env, kv)
	}
	cmd.Env = append(cmd.Env,
		env.NODE_CHANNEL_FD+"="+strconv.Itoa(fd),
		env.NODE_CHANNEL_SERIALIZATION_MODE+"=json")
}

func startChild(cmd *exec.Cmd, token string, afterStart func()) (*waiter, error) {
	err := cmd.Start()
	afterStart()
	if err != nil {
		return nil, &Error{Op: "start", Kind: KindStart, Path: token, Err: err}
	}
	logger.Printf("started %s as pid %d", cmd.Path, cmd.Process.Pid)
	return startWaiter(cmd), nil
}

func contextError(op, token string, err error) error {
	return &Error{Op: op, Kind: KindTimeout, Path: token, Err: err}
}
