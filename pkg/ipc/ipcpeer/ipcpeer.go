// Package ipcpeer implements the child side of the IPC handshake.
//
// A child spawned by the ipc package finds the handshake token in the
// IPC_SOCKET_PATH environment variable, or its inherited channel in
// NODE_CHANNEL_FD, and calls Connect once, early, to obtain its end of the
// channel.
package ipcpeer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"src.arkts.dev/pkg/env"
	"src.arkts.dev/pkg/logutil"
)

var logger = logutil.GetLogger("[ipcpeer] ")

// ErrNoRendezvous is returned by Connect when the current process was not
// spawned with an IPC channel.
var ErrNoRendezvous = errors.New(env.IPC_SOCKET_PATH + " is not set")

// Connect connects to the parent using the token in IPC_SOCKET_PATH.
//
// On Unix, it dials the parent's unix socket. On Windows, it creates the named
// pipe and blocks until the parent has opened it.
//
// Without a token, a channel inherited as the descriptor in NODE_CHANNEL_FD
// is used instead. Unix only.
func Connect() (io.ReadWriteCloser, error) {
	if token := os.Getenv(env.IPC_SOCKET_PATH); token != "" {
		logger.Println("connecting to", token)
		return connect(token)
	}
	if s := os.Getenv(env.NODE_CHANNEL_FD); s != "" {
		fd, err := strconv.Atoi(s)
		if err != nil || fd < 0 {
			return nil, fmt.Errorf("bad %s %q", env.NODE_CHANNEL_FD, s)
		}
		logger.Println("using inherited channel fd", fd)
		return connectFD(fd)
	}
	return nil, ErrNoRendezvous
}

// Echo writes everything read from rw back to it, until rw reaches EOF.
func Echo(rw io.ReadWriter) error {
	// Hide any ReaderFrom or WriterTo implementation, which would make
	// io.Copy copy rw to itself.
	_, err := io.Copy(struct{ io.Writer }{rw}, struct{ io.Reader }{rw})
	return err
}
