package ipc

import "io"

// Endpoint is one side of a connected, bidirectional byte stream. Reads and
// writes block. Byte boundaries are not message boundaries: a read may return
// part of a write, or parts of several writes.
//
// The concrete type depends on the platform: a unix domain socket connection
// on Unix, a named pipe handle on Windows.
type Endpoint interface {
	io.ReadWriteCloser
	// Flush flushes buffered writes. Both platform endpoints are unbuffered,
	// so this currently never does anything, but callers that want to be
	// explicit about message boundaries may still call it.
	Flush() error
}

// Connect connects to the endpoint identified by a rendezvous name.
//
// On Unix, rendezvous is the path of a listening unix domain socket, and
// Connect fails immediately if nothing is listening there.
//
// On Windows, rendezvous is the name of a named pipe, without the \\.\pipe\
// prefix. Since a pipe client cannot wait for a pipe to be created, Connect
// polls every 100ms while the pipe does not exist, and fails with a
// KindTimeout error after 20s. Other errors are returned immediately.
func Connect(rendezvous string) (Endpoint, error) {
	return connect(rendezvous)
}
