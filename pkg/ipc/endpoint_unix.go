//go:build unix

package ipc

import (
	"net"
)

type sockEndpoint struct {
	net.Conn
}

func (sockEndpoint) Flush() error { return nil }

func connect(path string) (Endpoint, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, ioError("connect", path, err)
	}
	return sockEndpoint{conn}, nil
}
