package ipc

import (
	"errors"
	"os/exec"
)

var errNoNodeChannel = errors.New("node channels are not supported on Windows")

func nodeChannel(cmd *exec.Cmd, afterStart func()) (*waiter, Endpoint, error) {
	afterStart()
	return nil, nil, &Error{Op: "start", Kind: KindStart, Err: errNoNodeChannel}
}
