package ipc

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/windows"
	"src.arkts.dev/pkg/ipc/ipcdefs"
)

// Variables for testing.
var (
	pipePollInterval   = 100 * time.Millisecond
	pipeConnectTimeout = 20 * time.Second
)

type pipeEndpoint struct {
	*os.File
}

func (pipeEndpoint) Flush() error { return nil }

// Opens the client end of a named pipe once. The returned error is the raw
// error from CreateFile, so that callers can check for ERROR_FILE_NOT_FOUND.
func openPipe(name string) (Endpoint, error) {
	path := ipcdefs.PipePath(name)
	path16, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateFile(path16,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0, nil, windows.OPEN_EXISTING, windows.FILE_ATTRIBUTE_NORMAL, 0)
	if err != nil {
		return nil, err
	}
	return pipeEndpoint{os.NewFile(uintptr(h), path)}, nil
}

func isPipeNotFound(err error) bool {
	return errors.Is(err, windows.ERROR_FILE_NOT_FOUND)
}

func connect(name string) (Endpoint, error) {
	deadline := time.Now().Add(pipeConnectTimeout)
	for {
		ep, err := openPipe(name)
		if err == nil {
			return ep, nil
		}
		if !isPipeNotFound(err) {
			return nil, ioError("connect", name, err)
		}
		if time.Now().After(deadline) {
			return nil, &Error{Op: "connect", Kind: KindTimeout, Path: name, Err: err}
		}
		time.Sleep(pipePollInterval)
	}
}
