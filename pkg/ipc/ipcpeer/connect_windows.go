package ipcpeer

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/windows"
	"src.arkts.dev/pkg/ipc/ipcdefs"
)

const pipeBufferSize = 4096

func connect(name string) (io.ReadWriteCloser, error) {
	path := ipcdefs.PipePath(name)
	path16, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateNamedPipe(path16,
		windows.PIPE_ACCESS_DUPLEX,
		windows.PIPE_TYPE_BYTE|windows.PIPE_READMODE_BYTE|windows.PIPE_WAIT,
		1, pipeBufferSize, pipeBufferSize, 0, nil)
	if err != nil {
		return nil, &os.PathError{Op: "CreateNamedPipe", Path: path, Err: err}
	}
	// The parent may have opened the pipe between CreateNamedPipe and
	// ConnectNamedPipe, in which case ERROR_PIPE_CONNECTED is returned.
	err = windows.ConnectNamedPipe(h, nil)
	if err != nil && err != windows.ERROR_PIPE_CONNECTED {
		windows.CloseHandle(h)
		return nil, &os.PathError{Op: "ConnectNamedPipe", Path: path, Err: err}
	}
	return os.NewFile(uintptr(h), path), nil
}

func connectFD(int) (io.ReadWriteCloser, error) {
	return nil, errors.New("inherited channels are not supported on Windows")
}
