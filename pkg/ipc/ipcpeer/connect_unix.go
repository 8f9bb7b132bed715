//go:build unix

package ipcpeer

import (
	"io"
	"net"
	"os"
)

func connect(path string) (io.ReadWriteCloser, error) {
	return net.Dial("unix", path)
}

func connectFD(fd int) (io.ReadWriteCloser, error) {
	f := os.NewFile(uintptr(fd), "ipc-channel")
	defer f.Close()
	return net.FileConn(f)
}
