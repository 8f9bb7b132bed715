//go:build unix

package ipc

import (
	"net"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Passes one end of a socket pair to the child as an extra file, and names it
// in NODE_CHANNEL_FD. The channel is connected as soon as the child starts.
func nodeChannel(cmd *exec.Cmd, afterStart func()) (*waiter, Endpoint, error) {
	parent, child, err := socketPair()
	if err != nil {
		afterStart()
		return nil, nil, ioError("socketpair", "", err)
	}
	fd := 3 + len(cmd.ExtraFiles)
	cmd.ExtraFiles = append(cmd.ExtraFiles, child)
	withNodeChannel(cmd, fd)

	w, err := startChild(cmd, "", afterStart)
	child.Close()
	if err != nil {
		parent.Close()
		return nil, nil, err
	}
	conn, err := net.FileConn(parent)
	parent.Close()
	if err != nil {
		w.kill()
		return nil, nil, ioError("open channel", "", err)
	}
	logger.Printf("pid %d has the channel as fd %d", cmd.Process.Pid, fd)
	return w, sockEndpoint{conn}, nil
}

func socketPair() (parent, child *os.File, err error) {
	// Hold ForkLock so that no child started concurrently inherits the pair
	// before it is marked close-on-exec.
	syscall.ForkLock.RLock()
	defer syscall.ForkLock.RUnlock()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, os.NewSyscallError("socketpair", err)
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	return os.NewFile(uintptr(fds[0]), "ipc-parent"), os.NewFile(uintptr(fds[1]), "ipc-child"), nil
}
