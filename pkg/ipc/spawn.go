// Package ipc spawns child processes with a private IPC channel.
//
// Besides its standard streams, a child spawned by this package has one more
// bidirectional byte stream to its parent. The parent passes a handshake
// token to the child in the IPC_SOCKET_PATH environment variable, and the
// child uses it to connect (see the ipcpeer package):
//
//   - On Unix, the token is the path of a unix socket on which the parent is
//     listening. The parent waits for the child to connect without a time
//     limit, but gives up if the child exits first. The socket file is removed
//     as soon as the child has connected.
//
//   - On Windows, the token is the name of a named pipe that the child must
//     create. The parent polls for the pipe every 100ms, up to 300 times, and
//     gives up early if the child exits.
//
// A child that runs Node.js can instead inherit a connected channel, see
// [Config.NodeChannel].
//
// Messages are raw bytes, strings or JSON values. The channel has no framing:
// the sizes of reads need not match the sizes of writes.
package ipc

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("invalid UTF-8")

// Config configures a child process.
type Config struct {
	// Path of the program. If it contains no path separators, it is looked up
	// in PATH.
	Path string
	// Arguments, not including the program name.
	Args []string
	// Environment in the "key=value" form. If nil, the child inherits the
	// environment of the current process. IPC_SOCKET_PATH is always added.
	Env []string
	// Working directory. If empty, the child runs in the working directory of
	// the current process.
	Dir string
	// Dispositions of the standard streams. The zero value is Pipe.
	Stdin, Stdout, Stderr Stdio
	// If true, the child gets a new pseudo-terminal as all of its standard
	// streams, and the dispositions above are ignored. Unix only.
	PTY bool
	// If true, there is no handshake. The child inherits its end of the
	// channel as a file descriptor named by NODE_CHANNEL_FD, with
	// NODE_CHANNEL_SERIALIZATION_MODE set to json, which is how Node.js
	// expects an "ipc" stdio. JSON values sent on such a channel are
	// terminated by newlines. Unix only.
	NodeChannel bool
}

// Spawn starts a program with stdin, stdout and stderr all piped, and waits
// for it to connect to the IPC channel.
func Spawn(program string, args ...string) (*Process, error) {
	return SpawnConfig(&Config{Path: program, Args: args})
}

// SpawnConfig starts a child configured by cfg, and waits for it to connect to
// the IPC channel.
func SpawnConfig(cfg *Config) (*Process, error) {
	return SpawnContext(context.Background(), cfg)
}

// SpawnContext is like SpawnConfig, but gives up waiting for the child to
// connect when ctx is done. The child is then killed, and the error has kind
// KindTimeout and wraps ctx.Err().
func SpawnContext(ctx context.Context, cfg *Config) (*Process, error) {
	cmd := exec.Command(cfg.Path, cfg.Args...)
	cmd.Env = cfg.Env
	cmd.Dir = cfg.Dir
	var s stdio
	var err error
	if cfg.PTY {
		err = s.setupPTY(cmd)
	} else {
		err = s.setup(cmd, cfg.Stdin, cfg.Stdout, cfg.Stderr)
	}
	if err != nil {
		s.closeChildEnds()
		s.closeParentEnds()
		return nil, ioError("open stdio", "", err)
	}
	return spawn(ctx, cmd, s, cfg.NodeChannel)
}

// SpawnCommand starts a command configured by the caller, and waits for it to
// connect to the IPC channel. The standard streams are used as configured in
// cmd, and the Stdin, Stdout and Stderr methods of the returned Process
// return nil. The Pipe methods of cmd must not be used, since the Process
// reaps the child in the background.
func SpawnCommand(cmd *exec.Cmd) (*Process, error) {
	return spawn(context.Background(), cmd, stdio{}, false)
}

func spawn(ctx context.Context, cmd *exec.Cmd, s stdio, node bool) (*Process, error) {
	w, ch, err := openChannel(ctx, cmd, node, s.closeChildEnds)
	if err != nil {
		s.closeParentEnds()
		return nil, err
	}
	return &Process{cmd: cmd, w: w, ch: ch, io: s, lines: node}, nil
}

// SyncResult is the result of SpawnSync.
type SyncResult struct {
	// Exit status of the child.
	Status *os.ProcessState
	// Everything the child wrote to stdout and stderr.
	Stdout, Stderr string
	// The child process, which has exited. Its Channel can still be read to
	// drain messages the child sent before exiting.
	Process *Process
}

// SpawnSync spawns a program like Spawn, closes its stdin, reads its stdout
// and then its stderr until EOF, and waits for it to exit. Output that is not
// valid UTF-8 is an error. Any error fails the whole call, and the child is
// killed.
//
// Since stdout and stderr are read one after the other, a child that fills
// the stderr pipe before closing stdout blocks forever.
func SpawnSync(program string, args ...string) (*SyncResult, error) {
	p, err := Spawn(program, args...)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*SyncResult, error) {
		p.Kill()
		p.Wait()
		p.Close()
		return nil, err
	}
	p.Stdin().Close()
	stdout, err := readText(p.Stdout(), "read stdout")
	if err != nil {
		return fail(err)
	}
	stderr, err := readText(p.Stderr(), "read stderr")
	if err != nil {
		return fail(err)
	}
	status, err := p.Wait()
	if err != nil {
		return fail(ioError("wait", "", err))
	}
	return &SyncResult{status, stdout, stderr, p}, nil
}

func readText(r io.Reader, op string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", ioError(op, "", err)
	}
	if !utf8.Valid(data) {
		return "", encodingError(op, errInvalidUTF8)
	}
	return string(data), nil
}
