package ipc

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/exec"
	"unicode/utf8"

	"src.arkts.dev/pkg/ipc/ipcdefs"
)

var errNegativeLength = errors.New("negative length")

// Process is a child process with a connected IPC channel.
//
// A Process is only ever returned once the handshake has completed, so the
// channel of a running Process is always connected. Sends and receives fail
// fast with an ErrNotRunning error once the child is observed to have exited.
//
// A Process is not safe for concurrent use: it has no internal locking.
// Callers that send or receive from several goroutines must serialize the
// calls themselves.
type Process struct {
	cmd   *exec.Cmd
	w     *waiter
	ch    *Channel
	io    stdio
	// Whether JSON values are terminated by newlines.
	lines bool
}

// Send writes all of message to the IPC channel.
func (p *Process) Send(message []byte) error {
	if !p.IsRunning() {
		return &Error{Op: "send", Kind: KindNotRunning}
	}
	_, err := p.ch.Write(message)
	return err
}

// SendString writes a string to the IPC channel.
func (p *Process) SendString(message string) error {
	return p.Send([]byte(message))
}

// Receive does one read from the IPC channel into buf, and returns the number
// of bytes read. The data may be a part of a message written by the child, or
// span several of them; it is up to the caller to know where messages end.
// When the child has closed its end of the channel, Receive returns io.EOF.
func (p *Process) Receive(buf []byte) (int, error) {
	if !p.IsRunning() {
		return 0, &Error{Op: "receive", Kind: KindNotRunning}
	}
	return p.ch.Read(buf)
}

// ReceiveString does one read of at most maxLen bytes, and returns the data as
// a string. It fails with a KindEncoding error if the data is not valid UTF-8,
// and with a KindIO error if maxLen is negative.
func (p *Process) ReceiveString(maxLen int) (string, error) {
	if maxLen < 0 {
		return "", &Error{Op: "receive string", Kind: KindIO, Err: errNegativeLength}
	}
	buf := make([]byte, maxLen)
	n, err := p.Receive(buf)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf[:n]) {
		return "", encodingError("receive string", errInvalidUTF8)
	}
	return string(buf[:n]), nil
}

// SendJSON encodes v as JSON and sends it. On a channel opened with
// [Config.NodeChannel], the value is followed by a newline.
func (p *Process) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return encodingError("send json", err)
	}
	if p.lines {
		data = append(data, '\n')
	}
	return p.Send(data)
}

// ReceiveJSON does one read of at most [ipcdefs.JSONBufferSize] bytes and
// decodes the data as JSON into v.
//
// A message larger than the buffer is read partially and fails to decode; the
// rest of it is left in the channel. Use [Process.Decoder] to read JSON values
// of any size.
func (p *Process) ReceiveJSON(v any) error {
	buf := make([]byte, ipcdefs.JSONBufferSize)
	n, err := p.Receive(buf)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(buf[:n], v); err != nil {
		return encodingError("receive json", err)
	}
	return nil
}

// Decoder returns a JSON decoder reading from the IPC channel. Unlike
// ReceiveJSON, it handles values of any size and several values arriving in
// one read, and it does not check whether the child is still running, so it
// can drain values the child sent before exiting.
func (p *Process) Decoder() *json.Decoder {
	return json.NewDecoder(p.ch)
}

// SendAndReceive sends a message and waits for one response of at most
// maxResponseLen bytes. There is no request ID: only one request may be in
// flight at a time.
func (p *Process) SendAndReceive(message string, maxResponseLen int) (string, error) {
	if err := p.SendString(message); err != nil {
		return "", err
	}
	return p.ReceiveString(maxResponseLen)
}

// ExecuteCommand sends a command and returns the response, which may be up to
// [ipcdefs.CommandResponseSize] bytes long.
func (p *Process) ExecuteCommand(command string) (string, error) {
	return p.SendAndReceive(command, ipcdefs.CommandResponseSize)
}

// IsRunning reports whether the child is still running. It never blocks. A
// child that has exited is not running, whatever its exit status.
func (p *Process) IsRunning() bool { return !p.w.exited() }

// Pid returns the process ID of the child.
func (p *Process) Pid() int { return p.cmd.Process.Pid }

// Wait waits for the child to exit and returns its exit status. A non-zero
// exit status or a termination by signal is not an error. Wait may be called
// any number of times.
func (p *Process) Wait() (*os.ProcessState, error) { return p.w.wait() }

// Kill asks the operating system to terminate the child. A nil error means
// that the request was delivered, not that the child has terminated; use Wait
// for that. Killing a child that has already been reaped returns
// os.ErrProcessDone.
func (p *Process) Kill() error { return p.cmd.Process.Kill() }

// Stdin returns the write end of the child's stdin, or nil if stdin is not a
// pipe or pseudo-terminal.
func (p *Process) Stdin() io.WriteCloser { return p.io.stdin }

// Stdout returns the read end of the child's stdout, or nil if stdout is not a
// pipe or pseudo-terminal.
func (p *Process) Stdout() io.ReadCloser { return p.io.stdout }

// Stderr returns the read end of the child's stderr, or nil if stderr is not a
// pipe. With a pseudo-terminal, stderr is merged into Stdout.
func (p *Process) Stderr() io.ReadCloser { return p.io.stderr }

// Channel returns the IPC channel. Unlike the methods of Process, reading and
// writing the Channel directly do not check whether the child is running.
func (p *Process) Channel() *Channel { return p.ch }

// Cmd returns the underlying *exec.Cmd. It must not be started or waited on.
func (p *Process) Cmd() *exec.Cmd { return p.cmd }

// Close releases the IPC channel and the parent ends of the standard streams.
// It neither kills nor waits for the child.
func (p *Process) Close() error {
	err := p.ch.Close()
	if err2 := p.io.closeParentEnds(); err == nil {
		err = err2
	}
	return err
}
