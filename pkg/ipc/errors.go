package ipc

import (
	"errors"
	"fmt"
	"os"
)

// Kind classifies an [Error].
type Kind int

// Possible values of Kind. They let a caller tell "the child never started"
// (KindStart), "the child started but never connected" (KindTimeout,
// KindPeerExited), "the child connected then died" (KindNotRunning) and "the
// message exchange failed" (KindIO, KindEncoding) apart.
const (
	// An operating system call on the channel failed: connect, bind, listen,
	// accept, read or write.
	KindIO Kind = iota
	// The child process could not be started.
	KindStart
	// A send or receive was attempted after the child had exited.
	KindNotRunning
	// The child did not create its end of the channel in time. Only the
	// Windows handshake and the Windows endpoint connect have timeouts.
	KindTimeout
	// The child exited before completing the handshake.
	KindPeerExited
	// Data could not be encoded or decoded: invalid UTF-8 or JSON.
	KindEncoding
)

var kindNames = [...]string{
	KindIO:         "I/O error",
	KindStart:      "cannot start child process",
	KindNotRunning: "child process is not running",
	KindTimeout:    "timed out",
	KindPeerExited: "child process exited during handshake",
	KindEncoding:   "invalid data",
}

func (k Kind) String() string {
	if 0 <= k && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinel errors that match an [*Error] of the corresponding kind with
// [errors.Is].
var (
	ErrNotRunning = &Error{Kind: KindNotRunning}
	ErrTimeout    = &Error{Kind: KindTimeout}
	ErrPeerExited = &Error{Kind: KindPeerExited}
)

// Error is the error type returned by all fallible operations of this
// package.
type Error struct {
	// Operation that failed, such as "accept" or "send".
	Op   string
	Kind Kind
	// The handshake token involved, if any.
	Path string
	// Exit status of the child, set for KindPeerExited.
	Status *os.ProcessState
	// The underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Status != nil {
		msg += ": " + e.Status.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind with no further
// details, which is the case for the sentinel errors of this package.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Err == nil && t.Path == "" && t.Kind == e.Kind
}

// KindOf returns the Kind of err if it is or wraps an *Error, and KindIO
// otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIO
}

func ioError(op, path string, err error) error {
	return &Error{Op: op, Kind: KindIO, Path: path, Err: err}
}

func encodingError(op string, err error) error {
	return &Error{Op: op, Kind: KindEncoding, Err: err}
}
