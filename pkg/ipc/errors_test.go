package ipc

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

var errorTests = []struct {
	name string
	err  *Error
	want string
}{
	{"kind only", &Error{Kind: KindNotRunning}, "child process is not running"},
	{"op", &Error{Op: "send", Kind: KindNotRunning}, "send: child process is not running"},
	{"op and path and cause",
		&Error{Op: "listen", Kind: KindIO, Path: "/tmp/x.sock", Err: io.ErrClosedPipe},
		"listen: I/O error (/tmp/x.sock): io: read/write on closed pipe"},
	{"unknown kind", &Error{Kind: Kind(42)}, "Kind(42)"},
}

func TestError_Error(t *testing.T) {
	for _, test := range errorTests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.err.Error(); got != test.want {
				t.Errorf("got %q, want %q", got, test.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Op: "connect", Kind: KindTimeout, Path: "p"})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("wrapped timeout error does not match ErrTimeout")
	}
	if errors.Is(err, ErrPeerExited) {
		t.Errorf("timeout error matches ErrPeerExited")
	}
	// A detailed error is not a sentinel, so it only matches itself.
	detailed := &Error{Op: "send", Kind: KindNotRunning}
	if errors.Is(ErrNotRunning, detailed) {
		t.Errorf("ErrNotRunning matches a detailed error")
	}
}

func TestError_Unwrap(t *testing.T) {
	err := ioError("read", "", io.ErrUnexpectedEOF)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ioError does not wrap its cause")
	}
}

func TestKindOf(t *testing.T) {
	if k := KindOf(encodingError("receive json", errInvalidUTF8)); k != KindEncoding {
		t.Errorf("KindOf(encoding error) -> %v", k)
	}
	if k := KindOf(io.EOF); k != KindIO {
		t.Errorf("KindOf(io.EOF) -> %v, want KindIO", k)
	}
}
