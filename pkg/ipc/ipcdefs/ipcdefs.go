// Package ipcdefs contains definitions shared by both ends of an IPC channel.
//
// It is a separate package so that child processes, which only connect to a
// channel, do not need to depend on the parent-side implementation.
package ipcdefs

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"
)

const (
	// TokenPrefix starts every handshake token generated by a parent.
	TokenPrefix = "arkts-ipc-"
	// PipePrefix is prepended to a pipe name to form the path of a Windows
	// named pipe.
	PipePrefix = `\\.\pipe\`
	// JSONBufferSize is the size of the scratch buffer used to receive one
	// JSON message. Larger messages are truncated.
	JSONBufferSize = 8192
	// CommandResponseSize is the maximum response size of a command executed
	// over the channel.
	CommandResponseSize = 4096
)

var tokenSeq atomic.Int64

// TokenName returns a handshake token name unique to this spawn. It is seeded
// by the parent pid, the current time and a per-process sequence number, so
// that concurrent spawns, even from different parents, never share a token.
func TokenName(pid int) string {
	return fmt.Sprintf("%s%d-%s-%d", TokenPrefix, pid,
		strconv.FormatInt(time.Now().UnixNano(), 36), tokenSeq.Add(1))
}

// PipePath returns the path of the named pipe with the given name.
func PipePath(name string) string {
	return PipePrefix + name
}
