// Package env keeps names of environment variables with special significance
// to arkts-zed.
package env

// Environment variables with special significance to arkts-zed.
//
// Note that some of these env vars may be significant only in special
// circumstances, such as when running unit tests.
const (
	// IPC_SOCKET_PATH carries the handshake token from a parent to the child
	// it spawns: a unix socket path on Unix, a pipe name on Windows. Renaming
	// it breaks every peer.
	IPC_SOCKET_PATH = "IPC_SOCKET_PATH"
	// NODE_CHANNEL_FD names the inherited descriptor that Node.js uses as the
	// channel of process.send, and NODE_CHANNEL_SERIALIZATION_MODE its
	// encoding. Both are read by Node.js itself.
	NODE_CHANNEL_FD                 = "NODE_CHANNEL_FD"
	NODE_CHANNEL_SERIALIZATION_MODE = "NODE_CHANNEL_SERIALIZATION_MODE"
	// ETS_LANG_SERVER is the absolute path of the language server script run
	// by the wrapper.
	ETS_LANG_SERVER = "ETS_LANG_SERVER"
	// ZED_ETS_LANG_SERVER_LOG enables the wrapper's log file when set to
	// "true".
	ZED_ETS_LANG_SERVER_LOG = "ZED_ETS_LANG_SERVER_LOG"

	ARKTS_TEST_TIME_SCALE = "ARKTS_TEST_TIME_SCALE"
	ARKTS_IPCTEST_HELPER  = "ARKTS_IPCTEST_HELPER"
)
