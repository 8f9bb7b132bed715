package lspwrap

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"src.arkts.dev/pkg/extension"
	"src.arkts.dev/pkg/ipc"
)

type wrapper struct {
	proc     *ipc.Process
	settings extension.SettingsResolver
	stdout   io.Writer

	// Serializes writes to the IPC channel, which has no locking of its own.
	sendMu sync.Mutex

	// Workspace of the initialize request; empty until then.
	mu        sync.Mutex
	workspace string
}

func newWrapper(proc *ipc.Process, settings extension.SettingsResolver, stdout io.Writer) *wrapper {
	return &wrapper{proc: proc, settings: settings, stdout: stdout}
}

func (w *wrapper) send(msg any) error {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	return w.proc.SendJSON(msg)
}

// Reads LSP frames from r and sends their bodies to the server, until r is
// exhausted or fails, or the server has exited. Malformed frames are skipped.
func (w *wrapper) forwardToServer(r io.Reader) {
	br := bufio.NewReader(r)
	for {
		body, err := readFrame(br)
		if err != nil {
			var ferr *frameError
			if errors.As(err, &ferr) {
				logger.Println("skipping unparsable message from client:", err)
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				logger.Println("cannot read from client:", err)
			}
			return
		}
		msg := w.rewrite(json.RawMessage(body))
		logger.Printf("client -> server: %s", gjson.GetBytes(msg, "method"))
		if err := w.send(msg); err != nil {
			logger.Println("cannot send to server:", err)
			if errors.Is(err, ipc.ErrNotRunning) {
				return
			}
		}
	}
}

// Frames with a larger body are skipped. Variable for testing.
var maxFrameSize int64 = 64 << 20

// A frame that was read but cannot be used. The reader is left at the start of
// the next frame.
type frameError struct{ err error }

func (e *frameError) Error() string { return e.err.Error() }
func (e *frameError) Unwrap() error { return e.err }

// Reads one LSP frame and returns its body, which is valid JSON. Headers other
// than Content-Length are ignored. The whole body is always consumed, so that
// a malformed one does not corrupt the frames that follow. Errors of br are
// returned as is.
func readFrame(br *bufio.Reader) ([]byte, error) {
	var headerErr error
	length := int64(-1)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if err == io.EOF && line != "" {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		line = strings.TrimSuffix(line, "\n")
		if !strings.HasSuffix(line, "\r") {
			headerErr = errors.New(`line endings must be \r\n`)
			if line == "" {
				break
			}
			continue
		}
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			headerErr = fmt.Errorf("malformed header %q", line)
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil || n < 0 {
				headerErr = fmt.Errorf("bad Content-Length %q", strings.TrimSpace(value))
				continue
			}
			length = n
		}
	}
	if length < 0 {
		if headerErr == nil {
			headerErr = errors.New("missing Content-Length")
		}
		return nil, &frameError{headerErr}
	}
	if length > maxFrameSize {
		if _, err := io.CopyN(io.Discard, br, length); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		return nil, &frameError{fmt.Errorf("frame of %d bytes is too large", length)}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(br, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if headerErr != nil {
		return nil, &frameError{headerErr}
	}
	if !json.Valid(body) {
		return nil, &frameError{fmt.Errorf("body is not JSON: %.40q", body)}
	}
	return body, nil
}

// Adds the configured initializationOptions to an initialize request that
// has none, and remembers its workspace.
func (w *wrapper) rewrite(msg json.RawMessage) json.RawMessage {
	if gjson.GetBytes(msg, "method").String() != "initialize" {
		return msg
	}
	ws := workspaceOf(msg)
	w.mu.Lock()
	w.workspace = ws
	w.mu.Unlock()
	logger.Println("initializing workspace", ws)

	if opts := gjson.GetBytes(msg, "params.initializationOptions"); opts.Exists() && opts.Type != gjson.Null {
		return msg
	}
	s, err := w.settings.Resolve(extension.ServerName, ws)
	if err != nil {
		logger.Println("cannot resolve settings:", err)
		return msg
	}
	if s.InitializationOptions == nil {
		return msg
	}
	rewritten, err := sjson.SetBytes(msg, "params.initializationOptions", s.InitializationOptions)
	if err != nil {
		logger.Println("cannot set initializationOptions:", err)
		return msg
	}
	return rewritten
}

// Returns the workspace path of an initialize request, preferring rootUri to
// rootPath.
func workspaceOf(msg json.RawMessage) string {
	if uri := gjson.GetBytes(msg, "params.rootUri").String(); uri != "" {
		if u, err := url.Parse(uri); err == nil && u.Scheme == "file" {
			return filepath.FromSlash(u.Path)
		}
		return uri
	}
	return gjson.GetBytes(msg, "params.rootPath").String()
}

// Sends the current settings of the workspace to the server.
func (w *wrapper) pushSettings() {
	w.mu.Lock()
	ws := w.workspace
	w.mu.Unlock()
	if ws == "" {
		return
	}
	s, err := w.settings.Resolve(extension.ServerName, ws)
	if err != nil {
		logger.Println("cannot resolve settings:", err)
		return
	}
	req := &jsonrpc2.Request{Method: "workspace/didChangeConfiguration", Notif: true}
	if err := req.SetParams(lsp.DidChangeConfigurationParams{Settings: s.Settings}); err != nil {
		logger.Println("cannot encode settings:", err)
		return
	}
	logger.Println("pushing settings of", ws)
	if err := w.send(req); err != nil {
		logger.Println("cannot send settings:", err)
	}
}

// Reads JSON values from the IPC channel and writes them to stdout as LSP
// frames, until the channel is closed.
func (w *wrapper) forwardToClient() {
	dec := w.proc.Decoder()
	for {
		var msg json.RawMessage
		if err := dec.Decode(&msg); err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Println("cannot read from server:", err)
			}
			return
		}
		method := gjson.GetBytes(msg, "method").String()
		logger.Printf("server -> client: %s", method)
		if method == "window/logMessage" {
			logMessage(msg)
		}
		if err := (jsonrpc2.VSCodeObjectCodec{}).WriteObject(w.stdout, msg); err != nil {
			logger.Println("cannot write to client:", err)
			return
		}
	}
}

var messageTypes = map[lsp.MessageType]string{
	lsp.MTError: "error", lsp.MTWarning: "warning", lsp.Info: "info", lsp.Log: "log",
}

func logMessage(msg json.RawMessage) {
	var params lsp.LogMessageParams
	if err := json.Unmarshal([]byte(gjson.GetBytes(msg, "params").Raw), &params); err != nil {
		logger.Println("malformed window/logMessage:", err)
		return
	}
	logger.Printf("server %s: %s", messageTypes[params.Type], params.Message)
}

// Writes each line read from r to the log, until EOF.
func drainLines(name string, r io.Reader) {
	if r == nil {
		return
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		logger.Printf("%s: %s", name, scanner.Text())
	}
}
