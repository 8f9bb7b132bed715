package lspwrap

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"
	"src.arkts.dev/pkg/extension"
	"src.arkts.dev/pkg/ipc"
	"src.arkts.dev/pkg/ipc/ipctest"
	"src.arkts.dev/pkg/testutil"
)

type fakeSettings map[string]extension.Settings

func (s fakeSettings) Resolve(server, workspace string) (extension.Settings, error) {
	if server != extension.ServerName {
		return extension.Settings{}, nil
	}
	return s[workspace], nil
}

var testSettings = fakeSettings{
	filepath.FromSlash("/ws"): {
		InitializationOptions: map[string]any{"sdk": "/sdk"},
		Settings:              map[string]any{"lint": true},
	},
}

var workspaceOfTests = []struct {
	msg  string
	want string
}{
	{`{"params":{"rootUri":"file:///ws","rootPath":"/other"}}`, filepath.FromSlash("/ws")},
	{`{"params":{"rootPath":"/other"}}`, "/other"},
	{`{"params":{"rootUri":"untitled:x"}}`, "untitled:x"},
	{`{"params":{}}`, ""},
}

func TestWorkspaceOf(t *testing.T) {
	for _, test := range workspaceOfTests {
		if got := workspaceOf(json.RawMessage(test.msg)); got != test.want {
			t.Errorf("workspaceOf(%s) -> %q, want %q", test.msg, got, test.want)
		}
	}
}

var rewriteTests = []struct {
	name    string
	msg     string
	wantSDK string
}{
	{"adds options", initialize, "/sdk"},
	{"keeps client options", initializeOpts, "/mine"},
	{"replaces null options",
		`{"id":1,"method":"initialize","params":{"rootUri":"file:///ws","initializationOptions":null}}`,
		"/sdk"},
	{"unconfigured workspace",
		`{"id":1,"method":"initialize","params":{"rootUri":"file:///other"}}`, ""},
	{"other method", `{"id":1,"method":"shutdown","params":{"rootUri":"file:///ws"}}`, ""},
}

func TestWrapper_Rewrite(t *testing.T) {
	for _, test := range rewriteTests {
		t.Run(test.name, func(t *testing.T) {
			w := newWrapper(nil, testSettings, nil)
			got := w.rewrite(json.RawMessage(test.msg))
			sdk := gjson.GetBytes(got, "params.initializationOptions.sdk").String()
			if sdk != test.wantSDK {
				t.Errorf("got %s, want initializationOptions.sdk %q", got, test.wantSDK)
			}
		})
	}
}

// Spawns the fake language server, and kills it when the test finishes.
func spawnServer(t *testing.T) *ipc.Process {
	t.Helper()
	h := ipctest.Helper("lsp")
	proc, err := ipc.SpawnConfig(&ipc.Config{Path: h.Path, Args: h.Args, Env: h.Env})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		proc.Kill()
		proc.Wait()
		proc.Close()
	})
	return proc
}

func TestWrapper_PushSettings(t *testing.T) {
	proc := spawnServer(t)
	w := newWrapper(proc, testSettings, nil)

	// Nothing is pushed before the workspace is known, so the first value
	// read back answers the second push.
	w.pushSettings()
	w.rewrite(json.RawMessage(initialize))
	w.pushSettings()

	var got json.RawMessage
	if err := proc.Decoder().Decode(&got); err != nil {
		t.Fatal(err)
	}
	checkJSON(t, string(got), map[string]string{
		"method":               "test/didChangeConfiguration",
		"params.settings.lint": "true",
	})
	if gjson.GetBytes(got, "id").Exists() {
		t.Errorf("pushed settings carry an id: %s", got)
	}
}

var readFrameTests = []struct {
	name        string
	input       string
	wantBodies  []string
	wantSkipped int
	wantErr     error
}{
	{name: "valid frames",
		input:      frames(`{"id":1}`, `{"id":2}`),
		wantBodies: []string{`{"id":1}`, `{"id":2}`}},
	{name: "other headers",
		input:      "Content-Type: application/vscode-jsonrpc\r\nContent-Length: 8\r\n\r\n" + `{"id":1}`,
		wantBodies: []string{`{"id":1}`}},
	{name: "lower-case header",
		input:      "content-length: 8\r\n\r\n" + `{"id":1}`,
		wantBodies: []string{`{"id":1}`}},
	{name: "malformed body",
		input:      frames(malformedBody, `{"id":2}`),
		wantBodies: []string{`{"id":2}`}, wantSkipped: 1},
	{name: "empty body",
		input:      frames("", `{"id":2}`),
		wantBodies: []string{`{"id":2}`}, wantSkipped: 1},
	{name: "missing Content-Length",
		input:      "X-Foo: 1\r\n\r\n" + frame(`{"id":2}`),
		wantBodies: []string{`{"id":2}`}, wantSkipped: 1},
	{name: "bad Content-Length",
		input:      "Content-Length: x\r\n\r\n" + frame(`{"id":2}`),
		wantBodies: []string{`{"id":2}`}, wantSkipped: 1},
	{name: "bad line ending",
		input:      "X-Foo: 1\nContent-Length: 8\r\n\r\n" + `{"id":1}` + frame(`{"id":2}`),
		wantBodies: []string{`{"id":2}`}, wantSkipped: 1},
	{name: "truncated header",
		input:   "Content-Length: 8",
		wantErr: io.ErrUnexpectedEOF},
	{name: "truncated body",
		input:   "Content-Length: 8\r\n\r\n{}",
		wantErr: io.ErrUnexpectedEOF},
}

func TestReadFrame(t *testing.T) {
	for _, test := range readFrameTests {
		t.Run(test.name, func(t *testing.T) {
			bodies, skipped, err := readBodies(test.input)
			if diff := cmp.Diff(test.wantBodies, bodies); diff != "" {
				t.Errorf("bodies (-want +got):\n%s", diff)
			}
			if skipped != test.wantSkipped {
				t.Errorf("skipped %d frames, want %d", skipped, test.wantSkipped)
			}
			if err != test.wantErr {
				t.Errorf("got error %v, want %v", err, test.wantErr)
			}
		})
	}
}

func TestReadFrame_TooLarge(t *testing.T) {
	testutil.Set(t, &maxFrameSize, 4)
	bodies, skipped, err := readBodies(frames(`{"id":1}`, `{}`))
	if !cmp.Equal(bodies, []string{`{}`}) || skipped != 1 || err != nil {
		t.Errorf("got (%q, %d, %v), want ([{}], 1, nil)", bodies, skipped, err)
	}
}

// Reads frames from input with readFrame, and returns the valid bodies, the
// number of skipped frames and the error that stopped reading, or nil at EOF.
func readBodies(input string) (bodies []string, skipped int, err error) {
	br := bufio.NewReader(strings.NewReader(input))
	for {
		body, err := readFrame(br)
		var ferr *frameError
		switch {
		case errors.As(err, &ferr):
			skipped++
		case err == io.EOF:
			return bodies, skipped, nil
		case err != nil:
			return bodies, skipped, err
		default:
			bodies = append(bodies, string(body))
		}
	}
}

func TestWrapper_ForwardToServer_SkipsMalformedBody(t *testing.T) {
	proc := spawnServer(t)
	w := newWrapper(proc, testSettings, nil)

	w.forwardToServer(strings.NewReader(
		frames(malformedBody, `{"jsonrpc":"2.0","id":7,"method":"shutdown"}`)))

	var got json.RawMessage
	if err := proc.Decoder().Decode(&got); err != nil {
		t.Fatal(err)
	}
	checkJSON(t, string(got), map[string]string{
		"id":            "7",
		"result.method": "shutdown",
	})
}

type failingReader struct{ reads atomic.Int32 }

func (r *failingReader) Read([]byte) (int, error) {
	r.reads.Add(1)
	return 0, errors.New("read failed")
}

func TestWrapper_ForwardToServer_StopsOnReadError(t *testing.T) {
	r := &failingReader{}
	done := make(chan struct{})
	go func() {
		newWrapper(nil, testSettings, nil).forwardToServer(r)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(testutil.Scaled(time.Second)):
		t.Fatalf("forwardToServer still running after %d reads", r.reads.Load())
	}
	if n := r.reads.Load(); n != 1 {
		t.Errorf("read %d times, want 1", n)
	}
}
