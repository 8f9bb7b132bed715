package logutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetOutput(t *testing.T) {
	var sb strings.Builder
	logger := GetLogger("[test] ")
	SetOutput(&sb)
	t.Cleanup(func() { SetOutput(io.Discard) })

	logger.Println("hello")
	if got := sb.String(); !strings.HasPrefix(got, "[test] ") || !strings.HasSuffix(got, "hello\n") {
		t.Errorf("got log %q, want [test] prefix and hello suffix", got)
	}
}

func TestSetOutputFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "log")
	logger := GetLogger("[test] ")
	err := SetOutputFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	logger.Println("to file")
	SetOutputFile("")

	content, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "to file") {
		t.Errorf("log file has %q, want it to contain %q", content, "to file")
	}
}

func TestSetOutputFile_Error(t *testing.T) {
	err := SetOutputFile(filepath.Join(t.TempDir(), "no-such-dir", "log"))
	if err == nil {
		t.Errorf("got nil error, want non-nil")
	}
}

func TestHasOutput(t *testing.T) {
	if HasOutput() {
		t.Errorf("HasOutput -> true before output is set")
	}
	SetOutput(io.Discard)
	if HasOutput() {
		t.Errorf("HasOutput -> true after SetOutput(io.Discard)")
	}
	SetOutput(&strings.Builder{})
	t.Cleanup(func() { SetOutput(io.Discard) })
	if !HasOutput() {
		t.Errorf("HasOutput -> false after SetOutput")
	}
}
