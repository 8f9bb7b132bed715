// Package progtest contains utilities for testing [prog.Program]
// implementations in-process.
package progtest

import (
	"io"
	"os"
	"strings"
	"testing"

	"src.arkts.dev/pkg/must"
	"src.arkts.dev/pkg/prog"
)

// Case is a test case for a program. It is created by [That] and augmented by
// the setters, which can be chained.
type Case struct {
	args  []string
	stdin string
	want  result
}

type result struct {
	exit   int
	stdout output
	stderr output
}

type output struct {
	content string
	partial bool
}

func (o output) String() string {
	if o.partial {
		return "text containing " + stringOrEmpty(o.content)
	}
	return stringOrEmpty(o.content)
}

func stringOrEmpty(s string) string {
	if s == "" {
		return "empty text"
	}
	return "\"" + s + "\""
}

// That returns a new Case with the specified CLI arguments, not including
// argv[0].
//
// The new Case expects the program run to exit with 0, and write nothing to
// stdout or stderr.
//
// When combined with the following methods, this is useful for writing tests
// for programs:
//
//	Test(t, someProgram,
//		That("-c", "echo").WritesStdout("\n"),
//		That("-x").ExitsWith(2).WritesStderrContaining("flag provided but not defined"),
//	)
func That(args ...string) Case {
	return Case{args: args}
}

// WithStdin returns an altered Case that provides the given input to stdin of
// the program.
func (c Case) WithStdin(s string) Case {
	c.stdin = s
	return c
}

// ExitsWith returns an altered Case that requires the program run to return
// with the given exit status.
func (c Case) ExitsWith(code int) Case {
	c.want.exit = code
	return c
}

// WritesStdout returns an altered Case that requires the program run to write
// exactly the given text to stdout.
func (c Case) WritesStdout(s string) Case {
	c.want.stdout = output{s, false}
	return c
}

// WritesStdoutContaining returns an altered Case that requires the program run
// to write output to stdout that contains the given text as a substring.
func (c Case) WritesStdoutContaining(s string) Case {
	c.want.stdout = output{s, true}
	return c
}

// WritesStderr returns an altered Case that requires the program run to write
// exactly the given text to stderr.
func (c Case) WritesStderr(s string) Case {
	c.want.stderr = output{s, false}
	return c
}

// WritesStderrContaining returns an altered Case that requires the program run
// to write output to stderr that contains the given text as a substring.
func (c Case) WritesStderrContaining(s string) Case {
	c.want.stderr = output{s, true}
	return c
}

// Test runs test cases against a given program.
func Test(t *testing.T, p prog.Program, cases ...Case) {
	t.Helper()
	for _, c := range cases {
		t.Run(strings.Join(c.args, " "), func(t *testing.T) {
			t.Helper()
			r := run(p, c.stdin, c.args)
			if r.exit != c.want.exit {
				t.Errorf("got exit %v, want %v", r.exit, c.want.exit)
			}
			if !matchOutput(r.stdout, c.want.stdout) {
				t.Errorf("got stdout %v, want %v", r.stdout, c.want.stdout)
			}
			if !matchOutput(r.stderr, c.want.stderr) {
				t.Errorf("got stderr %v, want %v", r.stderr, c.want.stderr)
			}
		})
	}
}

// Run runs a Program with the given arguments, not including argv[0]. It
// returns the exit status and the output written to stdout and stderr.
func Run(p prog.Program, args ...string) (exit int, stdout, stderr string) {
	r := run(p, "", args)
	return r.exit, r.stdout.content, r.stderr.content
}

// RunWithStdin is like Run, but also supplies stdin.
func RunWithStdin(p prog.Program, stdin string, args ...string) (exit int, stdout, stderr string) {
	r := run(p, stdin, args)
	return r.exit, r.stdout.content, r.stderr.content
}

func run(p prog.Program, stdin string, args []string) result {
	r0, w0 := must.Pipe()
	// TODO: This assumes that stdin fits in the pipe buffer. Don't assume that.
	_, err := io.WriteString(w0, stdin)
	if err != nil {
		panic(err)
	}
	w0.Close()
	defer r0.Close()

	w1, get1 := capturedOutput()
	w2, get2 := capturedOutput()

	exit := prog.Run([3]*os.File{r0, w1, w2}, append([]string{"arkts-zed"}, args...), p)
	return result{exit, output{get1(), false}, output{get2(), false}}
}

func matchOutput(got, want output) bool {
	if want.partial {
		return strings.Contains(got.content, want.content)
	}
	return got.content == want.content
}

func capturedOutput() (*os.File, func() string) {
	r, w := must.Pipe()
	output := make(chan string, 1)
	go func() {
		output <- string(must.ReadAllAndClose(r))
	}()
	return w, func() string {
		// Close the write side so captureOutput goroutine sees EOF and
		// terminates allowing us to capture and cache the output.
		w.Close()
		return <-output
	}
}
