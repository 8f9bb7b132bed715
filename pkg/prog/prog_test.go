package prog_test

import (
	"errors"
	"os"
	"testing"

	"src.arkts.dev/pkg/logutil"
	"src.arkts.dev/pkg/prog"
	. "src.arkts.dev/pkg/prog/progtest"
)

func TestHelp(t *testing.T) {
	Test(t, &testProgram{shouldRun: true},
		That("-help").WritesStdoutContaining("Usage: arkts-zed [flags] [args]"),
	)
}

func TestBadFlag(t *testing.T) {
	Test(t, &testProgram{},
		That("-bad-flag").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -bad-flag\nUsage:"),
		// -h is treated as a bad flag
		That("-h").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -h\nUsage:"),
	)
}

func TestLog(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { logutil.SetOutputFile("") })
	Test(t, &testProgram{shouldRun: true},
		That("-log", dir+"/log"),
	)
	if _, err := os.Stat(dir + "/log"); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestCustomFlag(t *testing.T) {
	Test(t, &testProgram{shouldRun: true},
		That("-flag", "foo").
			WritesStdout("-flag foo\n"),
	)
}

func TestSharedFlags(t *testing.T) {
	Test(t,
		prog.Composite(
			&testProgram{shouldRun: true, sharedFlags: true},
			&testProgram{sharedFlags: true}),
		That("-json", "-settings", "s.yaml").
			WritesStdout("-json true -settings s.yaml -node node\n"),
		That("-node", "/opt/node").
			WritesStdout("-json false -settings  -node /opt/node\n"),
	)
}

func TestArgs(t *testing.T) {
	Test(t, &testProgram{shouldRun: true},
		That("a", "b").WritesStdout("args: [a b]\n"),
	)
}

func TestNoProgram(t *testing.T) {
	Test(t,
		prog.Composite(&testProgram{}, &testProgram{}),
		That().
			ExitsWith(2).
			WritesStderr("internal error: no suitable subprogram\n"))
}

func TestGoodProgram(t *testing.T) {
	Test(t,
		prog.Composite(&testProgram{}, &testProgram{shouldRun: true, writeOut: "program 2"}),
		That().WritesStdout("program 2"))
}

func TestBadUsageError(t *testing.T) {
	Test(t,
		&testProgram{shouldRun: true, returnErr: prog.BadUsage("lorem ipsum")},
		That().ExitsWith(2).WritesStderrContaining("lorem ipsum\n"))
}

func TestExitError(t *testing.T) {
	Test(t, &testProgram{shouldRun: true, returnErr: prog.Exit(3)},
		That().ExitsWith(3))
}

func TestExitError_0(t *testing.T) {
	Test(t, &testProgram{shouldRun: true, returnErr: prog.Exit(0)},
		That().ExitsWith(0))
}

func TestOtherError(t *testing.T) {
	Test(t, &testProgram{shouldRun: true, returnErr: errors.New("boom")},
		That().ExitsWith(2).WritesStderr("boom\n"))
}

type testProgram struct {
	shouldRun   bool
	sharedFlags bool
	writeOut    string
	returnErr   error

	flag     string
	json     *bool
	settings *string
	node     *string
}

func (p *testProgram) RegisterFlags(f *prog.FlagSet) {
	if p.shouldRun && !p.sharedFlags {
		f.StringVar(&p.flag, "flag", "default", "a flag")
	}
	if p.sharedFlags {
		p.json = f.JSON()
		p.settings = f.Settings()
		p.node = f.Node()
	}
}

func (p *testProgram) Run(fds [3]*os.File, args []string) error {
	if !p.shouldRun {
		return prog.NextProgram()
	}
	fds[1].WriteString(p.writeOut)

	if p.flag != "" && p.flag != "default" {
		fds[1].WriteString("-flag " + p.flag + "\n")
	}
	if p.sharedFlags {
		fds[1].WriteString("-json " + boolString(*p.json) + " -settings " + *p.settings + " -node " + *p.node + "\n")
	}
	if len(args) > 0 {
		fds[1].WriteString("args: [" + args[0])
		for _, arg := range args[1:] {
			fds[1].WriteString(" " + arg)
		}
		fds[1].WriteString("]\n")
	}
	return p.returnErr
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
