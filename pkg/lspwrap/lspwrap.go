// Package lspwrap implements the -wrap subprogram, which sits between an
// editor and the ArkTS language server. The editor talks LSP over stdin and
// stdout; the server is started with Node.js and talks newline-terminated
// JSON values over the channel it inherits as its "ipc" stdio, which is what
// vscode-languageserver expects with --node-ipc.
package lspwrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"src.arkts.dev/pkg/env"
	"src.arkts.dev/pkg/extension"
	"src.arkts.dev/pkg/ipc"
	"src.arkts.dev/pkg/logutil"
	"src.arkts.dev/pkg/prog"
	"src.arkts.dev/pkg/sys"
)

var logger = logutil.GetLogger("[lspwrap] ")

// LogFileName is the name of the log file written next to the executable when
// ZED_ETS_LANG_SERVER_LOG is "true".
const LogFileName = "arkts-lsw.log"

// Variables for testing.
var (
	// How long the server may keep running after stdin is closed.
	shutdownGrace = 5 * time.Second
	// How long to keep forwarding server messages after the server exits.
	drainTimeout = time.Second
	// Subscribes c to the signals that stop the wrapper.
	notifySignals = func(c chan<- os.Signal) {
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	}
)

// Program is the -wrap subprogram.
type Program struct {
	run      bool
	server   string
	node     *string
	settings *string
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.run, "wrap", false,
		"Run the language server and forward LSP messages between stdio and its IPC channel")
	fs.StringVar(&p.server, "server", "",
		"Path of the language server script; defaults to $"+env.ETS_LANG_SERVER)
	p.node = fs.Node()
	p.settings = fs.Settings()
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	if !p.run {
		return prog.NextProgram()
	}
	if len(args) > 0 {
		return prog.BadUsage("arguments are not allowed with -wrap")
	}
	if os.Getenv(env.ZED_ETS_LANG_SERVER_LOG) == "true" && !logutil.HasOutput() {
		setupLogFile(fds[2])
	}
	if sys.IsATTY(fds[0].Fd()) {
		fmt.Fprintln(fds[2], "warning: -wrap expects LSP messages from an editor on stdin")
	}

	server := p.server
	if server == "" {
		server = os.Getenv(env.ETS_LANG_SERVER)
	}
	if server == "" {
		return prog.BadUsage("no language server; use -server or set " + env.ETS_LANG_SERVER)
	}
	server, err := filepath.Abs(server)
	if err != nil {
		return err
	}
	if _, err := os.Stat(server); err != nil {
		logger.Println("language server not found:", err)
		return fmt.Errorf("language server not found: %w", err)
	}
	logger.Println("language server at", server)

	settings, err := extension.LoadSettings(*p.settings)
	if err != nil {
		return err
	}

	proc, err := ipc.SpawnConfig(&ipc.Config{
		Path:        *p.node,
		Args:        []string{server, "--node-ipc", "--server-mode"},
		NodeChannel: true,
	})
	if err != nil {
		logger.Println("cannot start language server:", err)
		return err
	}
	defer proc.Close()
	logger.Println("language server started as pid", proc.Pid())

	return serve(fds, proc, settings)
}

// Returns the path of the log file. Variable for testing.
var logFilePath = func() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(exe), LogFileName), nil
}

func setupLogFile(stderr io.Writer) {
	path, err := logFilePath()
	if err == nil {
		err = logutil.SetOutputFile(path)
	}
	if err != nil {
		fmt.Fprintln(stderr, "warning: cannot open log file:", err)
	}
}

// Forwards messages until the server exits or a signal arrives.
func serve(fds [3]*os.File, proc *ipc.Process, settings *extension.FileSettings) error {
	w := newWrapper(proc, settings, fds[1])

	sigs := make(chan os.Signal, 1)
	notifySignals(sigs)
	defer signal.Stop(sigs)

	exited := make(chan struct{})
	var state *os.ProcessState
	go func() {
		state, _ = proc.Wait()
		close(exited)
	}()

	go drainLines("server stdout", proc.Stdout())
	go drainLines("server stderr", proc.Stderr())

	fromServer := make(chan struct{})
	go func() {
		w.forwardToClient()
		close(fromServer)
	}()
	stdinClosed := make(chan struct{})
	go func() {
		w.forwardToServer(fds[0])
		close(stdinClosed)
	}()

	if settings.Path() != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		reloaded, err := settings.Watch(ctx)
		if err != nil {
			logger.Println("cannot watch settings:", err)
		} else {
			go func() {
				for range reloaded {
					w.pushSettings()
				}
			}()
		}
	}

	var grace <-chan time.Time
	killed := false
	for {
		select {
		case sig := <-sigs:
			logger.Printf("received %v, stopping language server", sig)
			proc.Kill()
			<-exited
			return nil
		case <-stdinClosed:
			logger.Println("stdin closed")
			stdinClosed = nil
			grace = time.After(shutdownGrace)
		case <-grace:
			logger.Println("language server still running, killing it")
			grace = nil
			killed = true
			proc.Kill()
		case <-exited:
			logger.Println("language server exited:", state)
			select {
			case <-fromServer:
			case <-time.After(drainTimeout):
				logger.Println("gave up waiting for server messages")
			}
			return exitError(state, killed)
		}
	}
}

func exitError(state *os.ProcessState, killed bool) error {
	if state == nil || killed || state.Success() {
		return nil
	}
	code := state.ExitCode()
	if code <= 0 {
		code = 1
	}
	return prog.Exit(code)
}
