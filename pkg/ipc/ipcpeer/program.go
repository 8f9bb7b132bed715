package ipcpeer

import (
	"fmt"
	"os"

	"src.arkts.dev/pkg/prog"
)

// Program is the IPC echo subprogram. It connects to the parent that spawned
// it and echoes everything received on the IPC channel until the parent closes
// it. It is the simplest useful peer for the ipc package.
type Program struct {
	run      bool
	greeting string
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.run, "ipc-echo", false,
		"[internal flag] Connect to the parent's IPC channel and echo messages")
	fs.StringVar(&p.greeting, "greeting", "",
		"Text to write to stdout after connecting, used with -ipc-echo")
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	if !p.run {
		return prog.NextProgram()
	}
	if len(args) > 0 {
		return prog.BadUsage("arguments are not allowed with -ipc-echo")
	}
	conn, err := Connect()
	if err != nil {
		return fmt.Errorf("cannot connect to parent: %w", err)
	}
	defer conn.Close()
	if p.greeting != "" {
		fmt.Fprintln(fds[1], p.greeting)
	}
	return Echo(conn)
}
