// Package ipctest runs the current test binary as a child process that speaks
// the IPC handshake, so that the ipc package can be tested against real
// children on every platform.
//
// A test package that uses it must call Main from TestMain:
//
//	func TestMain(m *testing.M) { ipctest.Main(m) }
package ipctest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"src.arkts.dev/pkg/env"
	"src.arkts.dev/pkg/ipc/ipcpeer"
	"src.arkts.dev/pkg/sys"
)

// Main runs the helper selected by the ARKTS_IPCTEST_HELPER environment
// variable if it is set, and the tests otherwise. It does not return.
func Main(m interface{ Run() int }) {
	if mode, ok := os.LookupEnv(env.ARKTS_IPCTEST_HELPER); ok {
		os.Exit(runHelper(mode, os.Args[1:]))
	}
	os.Exit(m.Run())
}

// Command describes how to start a helper.
type Command struct {
	Path string
	Args []string
	Env  []string
}

// Helper returns the Command for running the helper with the given mode and
// arguments. The modes are:
//
//   - "echo": connect and echo the channel.
//   - "exit CODE": connect, then exit with CODE.
//   - "noconnect": exit with 3 without connecting.
//   - "sleep": sleep without connecting.
//   - "hello TEXT": write TEXT and a newline to stdout, connect, send "bye"
//     on the channel and exit.
//   - "stderr TEXT": write TEXT to stderr, connect and exit.
//   - "badstdout": write invalid UTF-8 to stdout, connect and exit.
//   - "token": connect, send the handshake token, then echo.
//   - "badutf8": connect, send invalid UTF-8, then echo.
//   - "stdio": connect, copy one line from stdin to stdout, then echo.
//   - "tty": connect, send "tty" or "notty" depending on whether stdin is a
//     terminal, and exit.
//   - "nodeenv": connect, send a line with the NODE_CHANNEL_FD,
//     NODE_CHANNEL_SERIALIZATION_MODE and IPC_SOCKET_PATH it sees, then
//     echo.
//   - "lsp": connect and act as a language server speaking JSON values on the
//     channel. See the lsp.go file for what it answers.
func Helper(mode string, args ...string) Command {
	return Command{
		Path: os.Args[0],
		Args: args,
		Env:  append(os.Environ(), env.ARKTS_IPCTEST_HELPER+"="+mode),
	}
}

func runHelper(mode string, args []string) int {
	err := helper(mode, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "helper:", err)
		return 1
	}
	return 0
}

func helper(mode string, args []string) error {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch mode {
	case "noconnect":
		os.Exit(3)
	case "sleep":
		time.Sleep(time.Hour)
		return nil
	case "hello":
		fmt.Println(arg(0))
	case "stderr":
		fmt.Fprint(os.Stderr, arg(0))
	case "badstdout":
		os.Stdout.Write([]byte{0xff, 0xfe})
	}

	conn, err := ipcpeer.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	switch mode {
	case "echo":
		return ipcpeer.Echo(conn)
	case "exit":
		code, err := strconv.Atoi(arg(0))
		if err != nil {
			return err
		}
		conn.Close()
		os.Exit(code)
	case "hello":
		_, err := io.WriteString(conn, "bye")
		return err
	case "stderr", "badstdout":
		return nil
	case "token":
		if _, err := io.WriteString(conn, os.Getenv(env.IPC_SOCKET_PATH)); err != nil {
			return err
		}
		return ipcpeer.Echo(conn)
	case "nodeenv":
		_, err := fmt.Fprintf(conn, "fd=%s mode=%s socket=%s\n", os.Getenv(env.NODE_CHANNEL_FD),
			os.Getenv(env.NODE_CHANNEL_SERIALIZATION_MODE), os.Getenv(env.IPC_SOCKET_PATH))
		if err != nil {
			return err
		}
		return ipcpeer.Echo(conn)
	case "badutf8":
		if _, err := conn.Write([]byte{0xff, 0xfe}); err != nil {
			return err
		}
		return ipcpeer.Echo(conn)
	case "stdio":
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return err
		}
		fmt.Print("stdin: " + line)
		return ipcpeer.Echo(conn)
	case "lsp":
		return fakeServer(conn)
	case "tty":
		answer := "notty"
		if sys.IsATTY(os.Stdin.Fd()) {
			answer = "tty"
		}
		_, err := io.WriteString(conn, answer)
		return err
	}
	return fmt.Errorf("unknown mode %q", mode)
}
