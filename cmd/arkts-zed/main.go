// Arkts-zed provides ArkTS language support to the Zed editor. It installs the
// ArkTS language server, prints the command that starts it, and runs as the
// wrapper between the editor's stdio and the server's IPC channel.
package main

import (
	"os"

	"src.arkts.dev/pkg/buildinfo"
	"src.arkts.dev/pkg/extension"
	"src.arkts.dev/pkg/ipc/ipcpeer"
	"src.arkts.dev/pkg/lspwrap"
	"src.arkts.dev/pkg/prog"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(
			&buildinfo.Program{}, &lspwrap.Program{}, &extension.Program{},
			&ipcpeer.Program{})))
}
