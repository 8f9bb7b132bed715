package extension

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"src.arkts.dev/pkg/prog"
	"src.arkts.dev/pkg/store"
)

// Program is the -command subprogram. It sets up an Extension the way the
// editor does and prints the language server command with the settings of a
// workspace.
type Program struct {
	run       bool
	dir       string
	db        string
	node      *string
	workspace string
	settings  *string
	json      *bool
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.run, "command", false,
		"Install the language server if needed and print the command that starts it")
	fs.StringVar(&p.dir, "prefix", "",
		"Install prefix of the language server package; defaults to the working directory")
	fs.StringVar(&p.db, "db", "",
		"Path of the install record database; defaults to arkts-zed.db in the install prefix")
	fs.StringVar(&p.workspace, "workspace", AnyWorkspace,
		"Workspace whose settings to print, used with -command")
	p.node = fs.Node()
	p.settings = fs.Settings()
	p.json = fs.JSON()
}

type commandOutput struct {
	Command
	InitializationOptions any `json:"initialization_options"`
	Settings              any `json:"settings"`
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	if !p.run {
		return prog.NextProgram()
	}
	if len(args) > 0 {
		return prog.BadUsage("arguments are not allowed with -command")
	}

	self, err := os.Executable()
	if err != nil {
		return err
	}
	dir := p.dir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return err
		}
	}
	db := p.db
	if db == "" {
		db = filepath.Join(dir, "arkts-zed.db")
	}
	st, err := store.NewStore(db)
	if err != nil {
		return fmt.Errorf("cannot open install record: %w", err)
	}
	defer st.Close()
	settings, err := LoadSettings(*p.settings)
	if err != nil {
		return err
	}

	ext := New(Config{
		Dir:       dir,
		Self:      self,
		Settings:  settings,
		Installer: InstallRecord{Store: st, Installer: ExecInstaller{Dir: dir}},
		Node:      PathNode{Name: *p.node},
	})
	cmd, err := ext.LanguageServerCommand()
	if err != nil {
		return err
	}
	out := commandOutput{Command: cmd}
	if out.InitializationOptions, err = ext.InitializationOptions(p.workspace); err != nil {
		return err
	}
	if out.Settings, err = ext.WorkspaceConfiguration(p.workspace); err != nil {
		return err
	}

	if *p.json {
		return json.NewEncoder(fds[1]).Encode(out)
	}
	fmt.Fprintln(fds[1], strings.Join(append(cmd.Env, append([]string{cmd.Command}, cmd.Args...)...), " "))
	return nil
}
