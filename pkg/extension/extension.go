// Package extension contains the editor-side glue of the ArkTS language
// support. It installs the language server package, looks up its settings,
// and builds the command that starts the server through the -wrap
// subprogram.
package extension

import (
	"errors"
	"os"
	"path/filepath"

	"src.arkts.dev/pkg/env"
	"src.arkts.dev/pkg/logutil"
)

var logger = logutil.GetLogger("[extension] ")

// Names and paths of the language server.
const (
	PackageName    = "@arkts/language-server"
	PackageVersion = "latest"
	// Path of the server script relative to the install prefix.
	ServerPath = "node_modules/@arkts/language-server/bin/ets-language-server.js"
	// Name under which the editor keys the server settings.
	ServerName = "arkts-language-server"
)

// ErrNotInstalled is returned by LanguageServerCommand when the language
// server could not be installed.
var ErrNotInstalled = errors.New("language-server installation failed")

// Command is how the editor starts the language server.
type Command struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
	// Environment in "NAME=value" form, added to the editor's.
	Env []string `json:"env"`
}

// Config holds the collaborators of an Extension.
type Config struct {
	// Install prefix of the server package; the working directory when empty.
	Dir string
	// Path of the executable that implements the -wrap subprogram.
	Self      string
	Settings  SettingsResolver
	Installer InstallRecord
	Node      NodeRuntime
}

// Extension is the language support for one editor session.
type Extension struct {
	cfg Config
	// Absolute path of the server script; empty when installation failed.
	server string
}

// New creates an Extension, installing the language server if it is not
// present. A failed installation is logged and disables the server, so New
// always succeeds.
func New(cfg Config) *Extension {
	server, err := resolveServer(cfg.Dir)
	if err != nil {
		logger.Println("cannot resolve server path:", err)
		return &Extension{cfg: cfg}
	}
	err = cfg.Installer.Ensure(PackageName, PackageVersion, isFile(server))
	if err != nil {
		logger.Printf("failed to install %s: %v", PackageName, err)
		return &Extension{cfg: cfg}
	}
	logger.Println("language server at", server)
	return &Extension{cfg, server}
}

// Resolves ServerPath against dir, or the working directory if dir is empty.
func resolveServer(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	return filepath.Abs(filepath.Join(dir, ServerPath))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// InitializationOptions returns the initializationOptions configured for the
// server in the workspace, or nil.
func (e *Extension) InitializationOptions(workspace string) (any, error) {
	s, err := e.cfg.Settings.Resolve(ServerName, workspace)
	return s.InitializationOptions, err
}

// WorkspaceConfiguration returns the settings configured for the server in
// the workspace, or nil.
func (e *Extension) WorkspaceConfiguration(workspace string) (any, error) {
	s, err := e.cfg.Settings.Resolve(ServerName, workspace)
	return s.Settings, err
}

// LanguageServerCommand returns the command that starts the wrapper, which in
// turn runs the language server with the Node.js binary of the NodeRuntime.
func (e *Extension) LanguageServerCommand() (Command, error) {
	if e.server == "" {
		return Command{}, ErrNotInstalled
	}
	node, err := e.cfg.Node.BinaryPath()
	if err != nil {
		return Command{}, err
	}
	return Command{
		Command: e.cfg.Self,
		Args:    []string{"-wrap", "-node", node},
		Env:     []string{env.ETS_LANG_SERVER + "=" + e.server},
	}, nil
}
