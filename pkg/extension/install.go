package extension

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"src.arkts.dev/pkg/store/storedefs"
)

// PackageInstaller installs npm packages.
type PackageInstaller interface {
	Install(name, version string) error
}

// NodeRuntime locates the Node.js interpreter.
type NodeRuntime interface {
	BinaryPath() (string, error)
}

// ExecInstaller installs packages by running npm with Dir as the prefix.
type ExecInstaller struct {
	// Directory that receives node_modules.
	Dir string
	// npm executable; "npm" when empty.
	NPM string
}

func (i ExecInstaller) Install(name, version string) error {
	npm := i.NPM
	if npm == "" {
		npm = "npm"
	}
	cmd := exec.Command(npm, "install", "--prefix", i.Dir, name+"@"+version)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	logger.Println("running", strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w\n%s", strings.Join(cmd.Args, " "), err, out.Bytes())
	}
	return nil
}

// PathNode finds Node.js by looking up Name in PATH.
type PathNode struct {
	// "node" when empty.
	Name string
}

func (n PathNode) BinaryPath() (string, error) {
	name := n.Name
	if name == "" {
		name = "node"
	}
	return exec.LookPath(name)
}

// InstallRecord installs packages through a PackageInstaller, remembering
// installed versions in a store so that installing again can be skipped.
type InstallRecord struct {
	Store     storedefs.Store
	Installer PackageInstaller
}

// Ensure makes sure version of the named package is installed. It skips the
// installer when the package is present, which installed reports, and the
// store records the same version. A present package with no record is
// trusted and recorded.
func (r InstallRecord) Ensure(name, version string, installed bool) error {
	recorded, err := r.Store.PackageVersion(name)
	switch {
	case err == storedefs.ErrNoPackage:
		if installed {
			logger.Printf("%s present but not recorded, recording %s", name, version)
			return r.Store.SetPackageVersion(name, version)
		}
	case err != nil:
		return err
	case installed && recorded == version:
		logger.Printf("%s@%s already installed", name, version)
		return nil
	}

	if err := r.Installer.Install(name, version); err != nil {
		r.Store.DelPackage(name)
		return err
	}
	return r.Store.SetPackageVersion(name, version)
}
