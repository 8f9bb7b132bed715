// Package buildinfo contains build information.
//
// Build information should be set during compilation by passing
// -ldflags "-X src.arkts.dev/pkg/buildinfo.VersionSuffix=value" to
// "go build" or "go get".
package buildinfo

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"src.arkts.dev/pkg/prog"
)

// VersionBase identifies the version of arkts-zed. On development commits, it
// identifies the next release.
const VersionBase = "0.3.0"

// VersionSuffix is appended to VersionBase to build the full version string.
// It is empty for release builds and "-dev.<vcs info>" otherwise.
var VersionSuffix = ""

// Type contains all the build information fields.
type Type struct {
	Version   string `json:"version"`
	GoVersion string `json:"goversion"`
}

// Value contains all the build information.
var Value = Type{
	Version:   VersionBase + devSuffix(VersionSuffix, debug.ReadBuildInfo),
	GoVersion: runtime.Version(),
}

func devSuffix(override string, read func() (*debug.BuildInfo, bool)) string {
	if override != "" {
		return override
	}
	bi, ok := read()
	if !ok || bi.Main.Version == "" || bi.Main.Version == "(devel)" {
		return "-dev.unknown"
	}
	if i := strings.Index(bi.Main.Version, "-dev."); i != -1 {
		return bi.Main.Version[i:]
	}
	return ""
}

// Program is the buildinfo subprogram.
type Program struct {
	version, buildinfo bool
	json               *bool
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.version, "version", false, "show version and quit")
	fs.BoolVar(&p.buildinfo, "buildinfo", false, "show build info and quit")
	p.json = fs.JSON()
}

func (p *Program) Run(fds [3]*os.File, _ []string) error {
	switch {
	case p.buildinfo:
		if *p.json {
			fmt.Fprintln(fds[1], mustToJSON(Value))
		} else {
			fmt.Fprintln(fds[1], "Version:", Value.Version)
			fmt.Fprintln(fds[1], "Go version:", Value.GoVersion)
		}
	case p.version:
		if *p.json {
			fmt.Fprintln(fds[1], mustToJSON(Value.Version))
		} else {
			fmt.Fprintln(fds[1], Value.Version)
		}
	default:
		return prog.NextProgram()
	}
	return nil
}

func mustToJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
