package extension

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"src.arkts.dev/pkg/must"
	"src.arkts.dev/pkg/testutil"
)

const yamlSettings = `
"*":
  arkts-language-server:
    initialization_options:
      ohos:
        sdkPath: /sdk
    settings:
      ets:
        lint: true
/work/app:
  arkts-language-server:
    settings:
      ets:
        lint: false
`

const tomlSettings = `
["*".arkts-language-server.initialization_options.ohos]
sdkPath = "/sdk"

["*".arkts-language-server.settings.ets]
lint = true

["/work/app".arkts-language-server.settings.ets]
lint = false
`

var resolveTests = []struct {
	name      string
	workspace string
	server    string
	want      Settings
}{
	{"wildcard workspace", "/work/other", ServerName, Settings{
		InitializationOptions: map[string]any{"ohos": map[string]any{"sdkPath": "/sdk"}},
		Settings:              map[string]any{"ets": map[string]any{"lint": true}},
	}},
	{"own workspace", "/work/app", ServerName, Settings{
		Settings: map[string]any{"ets": map[string]any{"lint": false}},
	}},
	{"unconfigured server", "/work/app", "other-server", Settings{}},
}

func TestFileSettings_Resolve(t *testing.T) {
	for _, format := range []struct{ ext, content string }{
		{".yaml", yamlSettings}, {".yml", yamlSettings}, {".toml", tomlSettings},
	} {
		path := filepath.Join(testutil.TempDir(t), "settings"+format.ext)
		must.WriteFile(path, format.content)
		s, err := LoadSettings(path)
		if err != nil {
			t.Fatalf("LoadSettings(%q): %v", path, err)
		}
		for _, test := range resolveTests {
			t.Run(format.ext+" "+test.name, func(t *testing.T) {
				got, err := s.Resolve(test.server, test.workspace)
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(test.want, got); diff != "" {
					t.Errorf("Resolve (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestLoadSettings_NoFile(t *testing.T) {
	for _, path := range []string{"", filepath.Join(testutil.TempDir(t), "none.yaml")} {
		s, err := LoadSettings(path)
		if err != nil {
			t.Fatalf("LoadSettings(%q): %v", path, err)
		}
		if got, _ := s.Resolve(ServerName, "/work"); got != (Settings{}) {
			t.Errorf("got %v, want zero Settings", got)
		}
	}
}

func TestLoadSettings_Errors(t *testing.T) {
	dir := testutil.TempDir(t)
	for _, name := range []string{"settings.json", "bad.yaml", "bad.toml"} {
		path := filepath.Join(dir, name)
		must.WriteFile(path, "[not valid: {")
		if _, err := LoadSettings(path); err == nil {
			t.Errorf("LoadSettings(%q) succeeded, want error", name)
		}
	}
}

func TestFileSettings_Watch(t *testing.T) {
	testutil.Set(t, &reloadDebounce, 10*time.Millisecond)
	path := filepath.Join(testutil.TempDir(t), "settings.yaml")
	must.WriteFile(path, yamlSettings)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	reloaded, err := s.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}

	must.WriteFile(path, `"*": {arkts-language-server: {settings: changed}}`)
	select {
	case <-reloaded:
	case <-time.After(testutil.Scaled(5 * time.Second)):
		t.Fatal("settings not reloaded")
	}
	got, _ := s.Resolve(ServerName, "/work/other")
	if got.Settings != "changed" {
		t.Errorf("got settings %v after reload, want %q", got.Settings, "changed")
	}

	// A broken file keeps the previous settings.
	must.WriteFile(path, "[not valid: {")
	time.Sleep(testutil.Scaled(100 * time.Millisecond))
	got, _ = s.Resolve(ServerName, "/work/other")
	if got.Settings != "changed" {
		t.Errorf("got settings %v after a failed reload, want %q", got.Settings, "changed")
	}

	cancel()
	for range reloaded {
	}
}
