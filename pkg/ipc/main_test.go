package ipc

import (
	"testing"

	"src.arkts.dev/pkg/ipc/ipctest"
)

func TestMain(m *testing.M) { ipctest.Main(m) }

func helperConfig(mode string, args ...string) *Config {
	h := ipctest.Helper(mode, args...)
	return &Config{Path: h.Path, Args: h.Args, Env: h.Env}
}

// Spawns a helper, and kills and reaps it when the test finishes.
func spawnHelper(t *testing.T, mode string, args ...string) *Process {
	t.Helper()
	return spawnConfig(t, helperConfig(mode, args...))
}

func spawnConfig(t *testing.T, cfg *Config) *Process {
	t.Helper()
	p, err := SpawnConfig(cfg)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	t.Cleanup(func() {
		p.Kill()
		p.Wait()
		p.Close()
	})
	return p
}
