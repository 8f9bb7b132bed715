package extension

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Settings are the settings of one language server in one workspace.
type Settings struct {
	// Sent as the initializationOptions of the initialize request.
	InitializationOptions any `yaml:"initialization_options" toml:"initialization_options" json:"initialization_options"`
	// Sent with workspace/didChangeConfiguration.
	Settings any `yaml:"settings" toml:"settings" json:"settings"`
}

// SettingsResolver looks up the settings of a language server.
type SettingsResolver interface {
	Resolve(server, workspace string) (Settings, error)
}

// AnyWorkspace is the workspace key whose settings apply to workspaces
// without their own entry.
const AnyWorkspace = "*"

// Settings file content: workspace -> server -> settings.
type settingsFile map[string]map[string]Settings

// FileSettings is a SettingsResolver backed by a YAML or TOML file, chosen by
// the file extension. A missing file, or an empty path, has no settings.
type FileSettings struct {
	path string

	mu   sync.RWMutex
	data settingsFile
}

// LoadSettings reads the settings file at path.
func LoadSettings(path string) (*FileSettings, error) {
	s := &FileSettings{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the path of the settings file.
func (s *FileSettings) Path() string { return s.path }

// Reload reads the settings file again. The old settings are kept if the
// file cannot be read or parsed, and dropped if the file no longer exists.
func (s *FileSettings) Reload() error {
	data, err := readSettings(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

func readSettings(path string) (settingsFile, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var data settingsFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &data)
	case ".toml":
		err = toml.Unmarshal(content, &data)
	default:
		return nil, fmt.Errorf("%s: unsupported settings format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return data, nil
}

// Resolve returns the settings of the server in the workspace, falling back
// to the AnyWorkspace entry. Unconfigured servers get zero Settings.
func (s *FileSettings) Resolve(server, workspace string) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if settings, ok := s.data[workspace][server]; ok {
		return settings, nil
	}
	return s.data[AnyWorkspace][server], nil
}

// How long file events must settle before the settings file is reloaded.
// Variable for testing.
var reloadDebounce = 100 * time.Millisecond

// Watch reloads the settings whenever the file changes, until ctx is done.
// The returned channel receives a value after each successful reload and is
// closed when watching stops. Failed reloads are logged and the previous
// settings stay in effect.
//
// The directory of the file is watched rather than the file, so that editors
// that save by renaming are followed.
func (s *FileSettings) Watch(ctx context.Context) (<-chan struct{}, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(s.path)
	if err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}
	reloaded := make(chan struct{}, 1)
	go s.watch(ctx, fsw, abs, reloaded)
	return reloaded, nil
}

func (s *FileSettings) watch(ctx context.Context, fsw *fsnotify.Watcher, path string, reloaded chan<- struct{}) {
	defer close(reloaded)
	defer fsw.Close()

	// Only runs in this goroutine, so needs no locking.
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path || event.Op == fsnotify.Chmod {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(reloadDebounce)
			fire = timer.C
		case <-fire:
			fire = nil
			if err := s.Reload(); err != nil {
				logger.Println("cannot reload settings:", err)
				continue
			}
			logger.Println("reloaded settings from", path)
			select {
			case reloaded <- struct{}{}:
			default:
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Println("settings watcher error:", err)
		}
	}
}
