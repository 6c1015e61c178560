package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long Watch waits after the last event before reloading.
// One editor save can emit several write/create/rename events.
const settle = 250 * time.Millisecond

// Watch monitors the config file at path and the input file the effective
// config names, and calls onChange with the newly loaded Config after either
// changes. override, when non-nil, is applied to every parsed config before
// validation, so command-line flags keep winning across reloads. It runs
// until ctx is cancelled.
//
// If a reload fails (e.g., invalid YAML), the error is logged and the
// previous config remains active; Watch does not call onChange.
func Watch(ctx context.Context, path string, override func(*Config), onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	tr, err := newTracker(path, watcher.Add)
	if err != nil {
		return err
	}

	load := func() (*Config, error) {
		cfg, err := Parse(path)
		if err != nil {
			return nil, err
		}
		if override != nil {
			override(cfg)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		return cfg, nil
	}

	if cfg, err := load(); err == nil {
		if err := tr.setInput(cfg.Input.Path); err != nil {
			slog.Warn("config: cannot watch input", "path", cfg.Input.Path, "err", err)
		}
	}

	slog.Info("config: watching for changes", "path", path)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !tr.matches(event.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			cfg, err := load()
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", path, "err", err)
				continue
			}
			if err := tr.setInput(cfg.Input.Path); err != nil {
				slog.Warn("config: cannot watch input", "path", cfg.Input.Path, "err", err)
			}

			slog.Info("config: reloaded", "path", path)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// tracker holds the files whose events trigger a reload: the config file
// and the current input file. Parent directories are watched rather than
// the files, because atomic saves replace the inode and drop a watch placed
// on the file itself.
type tracker struct {
	config  string
	input   string
	watched map[string]bool
	add     func(dir string) error
}

func newTracker(configPath string, add func(dir string) error) (*tracker, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}
	t := &tracker{config: abs, watched: make(map[string]bool), add: add}
	if err := t.watchDir(abs); err != nil {
		return nil, err
	}
	return t, nil
}

// setInput replaces the tracked input file. Events for the previous input
// no longer match.
func (t *tracker) setInput(file string) error {
	if file == "" {
		t.input = ""
		return nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	t.input = abs
	return t.watchDir(abs)
}

func (t *tracker) matches(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return abs == t.config || (t.input != "" && abs == t.input)
}

func (t *tracker) watchDir(file string) error {
	dir := filepath.Dir(file)
	if t.watched[dir] {
		return nil
	}
	if err := t.add(dir); err != nil {
		return err
	}
	t.watched[dir] = true
	return nil
}
