package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// ErrNoPath is returned when there is no config file to watch.
var ErrNoPath = errors.New("no config path")

// Watcher reloads a config file whenever it changes.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
}

// NewWatcher starts watching the directory containing path. Watching the
// directory keeps working across editors that replace the file on save.
func NewWatcher(path string) (*Watcher, error) {
	if path == "" {
		return nil, ErrNoPath
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{path: abs, watcher: fw}, nil
}

// Run calls fn with every successfully reloaded config until ctx is cancelled.
// Invalid files are logged and skipped. Run closes the watcher before returning.
func (w *Watcher) Run(ctx context.Context, fn func(Config)) error {
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(w.path)
			if err != nil {
				log.Warn().Err(err).Str("path", w.path).Msg("Ignoring invalid config")
				continue
			}
			log.Info().Str("path", w.path).Msg("Config reloaded")
			fn(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Config watcher error")
		}
	}
}

// Close stops watching without running.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Watch blocks, calling fn with every reloaded version of the file at path.
func Watch(ctx context.Context, path string, fn func(Config)) error {
	w, err := NewWatcher(path)
	if err != nil {
		return err
	}
	return w.Run(ctx, fn)
}
