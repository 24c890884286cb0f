package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher keeps the settings file's current contents and reloads them when
// the file changes on disk.
type Watcher struct {
	path string
	log  *zap.Logger

	mu      sync.RWMutex
	current Provider

	fsw *fsnotify.Watcher
}

// NewWatcher loads path and starts watching its directory. The directory
// is watched rather than the file so that atomic replacement is seen.
func NewWatcher(path string, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	path = filepath.Clean(path)
	p, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	return &Watcher{path: path, log: log, current: p, fsw: fsw}, nil
}

// Path returns the watched settings file.
func (w *Watcher) Path() string {
	return w.path
}

// Active returns the most recently loaded configuration.
func (w *Watcher) Active() Provider {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Reload re-reads the settings file. On error the previous configuration
// stays active.
func (w *Watcher) Reload() error {
	p, err := Load(w.path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.current = p
	w.mu.Unlock()
	w.log.Info("Settings reloaded",
		zap.String("provider", p.Provider), zap.String("protocol", p.Protocol), zap.String("model", p.Model))
	return nil
}

// Save writes p to the settings file and makes it active.
func (w *Watcher) Save(p Provider) error {
	if err := Save(w.path, p); err != nil {
		return err
	}
	return w.Reload()
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if err := w.Reload(); err != nil {
				w.log.Warn("Settings reload failed", zap.String("path", w.path), zap.Error(err))
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("Settings watcher error", zap.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
