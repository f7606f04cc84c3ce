// Config file watcher. Polls the file's modification time and reloads on
// change so seed lists can be edited without restarting the bridge.
package config

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReloadFunc receives the freshly loaded configuration after a change.
type ReloadFunc func(cfg *Config)

// Watcher polls a configuration file and reloads it when the modification
// time moves. Reloads that fail to parse or validate are logged and skipped;
// the previous configuration stays active.
type Watcher struct {
	mu sync.Mutex

	path     string
	interval time.Duration
	loader   *Loader
	lastMod  time.Time

	callbacks []ReloadFunc
	logger    *zap.Logger

	stopOnce sync.Once
	stopChan chan struct{}
}

// WatcherOption configures the Watcher.
type WatcherOption func(*Watcher)

// WithPollInterval sets how often the file is checked.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.interval = d }
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger.With(zap.String("component", "config_watcher"))
		}
	}
}

// NewWatcher creates a watcher for the given config file path.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("watcher requires a config path")
	}
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		loader:   NewLoader().WithConfigPath(path),
		logger:   zap.NewNop(),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if info, err := os.Stat(path); err == nil {
		w.lastMod = info.ModTime()
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config path %s: %w", path, err)
	}
	return w, nil
}

// OnReload registers a callback invoked after each successful reload.
func (w *Watcher) OnReload(fn ReloadFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Start begins polling until the context is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopChan:
				return
			case <-ticker.C:
				w.poll()
			}
		}
	}()
}

// Stop halts polling.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		return
	}

	w.mu.Lock()
	changed := info.ModTime().After(w.lastMod)
	if changed {
		w.lastMod = info.ModTime()
	}
	callbacks := append([]ReloadFunc(nil), w.callbacks...)
	w.mu.Unlock()

	if !changed {
		return
	}

	cfg, err := w.loader.Load()
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous config",
			zap.String("path", w.path),
			zap.Error(err))
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Warn("reloaded config invalid, keeping previous config",
			zap.String("path", w.path),
			zap.Error(err))
		return
	}

	w.logger.Info("config reloaded", zap.String("path", w.path))
	for _, fn := range callbacks {
		fn(cfg)
	}
}
