package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/moolen/agentdesk/internal/logging"
)

// ReloadCallback receives every successfully loaded agents file. A returned
// error is logged and the watcher keeps running.
type ReloadCallback func(file *AgentsFile) error

// AgentsWatcherConfig holds configuration for the AgentsWatcher.
type AgentsWatcherConfig struct {
	// FilePath is the agents YAML file to watch
	FilePath string

	// Debounce coalesces bursts of file events into one reload. Default: 500ms
	Debounce time.Duration
}

// AgentsWatcher reloads the agents file when it changes. Invalid files are
// logged and skipped, so the last good catalog stays active.
type AgentsWatcher struct {
	config   AgentsWatcherConfig
	callback ReloadCallback
	logger   *logging.Logger

	cancel  context.CancelFunc
	stopped chan struct{}
	ready   chan struct{}

	mu            sync.Mutex
	debounceTimer *time.Timer
}

// NewAgentsWatcher creates a watcher for the given file.
func NewAgentsWatcher(config AgentsWatcherConfig, callback ReloadCallback) (*AgentsWatcher, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("FilePath cannot be empty")
	}
	if callback == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}

	return &AgentsWatcher{
		config:   config,
		callback: callback,
		logger:   logging.GetLogger("config.watcher").WithField("file", config.FilePath),
		stopped:  make(chan struct{}),
		ready:    make(chan struct{}),
	}, nil
}

// Name implements lifecycle.Component.
func (w *AgentsWatcher) Name() string {
	return "agents-watcher"
}

// Start loads the file, hands it to the callback and then watches for changes
// in the background. The initial load must succeed.
func (w *AgentsWatcher) Start(ctx context.Context) error {
	initial, err := LoadAgentsFile(w.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to load initial agents file: %w", err)
	}
	if err := w.callback(initial); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	// The watch loop outlives the start context.
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel

	go w.watchLoop(watchCtx)

	select {
	case <-w.ready:
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	case <-time.After(5 * time.Second):
		cancel()
		return fmt.Errorf("timeout waiting for file watcher to initialize")
	}
	return nil
}

func (w *AgentsWatcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

func (w *AgentsWatcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.FilePath); err != nil {
		w.logger.Error("Failed to watch file: %v", err)
		return
	}

	w.logger.Info("Watching for changes (debounce: %s)", w.config.Debounce)
	w.signalReady()

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.debounceTimer != nil {
				w.debounceTimer.Stop()
			}
			w.mu.Unlock()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&relevant == 0 {
				continue
			}
			// Editors replace the file on save; the watch follows the inode.
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				time.Sleep(50 * time.Millisecond)
				if err := watcher.Add(w.config.FilePath); err != nil {
					w.logger.Warn("Failed to re-add watch after %s: %v", event.Op, err)
				}
			}
			w.scheduleReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error: %v", err)
		}
	}
}

func (w *AgentsWatcher) scheduleReload(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.config.Debounce, func() {
		if ctx.Err() != nil {
			return
		}
		w.reload()
	})
}

func (w *AgentsWatcher) reload() {
	w.logger.Info("Reloading agents file")

	next, err := LoadAgentsFile(w.config.FilePath)
	if err != nil {
		w.logger.Warn("Keeping previous agents: %v", err)
		return
	}
	if err := w.callback(next); err != nil {
		w.logger.Warn("Reload rejected, keeping previous agents: %v", err)
		return
	}

	w.logger.InfoWithFields("Agents file reloaded", logging.Field("agents", len(next.Agents)))
}

// Stop ends the watch loop and waits up to the ctx deadline for it to exit.
func (w *AgentsWatcher) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()

	select {
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for agents watcher to stop: %w", ctx.Err())
	}
}
