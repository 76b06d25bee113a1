package theme

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls a user palette file and reports edits.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	palette      *Palette
	pollInterval time.Duration
	onChange     func(*Palette)

	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewWatcher creates a new palette watcher.
func NewWatcher(palette *Palette, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		logger:       logger,
		palette:      palette,
		pollInterval: time.Second,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// SetPollInterval sets the polling interval for file changes.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// SetChangeCallback sets the callback invoked with a copy of the reloaded palette.
func (w *Watcher) SetChangeCallback(callback func(*Palette)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = callback
}

// Start begins polling. Palettes without a file are not watched.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if w.palette == nil || w.palette.Path == "" {
		w.mu.Unlock()
		w.logger.Debug("not watching palette without a file")
		return nil
	}

	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.pollInterval
	path := w.palette.Path
	w.mu.Unlock()

	go w.watchLoop(ctx, interval)

	w.logger.Debug("palette watcher started", "path", path, "interval", interval)
	return nil
}

// Stop stops polling and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	w.logger.Debug("palette watcher stopped")
}

// UpdatePalette switches to watching a different palette.
func (w *Watcher) UpdatePalette(palette *Palette) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.palette = palette
}

func (w *Watcher) watchLoop(ctx context.Context, interval time.Duration) {
	w.mu.RLock()
	stop, done := w.stopCh, w.doneCh
	w.mu.RUnlock()
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

func (w *Watcher) checkForChanges() {
	w.mu.RLock()
	current := w.palette
	callback := w.onChange
	w.mu.RUnlock()

	if current == nil || current.Path == "" {
		return
	}

	if _, err := os.Stat(current.Path); err != nil {
		if os.IsNotExist(err) {
			w.logger.Debug("palette file no longer exists", "path", current.Path)
		}
		return
	}

	// Reload into a copy so readers of the old palette never see a partial update.
	next := *current
	changed, err := next.Reload()
	if err != nil {
		w.logger.Warn("failed to reload palette", "path", current.Path, "error", err)
		return
	}

	w.mu.Lock()
	w.palette = &next
	w.mu.Unlock()

	if changed {
		w.logger.Info("palette file changed, reloading", "path", next.Path)
		if callback != nil {
			callback(&next)
		}
	}
}

// IsRunning returns whether the watcher is currently polling.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
