package store

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher reloads a FileStore when another process rewrites its file.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	store    *FileStore
	logger   *slog.Logger
	onChange func()
	done     chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewFileWatcher creates a watcher for the store's state file.
func NewFileWatcher(store *FileStore, logger *slog.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		watcher: watcher,
		store:   store,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// SetChangeCallback sets a callback invoked after each successful reload.
func (fw *FileWatcher) SetChangeCallback(callback func()) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.onChange = callback
}

// Start begins watching. The directory is watched rather than the file,
// since atomic renames replace the inode.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = true
	fw.mu.Unlock()

	if err := fw.watcher.Add(filepath.Dir(fw.store.Path())); err != nil {
		return err
	}

	go fw.watch()
	return nil
}

func (fw *FileWatcher) watch() {
	filename := filepath.Base(fw.store.Path())

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			fw.logger.Debug("state file changed, reloading preferences", "file", fw.store.Path())
			if err := fw.store.Reload(); err != nil {
				fw.logger.Warn("failed to reload preferences", "error", err)
				continue
			}

			fw.mu.Lock()
			callback := fw.onChange
			fw.mu.Unlock()
			if callback != nil {
				callback()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("state file watcher error", "error", err)

		case <-fw.done:
			return
		}
	}
}

// Stop stops the watcher.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.running {
		return nil
	}
	fw.running = false
	close(fw.done)
	return fw.watcher.Close()
}
