package theme

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Loader resolves the palette for each mode with hot-reload support.
type Loader struct {
	mu        sync.RWMutex
	logger    *slog.Logger
	themesDir string
	palettes  map[Mode]*Palette
	watchers  map[Mode]*Watcher
	onChange  func(*Palette)
}

// NewLoader creates a loader reading user palettes from ThemesDir.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	themesDir, err := ThemesDir()
	if err != nil {
		logger.Warn("failed to get themes directory", "error", err)
		themesDir = ""
	}
	return NewLoaderWithDir(themesDir, logger)
}

// NewLoaderWithDir creates a loader reading user palettes from dir.
// An empty dir disables user overrides.
func NewLoaderWithDir(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:    logger,
		themesDir: dir,
		palettes:  make(map[Mode]*Palette),
		watchers:  make(map[Mode]*Watcher),
	}
}

// ThemesDir returns the path to the user's palette directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ThemesDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "homepage", "themes"), nil
}

// LoadAll loads both palettes.
func (l *Loader) LoadAll() {
	for _, mode := range Modes() {
		l.Load(mode)
	}
}

// Load resolves the palette for a mode.
// Resolution order:
//  1. User palette directory (~/.config/homepage/themes/<mode>.toml)
//  2. Embedded palettes
//  3. Built-in default
func (l *Loader) Load(mode Mode) *Palette {
	p := l.resolve(mode)

	l.mu.Lock()
	l.palettes[mode] = p
	if w := l.watchers[mode]; w != nil {
		w.UpdatePalette(p)
	}
	l.mu.Unlock()
	return p
}

func (l *Loader) resolve(mode Mode) *Palette {
	if l.themesDir != "" {
		path := filepath.Join(l.themesDir, string(mode)+".toml")
		if _, err := os.Stat(path); err == nil {
			p, err := NewPalette(mode, path)
			if err == nil {
				l.logger.Info("loaded user palette", "mode", mode, "path", path)
				return p
			}
			l.logger.Warn("failed to load user palette, trying bundled", "mode", mode, "error", err)
		}
	}

	if data, found := GetEmbeddedPalette(string(mode)); found {
		p, err := ParsePalette(mode, data)
		if err == nil {
			l.logger.Debug("loaded bundled palette", "mode", mode)
			return p
		}
		l.logger.Warn("bundled palette is invalid", "mode", mode, "error", err)
	}

	l.logger.Debug("using built-in palette", "mode", mode)
	return DefaultPalette(mode)
}

// Palette returns the loaded palette for a mode, loading it on first use.
func (l *Loader) Palette(mode Mode) *Palette {
	l.mu.RLock()
	p, ok := l.palettes[mode]
	l.mu.RUnlock()
	if ok {
		return p
	}
	return l.Load(mode)
}

// SetChangeCallback sets the callback invoked after a palette is hot-reloaded.
func (l *Loader) SetChangeCallback(callback func(*Palette)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = callback
}

// StartHotReload starts watching every user palette file that is loaded.
func (l *Loader) StartHotReload(ctx context.Context) {
	l.StopHotReload()

	l.mu.Lock()
	defer l.mu.Unlock()

	for mode, p := range l.palettes {
		if p.Path == "" {
			continue
		}

		w := NewWatcher(p, l.logger)
		w.SetChangeCallback(func(updated *Palette) {
			l.mu.Lock()
			l.palettes[updated.Mode] = updated
			callback := l.onChange
			l.mu.Unlock()

			l.logger.Info("hot-reloaded palette", "mode", updated.Mode)
			if callback != nil {
				callback(updated)
			}
		})
		if err := w.Start(ctx); err != nil {
			l.logger.Warn("failed to start palette watcher", "mode", mode, "error", err)
			continue
		}
		l.watchers[mode] = w
	}
}

// StopHotReload stops all palette watchers.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	watchers := l.watchers
	l.watchers = make(map[Mode]*Watcher)
	l.mu.Unlock()

	for _, w := range watchers {
		w.Stop()
	}
}

// ListPalettes returns bundled palette names plus user palette files.
func (l *Loader) ListPalettes() []string {
	seen := make(map[string]bool)
	var names []string

	for _, name := range ListEmbeddedPalettes() {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	if l.themesDir != "" {
		entries, err := os.ReadDir(l.themesDir)
		if err != nil {
			l.logger.Debug("failed to read themes directory", "error", err)
			return names
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || filepath.Ext(name) != ".toml" {
				continue
			}
			name = name[:len(name)-len(".toml")]
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}
