package theme

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/homepage/internal/dom"
	"github.com/jmylchreest/homepage/internal/store"
)

// SchemeSignal is the OS-level "prefers dark" signal.
type SchemeSignal interface {
	PrefersDark() bool
	// Subscribe registers fn for live changes and returns a function that
	// removes it.
	Subscribe(fn func(dark bool)) (unsubscribe func())
}

// StaticScheme is a SchemeSignal that never changes.
type StaticScheme bool

// PrefersDark implements SchemeSignal.
func (s StaticScheme) PrefersDark() bool { return bool(s) }

// Subscribe implements SchemeSignal. The callback is never invoked.
func (StaticScheme) Subscribe(func(bool)) func() { return func() {} }

// Manager owns the active theme of one document.
type Manager struct {
	mu          sync.Mutex
	doc         *dom.Document
	prefs       store.Preferences
	scheme      SchemeSignal
	logger      *slog.Logger
	current     Mode
	unsubscribe func()
}

// NewManager creates a theme manager. prefs may be nil, in which case nothing
// is persisted; scheme may be nil, meaning the OS never prefers dark.
func NewManager(doc *dom.Document, prefs store.Preferences, scheme SchemeSignal, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if scheme == nil {
		scheme = StaticScheme(false)
	}
	return &Manager{
		doc:     doc,
		prefs:   prefs,
		scheme:  scheme,
		logger:  logger,
		current: Light,
	}
}

// Initialize applies the persisted theme, else the OS preference, else light,
// and starts following OS changes.
func (m *Manager) Initialize() Mode {
	m.mu.Lock()
	mode := m.preferredLocked()
	m.applyLocked(mode)
	subscribed := m.unsubscribe != nil
	m.mu.Unlock()

	if !subscribed {
		unsubscribe := m.scheme.Subscribe(m.schemeChanged)
		m.mu.Lock()
		m.unsubscribe = unsubscribe
		m.mu.Unlock()
	}

	m.logger.Debug("theme initialized", "theme", mode)
	return mode
}

// Refresh re-applies the theme after the preferences changed outside this
// page: the persisted theme if there is one, else the current OS preference.
func (m *Manager) Refresh() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()

	mode := m.preferredLocked()
	if mode != m.current {
		m.applyLocked(mode)
		m.logger.Debug("theme refreshed", "theme", mode)
	}
	return mode
}

// preferredLocked returns the persisted theme, else the OS preference, else light.
func (m *Manager) preferredLocked() Mode {
	if saved, ok := m.persisted(); ok {
		parsed, err := ParseMode(saved)
		if err != nil {
			m.logger.Warn("ignoring persisted theme", "error", err)
		}
		return parsed
	}
	if m.scheme.PrefersDark() {
		return Dark
	}
	return Light
}

// Toggle flips the theme and persists the new value.
func (m *Manager) Toggle() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()

	mode := m.current.Opposite()
	m.applyLocked(mode)
	if m.prefs != nil {
		if err := m.prefs.Set(store.KeyTheme, string(mode)); err != nil {
			m.logger.Warn("failed to persist theme", "theme", mode, "error", err)
		}
	}
	m.logger.Debug("theme toggled", "theme", mode)
	return mode
}

// Current returns the active theme.
func (m *Manager) Current() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Close stops following OS changes.
func (m *Manager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (m *Manager) schemeChanged(dark bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.persisted(); ok {
		m.logger.Debug("ignoring OS scheme change, theme is persisted", "dark", dark)
		return
	}

	mode := Light
	if dark {
		mode = Dark
	}
	m.applyLocked(mode)
	m.logger.Debug("theme follows OS scheme", "theme", mode)
}

func (m *Manager) persisted() (string, bool) {
	if m.prefs == nil {
		return "", false
	}
	return m.prefs.Get(store.KeyTheme)
}

func (m *Manager) applyLocked(mode Mode) {
	m.current = mode
	m.doc.SetAttribute(dom.AttrTheme, string(mode))
}
