package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

// XDG desktop portal names.
const (
	PortalDest          = "org.freedesktop.portal.Desktop"
	PortalPath          = "/org/freedesktop/portal/desktop"
	SettingsInterface   = "org.freedesktop.portal.Settings"
	AppearanceNamespace = "org.freedesktop.appearance"
	ColorSchemeKey      = "color-scheme"
)

// Portal color-scheme values.
const (
	ColorSchemeNoPreference uint32 = 0
	ColorSchemePreferDark   uint32 = 1
	ColorSchemePreferLight  uint32 = 2
)

// PortalScheme follows the desktop color-scheme preference.
// It implements theme.SchemeSignal.
type PortalScheme struct {
	conn   *dbus.Conn
	logger *slog.Logger

	mu        sync.Mutex
	dark      bool
	listeners map[int]func(bool)
	nextID    int

	signals chan *dbus.Signal
	closed  bool
}

// NewPortalScheme connects to the session bus, reads the current preference
// and subscribes to changes.
func NewPortalScheme(logger *slog.Logger) (*PortalScheme, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	p := newPortalScheme(conn, logger)

	dark, err := p.read()
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.dark = dark

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(PortalPath),
		dbus.WithMatchInterface(SettingsInterface),
		dbus.WithMatchMember("SettingChanged"),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to SettingChanged: %w", err)
	}

	conn.Signal(p.signals)
	go p.processSignals()

	p.logger.Debug("following desktop color scheme", "dark", dark)
	return p, nil
}

func newPortalScheme(conn *dbus.Conn, logger *slog.Logger) *PortalScheme {
	if logger == nil {
		logger = slog.Default()
	}
	return &PortalScheme{
		conn:      conn,
		logger:    logger,
		listeners: make(map[int]func(bool)),
		signals:   make(chan *dbus.Signal, 16),
	}
}

// read calls ReadOne, falling back to the deprecated Read for portals older
// than version 2.
func (p *PortalScheme) read() (bool, error) {
	obj := p.conn.Object(PortalDest, PortalPath)

	var value dbus.Variant
	err := obj.Call(SettingsInterface+".ReadOne", 0, AppearanceNamespace, ColorSchemeKey).Store(&value)
	if err != nil {
		p.logger.Debug("ReadOne not available, trying Read", "error", err)
		err = obj.Call(SettingsInterface+".Read", 0, AppearanceNamespace, ColorSchemeKey).Store(&value)
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s.%s: %w", AppearanceNamespace, ColorSchemeKey, err)
	}

	dark, ok := parseColorScheme(value)
	if !ok {
		p.logger.Warn("unexpected color-scheme value", "value", value.String())
	}
	return dark, nil
}

func (p *PortalScheme) processSignals() {
	for sig := range p.signals {
		p.handleSignal(sig)
	}
}

// handleSignal handles SettingChanged(namespace, key, value).
func (p *PortalScheme) handleSignal(sig *dbus.Signal) {
	if sig.Name != SettingsInterface+".SettingChanged" || len(sig.Body) < 3 {
		return
	}
	namespace, _ := sig.Body[0].(string)
	key, _ := sig.Body[1].(string)
	if namespace != AppearanceNamespace || key != ColorSchemeKey {
		return
	}

	value, ok := sig.Body[2].(dbus.Variant)
	if !ok {
		p.logger.Warn("invalid SettingChanged value type")
		return
	}
	dark, _ := parseColorScheme(value)

	p.mu.Lock()
	if p.dark == dark {
		p.mu.Unlock()
		return
	}
	p.dark = dark
	listeners := make([]func(bool), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	p.logger.Debug("desktop color scheme changed", "dark", dark)
	for _, fn := range listeners {
		fn(dark)
	}
}

// PrefersDark implements theme.SchemeSignal.
func (p *PortalScheme) PrefersDark() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dark
}

// Subscribe implements theme.SchemeSignal.
func (p *PortalScheme) Subscribe(fn func(dark bool)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// Close releases the bus connection.
func (p *PortalScheme) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	p.conn.RemoveSignal(p.signals)
	close(p.signals)
	return p.conn.Close()
}

// parseColorScheme unwraps the (possibly nested) variant carrying the portal
// color-scheme value. ok is false for anything but a known uint32.
func parseColorScheme(v dbus.Variant) (dark bool, ok bool) {
	value := v.Value()
	for {
		inner, nested := value.(dbus.Variant)
		if !nested {
			break
		}
		value = inner.Value()
	}

	scheme, isUint := value.(uint32)
	if !isUint {
		return false, false
	}
	switch scheme {
	case ColorSchemePreferDark:
		return true, true
	case ColorSchemeNoPreference, ColorSchemePreferLight:
		return false, true
	}
	return false, false
}
