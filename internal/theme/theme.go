package theme

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Mode is the page theme.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

// ErrUnknownMode is returned by ParseMode for anything but light or dark.
var ErrUnknownMode = errors.New("unknown theme mode")

// ParseMode parses a persisted or user-supplied theme value.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return Light, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Opposite returns the other mode.
func (m Mode) Opposite() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

// Modes lists both modes in display order.
func Modes() []Mode {
	return []Mode{Light, Dark}
}

var colorRegex = regexp.MustCompile(`^(#[0-9a-fA-F]{6}|#[0-9a-fA-F]{3}|[0-9]{1,3})$`)

// Palette is the set of colors the terminal view draws a theme with.
// Values are hex colors ("#0d1117") or ANSI 256 indexes ("236").
type Palette struct {
	Background string `toml:"background"`
	Foreground string `toml:"foreground"`
	Muted      string `toml:"muted"`
	Accent     string `toml:"accent"`
	Border     string `toml:"border"`
	Highlight  string `toml:"highlight"`
	Overlay    string `toml:"overlay"`

	Mode      Mode      `toml:"-"`
	Path      string    `toml:"-"` // Empty for embedded and built-in palettes
	ModTime   time.Time `toml:"-"`
	IsDefault bool      `toml:"-"` // Built-in fallback, not loaded from any file
}

// DefaultPalette returns the compiled-in palette for a mode.
func DefaultPalette(mode Mode) *Palette {
	if mode == Dark {
		return &Palette{
			Background: "#0d1117",
			Foreground: "#e6edf3",
			Muted:      "#7d8590",
			Accent:     "#58a6ff",
			Border:     "#30363d",
			Highlight:  "#1f2a37",
			Overlay:    "#161b22",
			Mode:       Dark,
			IsDefault:  true,
		}
	}
	return &Palette{
		Background: "#fafafa",
		Foreground: "#1f2328",
		Muted:      "#6e7781",
		Accent:     "#0969da",
		Border:     "#d0d7de",
		Highlight:  "#ddf4ff",
		Overlay:    "#ffffff",
		Mode:       Light,
		IsDefault:  true,
	}
}

// ParsePalette decodes a TOML palette. Missing colors are taken from the
// built-in palette of the same mode.
func ParsePalette(mode Mode, data []byte) (*Palette, error) {
	p := DefaultPalette(mode)
	if err := toml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse %s palette: %w", mode, err)
	}
	p.IsDefault = false
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks every color value.
func (p *Palette) Validate() error {
	colors := []struct{ name, value string }{
		{"background", p.Background},
		{"foreground", p.Foreground},
		{"muted", p.Muted},
		{"accent", p.Accent},
		{"border", p.Border},
		{"highlight", p.Highlight},
		{"overlay", p.Overlay},
	}
	for _, c := range colors {
		if !colorRegex.MatchString(c.value) {
			return fmt.Errorf("%s palette: invalid %s color %q", p.Mode, c.name, c.value)
		}
	}
	return nil
}

// NewPalette loads a palette file from disk.
func NewPalette(mode Mode, path string) (*Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	p, err := ParsePalette(mode, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Path = path
	p.ModTime = info.ModTime()
	return p, nil
}

// Reload re-reads the palette file if it was modified.
// Returns true if any color changed.
func (p *Palette) Reload() (bool, error) {
	if p.Path == "" {
		return false, nil
	}

	info, err := os.Stat(p.Path)
	if err != nil {
		return false, err
	}
	if !info.ModTime().After(p.ModTime) {
		return false, nil
	}

	fresh, err := NewPalette(p.Mode, p.Path)
	if err != nil {
		return false, err
	}

	changed := fresh.colors() != p.colors()
	*p = *fresh
	return changed, nil
}

func (p *Palette) colors() [7]string {
	return [7]string{p.Background, p.Foreground, p.Muted, p.Accent, p.Border, p.Highlight, p.Overlay}
}
