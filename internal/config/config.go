// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultPrimaryName       = "Botond Balla"
	DefaultAlternateName     = "Balla Botond"
	DefaultPrimaryLanguage   = "en"
	DefaultAlternateLanguage = "hu"
	DefaultPrimaryBio        = "Software engineer. I build tools for the web and the terminal, and I like systems that degrade gracefully."
	DefaultAlternateBio      = "Szoftvermérnök. Webes és terminálos eszközöket építek, és szeretem a kecsesen hibatűrő rendszereket."

	DefaultMinDuration = 1500 * time.Millisecond
	DefaultFallback    = 3000 * time.Millisecond
	DefaultDetachGrace = 600 * time.Millisecond
	DefaultFadeIn      = 100 * time.Millisecond
	DefaultRipple      = 600 * time.Millisecond

	DefaultTargetCountry   = "HU"
	DefaultEndpoint        = "https://ipapi.co/json/"
	DefaultVisitorEndpoint = "https://ipapi.co/%s/json/"
	DefaultLookupTimeout   = 5 * time.Second

	DefaultHost               = "0.0.0.0"
	DefaultPort               = 2222
	DefaultHostKeyPath        = ".data/host_ed25519"
	DefaultIdleTimeout        = 120 * time.Second
	DefaultRateLimitPerMinute = 30
	DefaultRateLimitBurst     = 10
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "100ms", "1.5s", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '100ms', '1.5s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config represents the homepage configuration.
type Config struct {
	Profile   ProfileConfig   `toml:"profile"`
	Links     []LinkConfig    `toml:"links"`
	Loading   LoadingConfig   `toml:"loading"`
	Locale    LocaleConfig    `toml:"locale"`
	Theme     ThemeConfig     `toml:"theme"`
	Server    ServerConfig    `toml:"server"`
	Clipboard ClipboardConfig `toml:"clipboard"`
}

// ProfileConfig holds the two parallel renderings of name and biography.
type ProfileConfig struct {
	PrimaryName       string `toml:"primary_name"`
	AlternateName     string `toml:"alternate_name"`
	PrimaryLanguage   string `toml:"primary_language"`
	AlternateLanguage string `toml:"alternate_language"`
	PrimaryBio        string `toml:"primary_bio"`
	AlternateBio      string `toml:"alternate_bio"`
}

// LinkConfig is one social link.
type LinkConfig struct {
	Label string `toml:"label"`
	URL   string `toml:"url"`
}

// LoadingConfig holds the overlay timings.
type LoadingConfig struct {
	MinDuration Duration `toml:"min_duration"` // Minimum time the overlay stays up
	Fallback    Duration `toml:"fallback"`     // Dismiss even if content never reports ready
	DetachGrace Duration `toml:"detach_grace"` // Hide transition before the overlay is removed
	FadeIn      Duration `toml:"fade_in"`      // Name display fade-in delay
	Ripple      Duration `toml:"ripple"`       // Social link click acknowledgment
}

// LocaleConfig holds geolocation settings.
type LocaleConfig struct {
	EnableManualToggle bool     `toml:"enable_manual_toggle"`
	TargetCountry      string   `toml:"target_country"`   // ISO 3166 alpha-2 selecting the alternate language
	Endpoint           string   `toml:"endpoint"`         // Lookup for the caller's own address
	VisitorEndpoint    string   `toml:"visitor_endpoint"` // Lookup for an explicit IP, %s is the address
	Timeout            Duration `toml:"timeout"`
	Disabled           bool     `toml:"disabled"` // Skip geolocation entirely
}

// ThemeConfig holds theme settings.
type ThemeConfig struct {
	ColorScheme string `toml:"color_scheme"` // "system", "light", or "dark"
}

// ClipboardConfig holds clipboard settings for the local page.
type ClipboardConfig struct {
	Command string `toml:"command"` // Empty = auto-detect (wl-copy, xclip, xsel)
}

// ColorScheme represents where the OS-level scheme signal comes from.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// ValidColorSchemes returns all valid color scheme values.
func ValidColorSchemes() []ColorScheme {
	return []ColorScheme{ColorSchemeSystem, ColorSchemeLight, ColorSchemeDark}
}

// ServerConfig holds SSH server settings.
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	HostKeyPath        string   `toml:"host_key_path"`
	IdleTimeout        Duration `toml:"idle_timeout"`
	RateLimitPerMinute int      `toml:"rate_limit_per_minute"`
	RateLimitBurst     int      `toml:"rate_limit_burst"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Profile: ProfileConfig{
			PrimaryName:       DefaultPrimaryName,
			AlternateName:     DefaultAlternateName,
			PrimaryLanguage:   DefaultPrimaryLanguage,
			AlternateLanguage: DefaultAlternateLanguage,
			PrimaryBio:        DefaultPrimaryBio,
			AlternateBio:      DefaultAlternateBio,
		},
		Links: []LinkConfig{
			{Label: "GitHub", URL: "https://github.com/"},
			{Label: "LinkedIn", URL: "https://www.linkedin.com/"},
			{Label: "Email", URL: "mailto:hello@example.com"},
		},
		Loading: LoadingConfig{
			MinDuration: Duration(DefaultMinDuration),
			Fallback:    Duration(DefaultFallback),
			DetachGrace: Duration(DefaultDetachGrace),
			FadeIn:      Duration(DefaultFadeIn),
			Ripple:      Duration(DefaultRipple),
		},
		Locale: LocaleConfig{
			EnableManualToggle: true,
			TargetCountry:      DefaultTargetCountry,
			Endpoint:           DefaultEndpoint,
			VisitorEndpoint:    DefaultVisitorEndpoint,
			Timeout:            Duration(DefaultLookupTimeout),
		},
		Theme: ThemeConfig{
			ColorScheme: string(ColorSchemeSystem),
		},
		Server: ServerConfig{
			Host:               DefaultHost,
			Port:               DefaultPort,
			HostKeyPath:        DefaultHostKeyPath,
			IdleTimeout:        Duration(DefaultIdleTimeout),
			RateLimitPerMinute: DefaultRateLimitPerMinute,
			RateLimitBurst:     DefaultRateLimitBurst,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "homepage", "config.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "homepage")
}

// StatePath returns the path to the preference state file.
func StatePath() string {
	return filepath.Join(DataPath(), "state.json")
}

// LogPath returns the path of the log file used while the TUI owns the terminal.
func LogPath() string {
	return filepath.Join(DataPath(), "homepage.log")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges that would otherwise break the page flow.
func (c *Config) Validate() error {
	durations := map[string]Duration{
		"loading.min_duration": c.Loading.MinDuration,
		"loading.detach_grace": c.Loading.DetachGrace,
		"loading.fade_in":      c.Loading.FadeIn,
		"loading.ripple":       c.Loading.Ripple,
		"locale.timeout":       c.Locale.Timeout,
	}
	for name, d := range durations {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if c.Loading.Fallback <= 0 {
		return errors.New("loading.fallback must be greater than 0")
	}

	primary := strings.TrimSpace(c.Profile.PrimaryLanguage)
	alternate := strings.TrimSpace(c.Profile.AlternateLanguage)
	if primary == "" || alternate == "" {
		return errors.New("profile languages must not be empty")
	}
	if strings.EqualFold(primary, alternate) {
		return fmt.Errorf("profile.primary_language and profile.alternate_language must differ (both %q)", primary)
	}

	if len(c.Locale.TargetCountry) != 2 {
		return fmt.Errorf("locale.target_country must be a two-letter country code, got %q", c.Locale.TargetCountry)
	}

	scheme := ColorScheme(c.Theme.ColorScheme)
	valid := false
	for _, s := range ValidColorSchemes() {
		if s == scheme {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("theme.color_scheme must be one of system, light, dark, got %q", c.Theme.ColorScheme)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	return nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	path := DataPath()
	if path == "" {
		return errors.New("unable to determine data directory")
	}
	return os.MkdirAll(path, 0755)
}
