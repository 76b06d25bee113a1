package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "en", cfg.Profile.PrimaryLanguage)
	assert.Equal(t, "hu", cfg.Profile.AlternateLanguage)
	assert.Equal(t, 1500*time.Millisecond, cfg.Loading.MinDuration.Duration())
	assert.Equal(t, 3000*time.Millisecond, cfg.Loading.Fallback.Duration())
	assert.Equal(t, 600*time.Millisecond, cfg.Loading.DetachGrace.Duration())
	assert.Equal(t, 100*time.Millisecond, cfg.Loading.FadeIn.Duration())
	assert.Equal(t, 600*time.Millisecond, cfg.Loading.Ripple.Duration())
	assert.Equal(t, "HU", cfg.Locale.TargetCountry)
	assert.True(t, cfg.Locale.EnableManualToggle)
	assert.Equal(t, "system", cfg.Theme.ColorScheme)
	assert.Equal(t, 2222, cfg.Server.Port)
	assert.NotEmpty(t, cfg.Links)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Profile, cfg.Profile)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[profile]
primary_name = "Ada Lovelace"
alternate_name = "Lovelace Ada"
primary_language = "en"
alternate_language = "ja"

[[links]]
label = "Site"
url = "https://example.com"

[loading]
min_duration = "2s"
fallback = 5000
fade_in = "50ms"

[locale]
enable_manual_toggle = false
target_country = "JP"
timeout = "1s"

[theme]
color_scheme = "dark"

[server]
port = 2323
rate_limit_per_minute = 60
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", cfg.Profile.PrimaryName)
	assert.Equal(t, "ja", cfg.Profile.AlternateLanguage)
	require.Len(t, cfg.Links, 1)
	assert.Equal(t, "https://example.com", cfg.Links[0].URL)
	assert.Equal(t, 2*time.Second, cfg.Loading.MinDuration.Duration())
	assert.Equal(t, 5*time.Second, cfg.Loading.Fallback.Duration())
	assert.Equal(t, 50*time.Millisecond, cfg.Loading.FadeIn.Duration())
	assert.False(t, cfg.Locale.EnableManualToggle)
	assert.Equal(t, "JP", cfg.Locale.TargetCountry)
	assert.Equal(t, time.Second, cfg.Locale.Timeout.Duration())
	assert.Equal(t, "dark", cfg.Theme.ColorScheme)
	assert.Equal(t, 2323, cfg.Server.Port)
	assert.Equal(t, 60, cfg.Server.RateLimitPerMinute)

	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultDetachGrace, cfg.Loading.DetachGrace.Duration())
	assert.Equal(t, DefaultEndpoint, cfg.Locale.Endpoint)
	assert.Equal(t, DefaultHostKeyPath, cfg.Server.HostKeyPath)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`this is not valid toml [`), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[loading]\nfallback = \"soon\"\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero fallback", mutate: func(c *Config) { c.Loading.Fallback = 0 }},
		{name: "negative minimum", mutate: func(c *Config) { c.Loading.MinDuration = Duration(-time.Second) }},
		{name: "same languages", mutate: func(c *Config) { c.Profile.AlternateLanguage = "EN" }},
		{name: "empty language", mutate: func(c *Config) { c.Profile.PrimaryLanguage = " " }},
		{name: "long country", mutate: func(c *Config) { c.Locale.TargetCountry = "HUN" }},
		{name: "unknown scheme", mutate: func(c *Config) { c.Theme.ColorScheme = "sepia" }},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "config.toml")

	cfg := DefaultConfig()
	cfg.Profile.PrimaryName = "Someone Else"
	cfg.Loading.Fallback = Duration(4 * time.Second)
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Someone Else", loaded.Profile.PrimaryName)
	assert.Equal(t, 4*time.Second, loaded.Loading.Fallback.Duration())
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/homepage/config.toml", ConfigPath())
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	assert.Equal(t, "/custom/data/homepage", DataPath())
	assert.Equal(t, "/custom/data/homepage/state.json", StatePath())
	assert.Equal(t, "/custom/data/homepage/homepage.log", LogPath())
}

func TestEnsureDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	require.NoError(t, EnsureDataDir())

	info, err := os.Stat(filepath.Join(dir, "homepage"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
