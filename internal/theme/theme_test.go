package theme

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("dark")
	require.NoError(t, err)
	assert.Equal(t, Dark, m)

	m, err = ParseMode(" Light ")
	require.NoError(t, err)
	assert.Equal(t, Light, m)

	m, err = ParseMode("sepia")
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.Equal(t, Light, m)
}

func TestMode_Opposite(t *testing.T) {
	assert.Equal(t, Dark, Light.Opposite())
	assert.Equal(t, Light, Dark.Opposite())
}

func TestEmbeddedPalettes(t *testing.T) {
	assert.ElementsMatch(t, []string{"light", "dark"}, ListEmbeddedPalettes())

	for _, mode := range Modes() {
		data, found := GetEmbeddedPalette(string(mode))
		require.True(t, found, "%s palette should be embedded", mode)

		p, err := ParsePalette(mode, data)
		require.NoError(t, err)
		assert.Equal(t, mode, p.Mode)
		assert.False(t, p.IsDefault)
	}

	_, found := GetEmbeddedPalette("nonexistent")
	assert.False(t, found)
}

func TestParsePalette_MissingColorsUseDefaults(t *testing.T) {
	p, err := ParsePalette(Dark, []byte(`accent = "#ff00ff"`))
	require.NoError(t, err)

	assert.Equal(t, "#ff00ff", p.Accent)
	assert.Equal(t, DefaultPalette(Dark).Background, p.Background)
}

func TestParsePalette_RejectsInvalid(t *testing.T) {
	_, err := ParsePalette(Light, []byte(`accent = "blue-ish"`))
	assert.Error(t, err)

	_, err = ParsePalette(Light, []byte(`accent = [`))
	assert.Error(t, err)
}

func TestPalette_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dark.toml")
	require.NoError(t, os.WriteFile(path, []byte(`accent = "#111111"`), 0644))

	p, err := NewPalette(Dark, path)
	require.NoError(t, err)
	assert.Equal(t, "#111111", p.Accent)

	changed, err := p.Reload()
	require.NoError(t, err)
	assert.False(t, changed, "unmodified file is not reloaded")

	require.NoError(t, os.WriteFile(path, []byte(`accent = "#222222"`), 0644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	changed, err = p.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "#222222", p.Accent)
}

func TestLoader_ResolutionOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dark.toml"), []byte(`background = "#000000"`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "light.toml"), []byte(`background = "nope"`), 0644))

	l := NewLoaderWithDir(dir, nil)
	l.LoadAll()

	dark := l.Palette(Dark)
	assert.Equal(t, "#000000", dark.Background)
	assert.Equal(t, filepath.Join(dir, "dark.toml"), dark.Path)

	light := l.Palette(Light)
	assert.Empty(t, light.Path, "invalid user palette falls back to the bundled one")
	assert.False(t, light.IsDefault)
}

func TestLoader_NoUserDir(t *testing.T) {
	l := NewLoaderWithDir("", nil)
	p := l.Palette(Light)
	require.NotNil(t, p)
	assert.Equal(t, Light, p.Mode)
	assert.Empty(t, p.Path)
}

func TestLoader_ListPalettes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dark.toml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "solarized.toml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(""), 0644))

	names := NewLoaderWithDir(dir, nil).ListPalettes()
	assert.ElementsMatch(t, []string{"light", "dark", "solarized"}, names)
}

func TestThemesDir_UsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	dir, err := ThemesDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/config/homepage/themes", dir)
}

func TestLoader_HotReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dark.toml")
	require.NoError(t, os.WriteFile(path, []byte(`accent = "#111111"`), 0644))

	l := NewLoaderWithDir(dir, nil)
	l.LoadAll()

	reloaded := make(chan *Palette, 4)
	l.SetChangeCallback(func(p *Palette) { reloaded <- p })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.mu.RLock()
	p := l.palettes[Dark]
	l.mu.RUnlock()
	require.NotEmpty(t, p.Path)

	l.StartHotReload(ctx)
	defer l.StopHotReload()

	require.NoError(t, os.WriteFile(path, []byte(`accent = "#333333"`), 0644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case p := <-reloaded:
		assert.Equal(t, "#333333", p.Accent)
	case <-time.After(5 * time.Second):
		t.Fatal("palette was not hot-reloaded")
	}
	assert.Equal(t, "#333333", l.Palette(Dark).Accent)
}

func TestWatcher_IgnoresPalettesWithoutFile(t *testing.T) {
	w := NewWatcher(DefaultPalette(Light), nil)
	require.NoError(t, w.Start(context.Background()))
	assert.False(t, w.IsRunning())
	w.Stop()
}
