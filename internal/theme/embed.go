package theme

import (
	"embed"
	"io/fs"
	"path/filepath"
	"strings"
)

// EmbeddedPalettes contains the bundled palette files.
//
//go:embed themes/*.toml
var EmbeddedPalettes embed.FS

// GetEmbeddedPalette retrieves a bundled palette file by mode name.
func GetEmbeddedPalette(name string) ([]byte, bool) {
	data, err := EmbeddedPalettes.ReadFile("themes/" + name + ".toml")
	if err != nil {
		return nil, false
	}
	return data, true
}

// ListEmbeddedPalettes returns the names of all bundled palettes.
func ListEmbeddedPalettes() []string {
	entries, err := fs.ReadDir(EmbeddedPalettes, "themes")
	if err != nil {
		return []string{string(Light), string(Dark)}
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := filepath.Ext(entry.Name()); ext == ".toml" {
			names = append(names, strings.TrimSuffix(entry.Name(), ext))
		}
	}
	return names
}
