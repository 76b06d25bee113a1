package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/homepage/internal/config"
	"github.com/jmylchreest/homepage/internal/geo"
	"github.com/jmylchreest/homepage/internal/store"
)

func TestNormalizePref(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		key, value string
		wantKey    string
		wantValue  string
		wantErr    bool
	}{
		{key: "theme", value: "dark", wantKey: store.KeyTheme, wantValue: "dark"},
		{key: "THEME", value: "light", wantKey: store.KeyTheme, wantValue: "light"},
		{key: "theme", value: "sepia", wantErr: true},
		{key: "language", value: "hu", wantKey: store.KeyLanguage, wantValue: "hu"},
		{key: "language", value: "EN", wantKey: store.KeyLanguage, wantValue: "en"},
		{key: "language", value: "alternate", wantKey: store.KeyLanguage, wantValue: "hu"},
		{key: "language", value: "de", wantErr: true},
		{key: "font", value: "serif", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			key, value, err := normalizePref(cfg, tt.key, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func testBuckets(updated time.Time) []prefBucket {
	return []prefBucket{
		collectBucket("local", map[string]store.Entry{
			store.KeyTheme:    {Value: "dark", UpdatedAt: updated.Unix(), Source: "homepage"},
			store.KeyLanguage: {Value: "hu", UpdatedAt: updated.Unix()},
		}),
		collectBucket("ip:203.0.113.7", nil),
	}
}

func TestCollectBucket_SortsByKey(t *testing.T) {
	b := testBuckets(time.Unix(1700000000, 0))[0]
	require.Len(t, b.Entries, 2)
	assert.Equal(t, store.KeyLanguage, b.Entries[0].Key)
	assert.Equal(t, store.KeyTheme, b.Entries[1].Key)
}

func TestFormatPrefs_Text(t *testing.T) {
	now := time.Unix(1700000000, 0)
	var buf bytes.Buffer
	require.NoError(t, formatPrefs(&buf, formatText, testBuckets(now.Add(-3*time.Minute)), now))

	out := buf.String()
	assert.Contains(t, out, "[local]")
	assert.Contains(t, out, "3 minutes ago")
	assert.Contains(t, out, "homepage")
	assert.Contains(t, out, "[ip:203.0.113.7]")
	assert.Contains(t, out, "(no preferences)")
}

func TestFormatPrefs_Structured(t *testing.T) {
	now := time.Unix(1700000000, 0)

	var jsonBuf bytes.Buffer
	require.NoError(t, formatPrefs(&jsonBuf, formatJSON, testBuckets(now), now))
	var decoded []prefBucket
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "local", decoded[0].Bucket)
	assert.Equal(t, "dark", decoded[0].Entries[1].Value)

	var yamlBuf bytes.Buffer
	require.NoError(t, formatPrefs(&yamlBuf, formatYAML, testBuckets(now), now))
	var fromYAML []map[string]any
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))
	assert.Equal(t, "ip:203.0.113.7", fromYAML[1]["bucket"])

	assert.Error(t, formatPrefs(&bytes.Buffer{}, "xml", nil, now))
}

func TestLanguageFor(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, "hu", languageFor(cfg, "HU"))
	assert.Equal(t, "hu", languageFor(cfg, "hu"))
	assert.Equal(t, "en", languageFor(cfg, "AT"))
	assert.Equal(t, "en", languageFor(cfg, ""))
}

func TestFormatLocation(t *testing.T) {
	cfg := config.DefaultConfig()
	loc := &geo.Location{IP: "203.0.113.7", City: "Budapest", CountryCode: "HU", CountryName: "Hungary", Timezone: "Europe/Budapest"}

	var text bytes.Buffer
	require.NoError(t, formatLocation(&text, formatText, cfg, loc))
	assert.Contains(t, text.String(), "Hungary (HU)")
	assert.Contains(t, text.String(), "Budapest")
	assert.Regexp(t, `Language:\s+hu`, text.String())

	var js bytes.Buffer
	require.NoError(t, formatLocation(&js, formatJSON, cfg, loc))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, "HU", decoded["country_code"])
	assert.Equal(t, "hu", decoded["language"])

	var ym bytes.Buffer
	require.NoError(t, formatLocation(&ym, formatYAML, cfg, loc))
	assert.Contains(t, ym.String(), "country_code: HU")
	assert.Contains(t, ym.String(), "language: hu")
}
