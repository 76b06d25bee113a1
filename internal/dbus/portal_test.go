package dbus

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestParseColorScheme(t *testing.T) {
	tests := []struct {
		name string
		in   dbus.Variant
		dark bool
		ok   bool
	}{
		{"prefer dark", dbus.MakeVariant(uint32(1)), true, true},
		{"prefer light", dbus.MakeVariant(uint32(2)), false, true},
		{"no preference", dbus.MakeVariant(uint32(0)), false, true},
		{"nested variant from Read", dbus.MakeVariant(dbus.MakeVariant(uint32(1))), true, true},
		{"unknown value", dbus.MakeVariant(uint32(7)), false, false},
		{"wrong type", dbus.MakeVariant("dark"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dark, ok := parseColorScheme(tt.in)
			assert.Equal(t, tt.dark, dark)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func settingChanged(namespace, key string, value uint32) *dbus.Signal {
	return &dbus.Signal{
		Path: PortalPath,
		Name: SettingsInterface + ".SettingChanged",
		Body: []interface{}{namespace, key, dbus.MakeVariant(value)},
	}
}

func TestPortalScheme_HandleSignal(t *testing.T) {
	p := newPortalScheme(nil, nil)

	var got []bool
	unsubscribe := p.Subscribe(func(dark bool) { got = append(got, dark) })

	p.handleSignal(settingChanged(AppearanceNamespace, ColorSchemeKey, ColorSchemePreferDark))
	assert.True(t, p.PrefersDark())

	// Same value again and unrelated settings are not reported.
	p.handleSignal(settingChanged(AppearanceNamespace, ColorSchemeKey, ColorSchemePreferDark))
	p.handleSignal(settingChanged(AppearanceNamespace, "accent-color", 0))
	p.handleSignal(settingChanged("org.gnome.desktop.interface", ColorSchemeKey, 0))

	p.handleSignal(settingChanged(AppearanceNamespace, ColorSchemeKey, ColorSchemePreferLight))
	assert.False(t, p.PrefersDark())
	assert.Equal(t, []bool{true, false}, got)

	unsubscribe()
	p.handleSignal(settingChanged(AppearanceNamespace, ColorSchemeKey, ColorSchemePreferDark))
	assert.Len(t, got, 2)
}

func TestPortalScheme_IgnoresOtherSignals(t *testing.T) {
	p := newPortalScheme(nil, nil)
	called := false
	p.Subscribe(func(bool) { called = true })

	p.handleSignal(&dbus.Signal{Name: "org.freedesktop.DBus.NameAcquired", Body: []interface{}{"x"}})
	p.handleSignal(&dbus.Signal{Name: SettingsInterface + ".SettingChanged", Body: []interface{}{AppearanceNamespace}})

	assert.False(t, called)
}

func TestPortalScheme_CloseWithoutConnection(t *testing.T) {
	p := newPortalScheme(nil, nil)
	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
}
