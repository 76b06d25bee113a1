// Package dbus reads the desktop color-scheme preference from the XDG
// desktop portal (org.freedesktop.portal.Settings) and follows its
// SettingChanged signal.
package dbus
