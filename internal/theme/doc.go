// Package theme decides between the light and dark page themes and loads the
// color palettes used to draw them. Palettes ship embedded and can be
// overridden from ~/.config/homepage/themes/, with hot-reload on edit.
package theme
