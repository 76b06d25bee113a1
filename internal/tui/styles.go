package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/homepage/internal/theme"
)

// Styles are the page styles for one palette and renderer.
type Styles struct {
	Page          lipgloss.Style
	Name          lipgloss.Style
	AlternateName lipgloss.Style
	Pending       lipgloss.Style
	Bio           lipgloss.Style
	Link          lipgloss.Style
	LinkHidden    lipgloss.Style
	LinkSelected  lipgloss.Style
	LinkRipple    lipgloss.Style
	Toggle        lipgloss.Style
	Key           lipgloss.Style
	Muted         lipgloss.Style
	Status        lipgloss.Style
	Overlay       lipgloss.Style
	Spinner       lipgloss.Style
}

// NewStyles builds styles from a palette. The renderer decides the color
// profile, so each SSH session gets its own.
func NewStyles(r *lipgloss.Renderer, p *theme.Palette) Styles {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	if p == nil {
		p = theme.DefaultPalette(theme.Light)
	}

	bg := lipgloss.Color(p.Background)
	fg := lipgloss.Color(p.Foreground)
	muted := lipgloss.Color(p.Muted)
	accent := lipgloss.Color(p.Accent)

	return Styles{
		Page:          r.NewStyle().Foreground(fg).Background(bg),
		Name:          r.NewStyle().Bold(true).Foreground(accent).Background(bg),
		AlternateName: r.NewStyle().Italic(true).Foreground(muted).Background(bg),
		Pending:       r.NewStyle().Faint(true).Foreground(muted).Background(bg),
		Bio:           r.NewStyle().Foreground(fg).Background(bg),
		Link: r.NewStyle().
			Foreground(fg).
			Background(bg).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.Border)).
			BorderBackground(bg),
		LinkHidden: r.NewStyle().
			Foreground(bg).
			Background(bg).
			Padding(0, 1).
			Border(lipgloss.HiddenBorder()).
			BorderBackground(bg),
		LinkSelected: r.NewStyle().
			Bold(true).
			Foreground(accent).
			Background(bg).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			BorderBackground(bg),
		LinkRipple: r.NewStyle().
			Bold(true).
			Foreground(accent).
			Background(lipgloss.Color(p.Highlight)).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			BorderBackground(bg),
		Toggle:  r.NewStyle().Foreground(muted).Background(bg),
		Key:     r.NewStyle().Foreground(accent).Background(bg),
		Muted:   r.NewStyle().Foreground(muted).Background(bg),
		Status:  r.NewStyle().Foreground(fg).Background(bg),
		Overlay: r.NewStyle().Foreground(fg).Background(lipgloss.Color(p.Overlay)).Padding(1, 3),
		Spinner: r.NewStyle().Foreground(accent).Background(lipgloss.Color(p.Overlay)),
	}
}
