// Package tui provides the BubbleTea-based terminal view of the homepage.
package tui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/homepage/internal/dom"
	"github.com/jmylchreest/homepage/internal/homepage"
	"github.com/jmylchreest/homepage/internal/theme"
)

const maxContentWidth = 72

// Options configures the view.
type Options struct {
	// Renderer decides the color profile. Nil uses the default renderer.
	Renderer *lipgloss.Renderer
	// Palettes supplies theme colors. Nil uses the built-in palettes.
	Palettes *theme.Loader

	// EnableClipboard copies a link URL on enter with a local clipboard
	// command instead of only showing it.
	EnableClipboard  bool
	ClipboardCommand string

	// TerminalClipboard copies with an OSC 52 sequence written through
	// Renderer, which reaches the clipboard of a remote visitor's terminal.
	TerminalClipboard bool

	Logger *slog.Logger
}

// Model renders one page.
type Model struct {
	page *homepage.Page
	doc  *dom.Document
	opts Options

	spinner spinner.Model
	help    help.Model
	keys    KeyMap

	selected int
	width    int
	height   int
	ready    bool
	title    string

	statusMsg string
	statusErr bool

	docCh <-chan struct{}
}

// New creates a view of page. The page should be loaded separately.
func New(page *homepage.Page, opts Options) Model {
	if opts.Renderer == nil {
		opts.Renderer = lipgloss.DefaultRenderer()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	keys := DefaultKeyMap()
	keys.Language.SetEnabled(page.LanguageToggleEnabled())
	if len(page.Links()) == 0 {
		keys.Next.SetEnabled(false)
		keys.Prev.SetEnabled(false)
		keys.Open.SetEnabled(false)
	}

	return Model{
		page:    page,
		doc:     page.Document(),
		opts:    opts,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    keys,
		docCh:   page.Document().Subscribe(),
	}
}

// PaletteChangedMsg asks the view to redraw after a palette hot-reload.
type PaletteChangedMsg struct{}

type docChangedMsg struct{}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	url string
	err error
}

// Init starts the spinner and the document subscription.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.watchDocument}
	if title := m.doc.Title(); title != "" {
		cmds = append(cmds, tea.SetWindowTitle(title))
	}
	return tea.Batch(cmds...)
}

// watchDocument waits for the next document mutation.
func (m Model) watchDocument() tea.Msg {
	if m.docCh == nil {
		return nil
	}
	if _, ok := <-m.docCh; !ok {
		return nil
	}
	return docChangedMsg{}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case docChangedMsg:
		cmds := []tea.Cmd{m.watchDocument}
		if title := m.doc.Title(); title != m.title {
			m.title = title
			cmds = append(cmds, tea.SetWindowTitle(title))
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !m.overlayVisible() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PaletteChangedMsg:
		return m, nil

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied "+msg.url, false)
	}

	return m, nil
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// handleKey handles key presses. While the loading overlay covers the page
// only the global keys work.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.overlayVisible() {
		return m, nil
	}

	links := len(m.page.Links())
	switch {
	case key.Matches(msg, m.keys.Theme):
		mode := m.page.ToggleTheme()
		return m, status("Theme: "+string(mode), false)

	case key.Matches(msg, m.keys.Language):
		if _, err := m.page.ToggleLanguage(); err != nil {
			return m, status(err.Error(), true)
		}
		return m, nil

	case key.Matches(msg, m.keys.Next):
		if links > 0 {
			m.selected = (m.selected + 1) % links
		}
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		if links > 0 {
			m.selected = (m.selected - 1 + links) % links
		}
		return m, nil

	case key.Matches(msg, m.keys.Open):
		url, err := m.page.ClickSocialLink(m.selected)
		if err != nil {
			return m, status(err.Error(), true)
		}
		switch {
		case m.opts.EnableClipboard:
			return m, m.copyToClipboard(url)
		case m.opts.TerminalClipboard:
			m.opts.Renderer.Output().Copy(url)
			return m, status("Copied "+url, false)
		}
		return m, status("→ "+url, false)
	}

	return m, nil
}

func (m Model) copyToClipboard(url string) tea.Cmd {
	command := m.opts.ClipboardCommand
	return func() tea.Msg {
		return copyResultMsg{url: url, err: copyText(url, command)}
	}
}

func (m Model) overlayVisible() bool {
	return dom.Visible(m.doc.Element(dom.IDLoadingOverlay))
}

func (m Model) palette() *theme.Palette {
	mode := m.page.Theme()
	if m.opts.Palettes == nil {
		return theme.DefaultPalette(mode)
	}
	return m.opts.Palettes.Palette(mode)
}

// View renders the page.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	p := m.palette()
	styles := NewStyles(m.opts.Renderer, p)

	var body string
	if m.overlayVisible() {
		body = m.viewOverlay(styles)
	} else {
		body = m.viewPage(styles)
	}

	footer := m.viewFooter(styles)
	height := m.height - lipgloss.Height(footer)
	if height < 1 {
		height = 1
	}

	bg := lipgloss.WithWhitespaceBackground(lipgloss.Color(p.Background))
	placed := m.opts.Renderer.Place(m.width, height, lipgloss.Center, lipgloss.Center, body, bg)
	return placed + "\n" + m.opts.Renderer.PlaceHorizontal(m.width, lipgloss.Left, footer, bg)
}

func (m Model) viewOverlay(s Styles) string {
	m.spinner.Style = s.Spinner
	return s.Overlay.Render(m.spinner.View() + " Loading")
}

func (m Model) contentWidth() int {
	w := m.width - 4
	if w > maxContentWidth {
		w = maxContentWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) viewPage(s Styles) string {
	width := m.contentWidth()
	var b strings.Builder

	b.WriteString(m.viewToggles(s, width))
	b.WriteString("\n\n")
	b.WriteString(m.viewName(s))
	b.WriteString("\n\n")

	for _, id := range []string{dom.IDPrimaryBio, dom.IDAlternateBio} {
		if bio := m.doc.Element(id); dom.Visible(bio) {
			b.WriteString(s.Bio.Width(width).Render(bio.Text()))
			break
		}
	}

	if links := m.viewLinks(s); links != "" {
		b.WriteString("\n\n")
		b.WriteString(links)
	}

	return s.Page.Width(width).Render(b.String())
}

func (m Model) viewToggles(s Styles, width int) string {
	themeLabel := "☀ light"
	if m.page.Theme() == theme.Dark {
		themeLabel = "☾ dark"
	}
	parts := []string{s.Key.Render("t") + s.Toggle.Render(" "+themeLabel)}

	if indicator := m.doc.Element(dom.IDLangIndicator); indicator != nil {
		parts = append(parts, s.Key.Render("l")+s.Toggle.Render(" "+indicator.Text()))
	}

	return s.Page.Width(width).Align(lipgloss.Right).Render(strings.Join(parts, s.Toggle.Render("   ")))
}

func (m Model) viewName(s Styles) string {
	display := m.doc.Element(dom.IDNameDisplay)
	if display == nil || display.HasClass(dom.ClassLoading) {
		return s.Pending.Render("· · ·")
	}

	var lines []string
	if e := m.doc.Element(dom.IDPrimaryName); e != nil {
		lines = append(lines, s.Name.Render(e.Text()))
	}
	if e := m.doc.Element(dom.IDAlternateName); e != nil && e.Text() != "" {
		lines = append(lines, s.AlternateName.Render(e.Text()))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewLinks(s Styles) string {
	var boxes []string
	for i := range m.page.Links() {
		link := m.doc.Element(dom.SocialLinkID(i))
		if link == nil {
			continue
		}

		style := s.Link
		switch {
		case link.Style("opacity") == "0":
			style = s.LinkHidden
		case hasRipple(link):
			style = s.LinkRipple
		case i == m.selected:
			style = s.LinkSelected
		}
		boxes = append(boxes, style.Render(link.Text()))
	}
	if len(boxes) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func hasRipple(e *dom.Element) bool {
	for _, c := range e.Children() {
		if c.HasClass(dom.ClassRipple) {
			return true
		}
	}
	return false
}

func (m Model) viewFooter(s Styles) string {
	if m.statusMsg != "" {
		style := s.Status
		if m.statusErr {
			style = style.Foreground(lipgloss.Color("9"))
		}
		return style.Render(m.statusMsg)
	}

	h := m.help
	h.Styles.ShortKey = s.Key
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted
	h.Styles.FullKey = s.Key
	h.Styles.FullDesc = s.Muted
	h.Styles.FullSeparator = s.Muted
	h.Styles.Ellipsis = s.Muted
	return h.View(m.keys)
}

// RunOptions configures a local interactive page.
type RunOptions struct {
	Page             *homepage.Page
	Palettes         *theme.Loader
	ClipboardCommand string
	Logger           *slog.Logger
}

// Run loads the page and shows it until the user quits or ctx is done.
func Run(ctx context.Context, opts RunOptions) error {
	m := New(opts.Page, Options{
		Palettes:         opts.Palettes,
		EnableClipboard:  true,
		ClipboardCommand: opts.ClipboardCommand,
		Logger:           opts.Logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if opts.Palettes != nil {
		opts.Palettes.SetChangeCallback(func(*theme.Palette) {
			p.Send(PaletteChangedMsg{})
		})
		opts.Palettes.StartHotReload(ctx)
		defer opts.Palettes.StopHotReload()
	}

	opts.Page.Load(ctx)
	defer opts.Page.Close()

	_, err := p.Run()
	return err
}
