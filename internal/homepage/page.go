// Package homepage wires one page load: the document, the loading
// coordinator, the theme manager and the locale resolver.
package homepage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/homepage/internal/clock"
	"github.com/jmylchreest/homepage/internal/config"
	"github.com/jmylchreest/homepage/internal/dom"
	"github.com/jmylchreest/homepage/internal/loading"
	"github.com/jmylchreest/homepage/internal/locale"
	"github.com/jmylchreest/homepage/internal/store"
	"github.com/jmylchreest/homepage/internal/theme"
)

// ErrNoSuchLink is returned by ClickSocialLink for an out-of-range index.
var ErrNoSuchLink = errors.New("no such social link")

// Options configures a Page.
type Options struct {
	Config     *config.Config
	Prefs      store.Preferences  // nil disables persistence
	Scheme     theme.SchemeSignal // nil means the OS never prefers dark
	Geolocator locale.Geolocator  // nil skips geolocation
	Clock      clock.Clock
	Logger     *slog.Logger

	// Visitor names the preference bucket in logs.
	Visitor string
}

// Page is one page load.
type Page struct {
	id      string
	cfg     *config.Config
	clock   clock.Clock
	logger  *slog.Logger
	doc     *dom.Document
	loading *loading.Coordinator
	theme   *theme.Manager
	locale  *locale.Resolver
	links   []dom.Link

	mu       sync.Mutex
	loaded   bool
	cancel   context.CancelFunc
	decision locale.Decision
	resolved chan struct{}
}

// New builds the document and components for one page load.
func New(opts Options) (*Page, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	id, err := ulid.New(ulid.Timestamp(opts.Clock.Now()), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}
	logger := opts.Logger.With("session", id.String())
	if opts.Visitor != "" {
		logger = logger.With("visitor", opts.Visitor)
	}

	links := make([]dom.Link, len(cfg.Links))
	for i, l := range cfg.Links {
		links[i] = dom.Link{Label: l.Label, URL: l.URL}
	}
	doc := dom.Build(dom.Layout{
		Links:        links,
		DualLanguage: cfg.Locale.EnableManualToggle,
	})

	p := &Page{
		id:       id.String(),
		cfg:      cfg,
		clock:    opts.Clock,
		logger:   logger,
		doc:      doc,
		links:    links,
		resolved: make(chan struct{}),
	}

	p.loading = loading.New(doc, loading.Options{
		Clock:       opts.Clock,
		Logger:      logger,
		DetachGrace: cfg.Loading.DetachGrace.Duration(),
		OnFallback:  p.onFallback,
	})
	p.theme = theme.NewManager(doc, opts.Prefs, opts.Scheme, logger)
	p.locale = locale.NewResolver(doc, locale.Options{
		Profile: locale.Profile{
			PrimaryName:   cfg.Profile.PrimaryName,
			AlternateName: cfg.Profile.AlternateName,
			PrimaryCode:   cfg.Profile.PrimaryLanguage,
			AlternateCode: cfg.Profile.AlternateLanguage,
			PrimaryBio:    cfg.Profile.PrimaryBio,
			AlternateBio:  cfg.Profile.AlternateBio,
		},
		Prefs:         opts.Prefs,
		Geolocator:    opts.Geolocator,
		TargetCountry: cfg.Locale.TargetCountry,
		Ready:         p.loading,
		EnableToggle:  cfg.Locale.EnableManualToggle,
		FadeIn:        cfg.Loading.FadeIn.Duration(),
		Clock:         opts.Clock,
		Logger:        logger,
	})

	return p, nil
}

// Load runs the page start-up flow. Locale resolution runs in the
// background; Resolved reports when it has finished. Calling Load more than
// once has no effect.
func (p *Page) Load(ctx context.Context) {
	p.mu.Lock()
	if p.loaded {
		p.mu.Unlock()
		return
	}
	p.loaded = true
	ctx, p.cancel = context.WithCancel(ctx)
	p.mu.Unlock()

	p.logger.Info("page load started")

	p.theme.Initialize()
	if e := p.doc.Element(dom.IDNameDisplay); e != nil {
		e.AddClass(dom.ClassLoading)
	}
	p.loading.Start(p.cfg.Loading.MinDuration.Duration(), p.cfg.Loading.Fallback.Duration())

	go func() {
		d := p.locale.Resolve(ctx)
		p.mu.Lock()
		p.decision = d
		p.mu.Unlock()
		close(p.resolved)

		p.logger.Info("language resolved",
			"language", p.locale.Current(),
			"source", d.Source)
	}()
}

func (p *Page) onFallback() {
	if p.locale.RenderDefault() {
		p.logger.Debug("rendered primary language before resolution finished")
	}
	if locale.RevealName(p.doc) {
		p.logger.Debug("name display revealed by fallback")
	}
	loading.RevealSocialLinks(p.doc)
}

// ClickSocialLink acknowledges a click on the i-th social link with a
// transient ripple and returns the link URL.
func (p *Page) ClickSocialLink(i int) (string, error) {
	link := p.doc.Element(dom.SocialLinkID(i))
	if link == nil {
		return "", fmt.Errorf("%w: %d", ErrNoSuchLink, i)
	}

	ripple := p.doc.CreateElement("")
	ripple.AddClass(dom.ClassRipple)
	link.AppendChild(ripple)
	p.clock.AfterFunc(p.cfg.Loading.Ripple.Duration(), ripple.Remove)

	url := link.Attribute(dom.AttrHref)
	p.logger.Debug("social link clicked", "index", i, "url", url)
	return url, nil
}

// ToggleTheme flips and persists the theme.
func (p *Page) ToggleTheme() theme.Mode {
	return p.theme.Toggle()
}

// ToggleLanguage flips and persists the language.
func (p *Page) ToggleLanguage() (locale.Decision, error) {
	return p.locale.Toggle()
}

// RefreshPreferences re-applies persisted preferences changed outside this
// page, such as a theme reset from the command line.
func (p *Page) RefreshPreferences() {
	p.theme.Refresh()
}

// Close releases the page's listeners and document subscribers.
func (p *Page) Close() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	p.theme.Close()
	p.doc.Close()
	p.logger.Info("page closed", "state", p.loading.State())
}

// ID returns the page's session ID.
func (p *Page) ID() string { return p.id }

// Document returns the page document.
func (p *Page) Document() *dom.Document { return p.doc }

// Links returns the social links in display order.
func (p *Page) Links() []dom.Link { return p.links }

// Theme returns the active theme.
func (p *Page) Theme() theme.Mode { return p.theme.Current() }

// Language returns the rendered language.
func (p *Page) Language() locale.Language { return p.locale.Current() }

// LanguageToggleEnabled reports whether ToggleLanguage is available.
func (p *Page) LanguageToggleEnabled() bool { return p.locale.ToggleEnabled() }

// Loading returns the page's loading coordinator.
func (p *Page) Loading() *loading.Coordinator { return p.loading }

// Resolved is closed once locale resolution has finished.
func (p *Page) Resolved() <-chan struct{} { return p.resolved }

// Decision returns the locale resolution outcome. Only meaningful after
// Resolved is closed.
func (p *Page) Decision() locale.Decision {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.decision
}

// WaitResolved blocks until locale resolution finishes or timeout elapses.
func (p *Page) WaitResolved(timeout time.Duration) bool {
	select {
	case <-p.resolved:
		return true
	case <-time.After(timeout):
		return false
	}
}
