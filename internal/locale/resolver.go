// Package locale picks which of the two name and biography renderings a
// visitor sees: a persisted choice first, then geolocation, then the primary
// language. A manual toggle flips and persists the choice.
package locale

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jmylchreest/homepage/internal/clock"
	"github.com/jmylchreest/homepage/internal/dom"
	"github.com/jmylchreest/homepage/internal/store"
)

// DefaultFadeIn is the delay between rendering and revealing the name display.
const DefaultFadeIn = 100 * time.Millisecond

// ErrToggleDisabled is returned by Toggle when the page has no language toggle.
var ErrToggleDisabled = errors.New("language toggle is disabled")

// errNoGeolocator marks the lookup as unavailable when geolocation is off.
var errNoGeolocator = errors.New("geolocation disabled")

// Language selects one of the two renderings.
type Language int

const (
	Primary Language = iota
	Alternate
)

func (l Language) String() string {
	if l == Alternate {
		return "alternate"
	}
	return "primary"
}

// Other returns the other language.
func (l Language) Other() Language {
	if l == Alternate {
		return Primary
	}
	return Alternate
}

// Profile holds the two renderings of the page owner's name and biography.
type Profile struct {
	PrimaryName   string
	AlternateName string
	PrimaryCode   string // e.g. "en"
	AlternateCode string // e.g. "hu"
	PrimaryBio    string
	AlternateBio  string
}

// Code returns the language code of l.
func (p Profile) Code(l Language) string {
	if l == Alternate {
		return p.AlternateCode
	}
	return p.PrimaryCode
}

// Name returns the name as written in l.
func (p Profile) Name(l Language) string {
	if l == Alternate {
		return p.AlternateName
	}
	return p.PrimaryName
}

// Bio returns the biography written in l.
func (p Profile) Bio(l Language) string {
	if l == Alternate {
		return p.AlternateBio
	}
	return p.PrimaryBio
}

// Parse maps a persisted language code to a Language.
func (p Profile) Parse(code string) (Language, bool) {
	code = strings.TrimSpace(code)
	switch {
	case strings.EqualFold(code, p.PrimaryCode), strings.EqualFold(code, Primary.String()):
		return Primary, true
	case strings.EqualFold(code, p.AlternateCode), strings.EqualFold(code, Alternate.String()):
		return Alternate, true
	}
	return Primary, false
}

// Source records how a decision was reached.
type Source string

const (
	SourcePersisted   Source = "persisted"
	SourceGeolocation Source = "geolocation"
	SourceFallback    Source = "fallback"
	SourceManual      Source = "manual"
)

// Decision is the outcome of Resolve or Toggle.
type Decision struct {
	Language Language
	Source   Source
}

// Geolocator returns the visitor's ISO 3166 alpha-2 country code.
type Geolocator interface {
	CountryCode(ctx context.Context) (string, error)
}

// GeolocatorFunc adapts a function to Geolocator.
type GeolocatorFunc func(ctx context.Context) (string, error)

// CountryCode implements Geolocator.
func (f GeolocatorFunc) CountryCode(ctx context.Context) (string, error) { return f(ctx) }

// ReadySignal is told once the name display has been revealed.
type ReadySignal interface {
	ReportContentReady()
}

// Options configures a Resolver.
type Options struct {
	Profile Profile
	Prefs   store.Preferences // nil disables persistence

	// Geolocator is consulted when no choice is persisted. nil behaves like a
	// failed lookup.
	Geolocator    Geolocator
	TargetCountry string // Country selecting the alternate language

	Ready        ReadySignal
	EnableToggle bool
	FadeIn       time.Duration
	Clock        clock.Clock
	Logger       *slog.Logger
}

// Resolver renders the language-dependent parts of one document.
type Resolver struct {
	mu   sync.Mutex
	doc  *dom.Document
	opts Options

	current  Language
	manual   bool
	resolved bool
	rendered bool
	decision Decision
}

// NewResolver creates a resolver for doc.
func NewResolver(doc *dom.Document, opts Options) *Resolver {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.FadeIn < 0 {
		opts.FadeIn = 0
	}
	return &Resolver{doc: doc, opts: opts}
}

// Resolve decides the language, renders it and, after the fade-in delay,
// reveals the name display and signals ready. It blocks for at most one
// geolocation lookup. Every path signals ready.
func (r *Resolver) Resolve(ctx context.Context) Decision {
	r.mu.Lock()
	if r.resolved {
		d := r.decision
		r.mu.Unlock()
		return d
	}
	r.resolved = true

	if saved, ok := r.persisted(); ok {
		lang, known := r.opts.Profile.Parse(saved)
		if !known {
			r.opts.Logger.Warn("ignoring persisted language", "value", saved)
		}
		r.renderLocked(lang)
		r.decision = Decision{Language: lang, Source: SourcePersisted}
		d := r.decision
		r.mu.Unlock()

		r.scheduleReady()
		return d
	}
	r.mu.Unlock()

	code, err := r.lookup(ctx)

	r.mu.Lock()
	var d Decision
	switch {
	case r.manual:
		r.opts.Logger.Debug("dropping geolocation result after manual toggle", "country", code, "error", err)
		d = Decision{Language: r.current, Source: SourceManual}

	case err != nil:
		r.opts.Logger.Warn("location detection failed, using primary language", "error", err)
		r.renderLocked(Primary)
		d = Decision{Language: Primary, Source: SourceFallback}

	default:
		lang := Primary
		if strings.EqualFold(code, r.opts.TargetCountry) {
			lang = Alternate
		}
		r.renderLocked(lang)
		r.persistLocked(lang)
		r.opts.Logger.Debug("language chosen by location", "country", code, "language", r.opts.Profile.Code(lang))
		d = Decision{Language: lang, Source: SourceGeolocation}
	}
	r.decision = d
	r.mu.Unlock()

	r.scheduleReady()
	return d
}

func (r *Resolver) lookup(ctx context.Context) (string, error) {
	if r.opts.Geolocator == nil {
		return "", errNoGeolocator
	}
	return r.opts.Geolocator.CountryCode(ctx)
}

// Toggle flips the rendering and persists the new explicit choice.
func (r *Resolver) Toggle() (Decision, error) {
	if !r.opts.EnableToggle {
		return Decision{}, ErrToggleDisabled
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lang := r.current.Other()
	r.manual = true
	r.renderLocked(lang)
	r.persistLocked(lang)
	r.opts.Logger.Debug("language toggled", "language", r.opts.Profile.Code(lang))
	return Decision{Language: lang, Source: SourceManual}, nil
}

// RenderDefault renders the primary language without persisting it, unless
// something has already been rendered. A later resolution still re-renders.
// It reports whether it rendered.
func (r *Resolver) RenderDefault() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rendered {
		return false
	}
	r.renderLocked(Primary)
	return true
}

// Current returns the rendered language, Primary before the first render.
func (r *Resolver) Current() Language {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// ToggleEnabled reports whether Toggle is available.
func (r *Resolver) ToggleEnabled() bool {
	return r.opts.EnableToggle
}

func (r *Resolver) persisted() (string, bool) {
	if r.opts.Prefs == nil {
		return "", false
	}
	return r.opts.Prefs.Get(store.KeyLanguage)
}

func (r *Resolver) persistLocked(lang Language) {
	if r.opts.Prefs == nil {
		return
	}
	code := r.opts.Profile.Code(lang)
	if err := r.opts.Prefs.Set(store.KeyLanguage, code); err != nil {
		r.opts.Logger.Warn("failed to persist language", "language", code, "error", err)
	}
}

// renderLocked applies a rendering. Exactly one bio block stays visible.
func (r *Resolver) renderLocked(lang Language) {
	p := r.opts.Profile
	r.current = lang
	r.rendered = true

	if e := r.doc.Element(dom.IDPrimaryName); e != nil {
		e.SetText(p.Name(lang))
	}
	if e := r.doc.Element(dom.IDAlternateName); e != nil {
		e.SetText(p.Name(lang.Other()))
	}
	r.doc.SetTitle(p.Name(lang))

	primaryBio := r.doc.Element(dom.IDPrimaryBio)
	alternateBio := r.doc.Element(dom.IDAlternateBio)
	if primaryBio != nil {
		primaryBio.SetText(p.PrimaryBio)
	}
	if alternateBio != nil {
		alternateBio.SetText(p.AlternateBio)
	}
	switch {
	case alternateBio == nil:
		if primaryBio != nil {
			primaryBio.SetStyle("display", "block")
		}
	case lang == Alternate:
		alternateBio.SetStyle("display", "block")
		if primaryBio != nil {
			primaryBio.SetStyle("display", "none")
		}
	default:
		if primaryBio != nil {
			primaryBio.SetStyle("display", "block")
		}
		alternateBio.SetStyle("display", "none")
	}

	r.doc.SetAttribute(dom.AttrLanguage, p.Code(lang))
	if e := r.doc.Element(dom.IDLangIndicator); e != nil {
		e.SetText(strings.ToUpper(p.Code(lang.Other())))
	}
}

func (r *Resolver) scheduleReady() {
	r.opts.Clock.AfterFunc(r.opts.FadeIn, func() {
		RevealName(r.doc)
		if r.opts.Ready != nil {
			r.opts.Ready.ReportContentReady()
		}
	})
}

// RevealName swaps the name display from loading to loaded.
// Returns false if it was not loading.
func RevealName(doc *dom.Document) bool {
	e := doc.Element(dom.IDNameDisplay)
	if e == nil || !e.HasClass(dom.ClassLoading) {
		return false
	}
	e.RemoveClass(dom.ClassLoading)
	e.AddClass(dom.ClassLoaded)
	return true
}
