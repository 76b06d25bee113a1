// Package loading decides when the loading overlay is dismissed.
//
// The coordinator reconciles three inputs: a minimum display duration, a
// content-ready report from the locale resolver, and a fallback deadline.
// The first readiness report (real or fallback) wins; dismissal runs exactly
// once and never before the minimum duration has elapsed since Start.
package loading

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/homepage/internal/clock"
	"github.com/jmylchreest/homepage/internal/dom"
)

// DefaultDetachGrace matches the overlay hide transition.
const DefaultDetachGrace = 600 * time.Millisecond

// State is the overlay lifecycle state.
type State int

const (
	StatePending State = iota
	StateContentReady
	StateDismissed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateContentReady:
		return "content-ready"
	case StateDismissed:
		return "dismissed"
	default:
		return "unknown"
	}
}

// Options configures a Coordinator.
type Options struct {
	Clock       clock.Clock
	Logger      *slog.Logger
	DetachGrace time.Duration

	// OnFallback runs once, before dismissal is scheduled, when the fallback
	// deadline fires ahead of a real report.
	OnFallback func()
}

// Coordinator owns the page's ready transition.
type Coordinator struct {
	mu     sync.Mutex
	doc    *dom.Document
	clock  clock.Clock
	logger *slog.Logger

	detachGrace time.Duration
	onFallback  func()

	started       bool
	startTime     time.Time
	minDuration   time.Duration
	fallbackTimer clock.Timer
	state         State
	readySource   string

	dismissed chan struct{}
	detached  chan struct{}
}

// New creates a coordinator for doc.
func New(doc *dom.Document, opts Options) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DetachGrace <= 0 {
		opts.DetachGrace = DefaultDetachGrace
	}

	return &Coordinator{
		doc:         doc,
		clock:       opts.Clock,
		logger:      opts.Logger,
		detachGrace: opts.DetachGrace,
		onFallback:  opts.OnFallback,
		dismissed:   make(chan struct{}),
		detached:    make(chan struct{}),
	}
}

// Start records the start time and arms the fallback deadline.
// Calling Start more than once has no effect.
func (c *Coordinator) Start(minDuration, fallback time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return
	}
	c.started = true
	c.startTime = c.clock.Now()
	c.minDuration = minDuration

	if c.state == StateContentReady {
		// Readiness was reported before Start; honour it now.
		c.scheduleDismissLocked()
		return
	}

	c.fallbackTimer = c.clock.AfterFunc(fallback, c.fallbackFired)
	c.logger.Debug("loading started", "min_duration", minDuration, "fallback", fallback)
}

// ReportContentReady signals that locale-dependent content is rendered.
// Only the first report has an effect.
func (c *Coordinator) ReportContentReady() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePending {
		return
	}
	c.state = StateContentReady
	c.readySource = "content"

	if !c.started {
		return
	}
	if c.fallbackTimer != nil {
		c.fallbackTimer.Stop()
	}
	c.scheduleDismissLocked()
}

func (c *Coordinator) fallbackFired() {
	c.mu.Lock()
	if c.state != StatePending {
		c.mu.Unlock()
		return
	}
	c.state = StateContentReady
	c.readySource = "fallback"
	hook := c.onFallback
	c.mu.Unlock()

	c.logger.Warn("content not ready before fallback deadline, dismissing overlay anyway")
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	c.scheduleDismissLocked()
	c.mu.Unlock()
}

func (c *Coordinator) scheduleDismissLocked() {
	elapsed := c.clock.Now().Sub(c.startTime)
	remaining := c.minDuration - elapsed
	if remaining < 0 {
		remaining = 0
	}
	c.logger.Debug("content ready", "source", c.readySource, "elapsed", elapsed, "dismiss_in", remaining)
	c.clock.AfterFunc(remaining, c.dismiss)
}

func (c *Coordinator) dismiss() {
	c.mu.Lock()
	if c.state == StateDismissed {
		c.mu.Unlock()
		return
	}
	c.state = StateDismissed
	c.mu.Unlock()

	overlay := c.doc.Element(dom.IDLoadingOverlay)
	if overlay != nil {
		overlay.AddClass(dom.ClassHidden)
	}
	if content := c.doc.Element(dom.IDContent); content != nil {
		content.AddClass(dom.ClassLoaded)
	}
	RevealSocialLinks(c.doc)
	close(c.dismissed)

	c.logger.Debug("overlay dismissed", "source", c.readySource)

	c.clock.AfterFunc(c.detachGrace, func() {
		if overlay != nil {
			overlay.Remove()
		}
		close(c.detached)
	})
}

// RevealSocialLinks forces every social link to full opacity.
func RevealSocialLinks(doc *dom.Document) {
	for _, link := range doc.ByClass(dom.ClassSocialLink) {
		link.SetStyle("opacity", "1")
	}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsDismissed reports whether the dismissal sequence has run.
func (c *Coordinator) IsDismissed() bool {
	return c.State() == StateDismissed
}

// Dismissed is closed when the overlay is hidden.
func (c *Coordinator) Dismissed() <-chan struct{} {
	return c.dismissed
}

// Detached is closed when the overlay has been removed from the document.
func (c *Coordinator) Detached() <-chan struct{} {
	return c.detached
}
