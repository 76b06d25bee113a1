// Package dom provides the in-memory page document that the homepage
// components mutate and the terminal view renders.
package dom

import (
	"sort"
	"sync"
)

// Element IDs of the standard homepage layout.
const (
	IDLoadingOverlay = "loading-overlay"
	IDContent        = "content"
	IDThemeToggle    = "theme-toggle"
	IDLanguageToggle = "language-toggle"
	IDLangIndicator  = "lang-indicator"
	IDNameDisplay    = "name-display"
	IDPrimaryName    = "primary-name"
	IDAlternateName  = "alternate-name"
	IDPrimaryBio     = "primary-bio"
	IDAlternateBio   = "alternate-bio"
	IDSocialLinks    = "social-links"
)

// Class names the components toggle.
const (
	ClassContainer    = "container"
	ClassLoading      = "loading"
	ClassLoaded       = "loaded"
	ClassHidden       = "hidden"
	ClassSocialLink   = "social-link"
	ClassRipple       = "ripple"
	ClassAlternateBio = "alternate-bio"
)

// Document-level attributes consumed by styling.
const (
	AttrTheme    = "data-theme"
	AttrLanguage = "data-language"
	AttrHref     = "href"
)

// Document is a tree of elements with an ID index.
// All access is serialized by a single mutex, so timer callbacks and the
// view may touch it from different goroutines.
type Document struct {
	mu          sync.RWMutex
	root        *Element
	byID        map[string]*Element
	title       string
	subscribers []chan struct{}
	closed      bool
}

// New creates an empty document with only a root element.
func New() *Document {
	d := &Document{byID: make(map[string]*Element)}
	d.root = d.newElement("")
	d.root.attached = true
	return d
}

// Root returns the document element.
func (d *Document) Root() *Element {
	return d.root
}

// CreateElement creates a detached element. It becomes addressable by ID once
// appended to an attached parent.
func (d *Document) CreateElement(id string) *Element {
	return d.newElement(id)
}

func (d *Document) newElement(id string) *Element {
	return &Element{
		doc:     d,
		id:      id,
		classes: make(map[string]bool),
		style:   make(map[string]string),
		attrs:   make(map[string]string),
	}
}

// Element returns the attached element with the given ID, or nil.
func (d *Document) Element(id string) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.byID[id]
}

// ByClass returns attached elements carrying class, in document order.
func (d *Document) ByClass(class string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*Element
	var walk func(e *Element)
	walk = func(e *Element) {
		if e.classes[class] {
			out = append(out, e)
		}
		for _, c := range e.children {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

// SetAttribute sets an attribute on the document element.
func (d *Document) SetAttribute(name, value string) {
	d.root.SetAttribute(name, value)
}

// Attribute returns a document element attribute.
func (d *Document) Attribute(name string) string {
	return d.root.Attribute(name)
}

// SetTitle sets the document title.
func (d *Document) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.title == title {
		return
	}
	d.title = title
	d.notifyLocked()
}

// Title returns the document title.
func (d *Document) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.title
}

// Subscribe returns a channel that receives a signal after mutations.
// Signals are coalesced: a slow reader sees at most one pending signal.
func (d *Document) Subscribe() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch := make(chan struct{}, 1)
	if d.closed {
		close(ch)
		return ch
	}
	d.subscribers = append(d.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (d *Document) Unsubscribe(ch <-chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, sub := range d.subscribers {
		if sub == ch {
			d.subscribers = append(d.subscribers[:i], d.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close closes all subscriber channels. Later mutations still apply.
func (d *Document) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	for _, ch := range d.subscribers {
		close(ch)
	}
	d.subscribers = nil
}

func (d *Document) notifyLocked() {
	for _, ch := range d.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (d *Document) indexLocked(e *Element) {
	e.attached = true
	if e.id != "" {
		d.byID[e.id] = e
	}
	for _, c := range e.children {
		d.indexLocked(c)
	}
}

func (d *Document) unindexLocked(e *Element) {
	e.attached = false
	if e.id != "" && d.byID[e.id] == e {
		delete(d.byID, e.id)
	}
	for _, c := range e.children {
		d.unindexLocked(c)
	}
}

// Element is a node of the document.
type Element struct {
	doc      *Document
	id       string
	classes  map[string]bool
	text     string
	style    map[string]string
	attrs    map[string]string
	parent   *Element
	children []*Element
	attached bool
}

// ID returns the element ID.
func (e *Element) ID() string {
	return e.id
}

// AddClass adds a class.
func (e *Element) AddClass(class string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.classes[class] {
		return
	}
	e.classes[class] = true
	e.doc.notifyLocked()
}

// RemoveClass removes a class.
func (e *Element) RemoveClass(class string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if !e.classes[class] {
		return
	}
	delete(e.classes, class)
	e.doc.notifyLocked()
}

// HasClass reports whether the element carries class.
func (e *Element) HasClass(class string) bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.classes[class]
}

// Classes returns the element classes, sorted.
func (e *Element) Classes() []string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	out := make([]string, 0, len(e.classes))
	for c := range e.classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SetText replaces the text content.
func (e *Element) SetText(text string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.text == text {
		return
	}
	e.text = text
	e.doc.notifyLocked()
}

// Text returns the text content.
func (e *Element) Text() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.text
}

// SetStyle sets an inline style property such as "display" or "opacity".
func (e *Element) SetStyle(property, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if cur, ok := e.style[property]; ok && cur == value {
		return
	}
	e.style[property] = value
	e.doc.notifyLocked()
}

// Style returns an inline style property, or "" when unset.
func (e *Element) Style(property string) string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.style[property]
}

// SetAttribute sets an attribute.
func (e *Element) SetAttribute(name, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if cur, ok := e.attrs[name]; ok && cur == value {
		return
	}
	e.attrs[name] = value
	e.doc.notifyLocked()
}

// Attribute returns an attribute, or "" when unset.
func (e *Element) Attribute(name string) string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.attrs[name]
}

// AppendChild moves child under e.
func (e *Element) AppendChild(child *Element) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if child.parent != nil {
		child.parent.removeChildLocked(child)
	}
	if child.attached {
		e.doc.unindexLocked(child)
	}
	child.parent = e
	e.children = append(e.children, child)
	if e.attached {
		e.doc.indexLocked(child)
	}
	e.doc.notifyLocked()
}

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// Remove detaches the element from its parent. Removing a detached element
// is a no-op.
func (e *Element) Remove() {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if e.parent == nil {
		return
	}
	e.parent.removeChildLocked(e)
	e.parent = nil
	e.doc.unindexLocked(e)
	e.doc.notifyLocked()
}

// Attached reports whether the element is reachable from the document root.
func (e *Element) Attached() bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.attached
}

func (e *Element) removeChildLocked(child *Element) {
	for i, c := range e.children {
		if c == child {
			e.children = append(e.children[:i], e.children[i+1:]...)
			return
		}
	}
}
