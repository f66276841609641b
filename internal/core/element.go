package core

import (
	"sync"

	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/lucsky/cuid"
)

// FullWidth is the presentation width the binder gives every element.
const FullWidth = "100%"

// Element is a renderable unit produced from a track.
// It remembers the sink it was appended to so it can remove itself.
type Element struct {
	id      string
	trackID domain.TrackID
	kind    domain.TrackKind

	mu     sync.Mutex
	width  string
	parent Sink
	meter  func() Rendered
}

// Rendered is what an element has played out so far.
type Rendered struct {
	Packets uint64 `json:"packets"`
	Bytes   uint64 `json:"bytes"`
	Muted   bool   `json:"muted"`
}

func NewElement(trackID domain.TrackID, kind domain.TrackKind) *Element {
	return &Element{
		id:      "el_" + cuid.New(),
		trackID: trackID,
		kind:    kind,
	}
}

func (e *Element) ID() string              { return e.id }
func (e *Element) TrackID() domain.TrackID { return e.trackID }
func (e *Element) Kind() domain.TrackKind  { return e.kind }

func (e *Element) Width() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.width
}

func (e *Element) SetWidth(w string) {
	e.mu.Lock()
	e.width = w
	e.mu.Unlock()
}

// SetMeter installs the function reporting what the element rendered.
func (e *Element) SetMeter(fn func() Rendered) {
	e.mu.Lock()
	e.meter = fn
	e.mu.Unlock()
}

// Rendered is false for elements without a meter, e.g. local previews.
func (e *Element) Rendered() (Rendered, bool) {
	e.mu.Lock()
	fn := e.meter
	e.mu.Unlock()
	if fn == nil {
		return Rendered{}, false
	}
	return fn(), true
}

// Mounted reports whether the element currently sits in a sink.
func (e *Element) Mounted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parent != nil
}

// AppendTo mounts the element into s.
func (e *Element) AppendTo(s Sink) {
	e.mu.Lock()
	e.parent = s
	e.mu.Unlock()
	s.Append(e)
}

// Remove unmounts the element from wherever it is. No-op when not mounted.
func (e *Element) Remove() {
	e.mu.Lock()
	p := e.parent
	e.parent = nil
	e.mu.Unlock()
	if p != nil {
		p.RemoveChild(e)
	}
}

// Attachments keeps the elements a track produced and has not detached yet.
// Track implementations embed it.
type Attachments struct {
	mu  sync.Mutex
	els []*Element
}

func (a *Attachments) Add(el *Element) {
	a.mu.Lock()
	a.els = append(a.els, el)
	a.mu.Unlock()
}

// Take returns the attached elements and forgets them.
func (a *Attachments) Take() []*Element {
	a.mu.Lock()
	defer a.mu.Unlock()
	els := a.els
	a.els = nil
	return els
}

func (a *Attachments) Snapshot() []*Element {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Element, len(a.els))
	copy(out, a.els)
	return out
}

func (a *Attachments) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.els)
}
