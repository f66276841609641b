package testutil

import (
	"sync"

	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
)

// FakeTrack is a Track that counts Attach and Detach calls.
type FakeTrack struct {
	core.Attachments
	id   domain.TrackID
	kind domain.TrackKind

	mu      sync.Mutex
	attachN int
	detachN int
}

func NewFakeTrack(id string, kind domain.TrackKind) *FakeTrack {
	return &FakeTrack{id: domain.TrackID(id), kind: kind}
}

func (t *FakeTrack) ID() domain.TrackID     { return t.id }
func (t *FakeTrack) Kind() domain.TrackKind { return t.kind }

func (t *FakeTrack) Attach() *core.Element {
	t.mu.Lock()
	t.attachN++
	t.mu.Unlock()
	el := core.NewElement(t.id, t.kind)
	t.Add(el)
	return el
}

func (t *FakeTrack) Detach() []*core.Element {
	t.mu.Lock()
	t.detachN++
	t.mu.Unlock()
	return t.Take()
}

func (t *FakeTrack) AttachCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attachN
}

func (t *FakeTrack) DetachCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.detachN
}

// RecordingSink is a Sink that keeps mounted elements in order and counts calls.
type RecordingSink struct {
	mu       sync.Mutex
	mounted  []*core.Element
	appends  int
	removals int
}

func NewRecordingSink() *RecordingSink { return &RecordingSink{} }

func (s *RecordingSink) Append(el *core.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends++
	s.mounted = append(s.mounted, el)
}

func (s *RecordingSink) RemoveChild(el *core.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removals++
	for i, cur := range s.mounted {
		if cur == el {
			s.mounted = append(s.mounted[:i:i], s.mounted[i+1:]...)
			return
		}
	}
}

func (s *RecordingSink) Appends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appends
}

func (s *RecordingSink) Removals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removals
}

func (s *RecordingSink) Mounted() []*core.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.Element, len(s.mounted))
	copy(out, s.mounted)
	return out
}

func (s *RecordingSink) Contains(id domain.TrackID) bool {
	for _, el := range s.Mounted() {
		if el.TrackID() == id {
			return true
		}
	}
	return false
}

// LeaveButton is a LeaveControl the test presses by hand.
type LeaveButton struct {
	activate core.Emitter[struct{}]
}

func (b *LeaveButton) OnActivate(fn func()) *core.Subscription {
	return b.activate.On(func(struct{}) { fn() })
}

func (b *LeaveButton) Press()        { b.activate.Emit(struct{}{}) }
func (b *LeaveButton) Handlers() int { return b.activate.Len() }

// Trigger is an app.Trigger fired by hand.
type Trigger struct {
	name string
	fire core.Emitter[struct{}]
}

func NewTrigger(name string) *Trigger { return &Trigger{name: name} }

func (t *Trigger) Name() string { return t.name }

func (t *Trigger) Watch(fn func()) *core.Subscription {
	return t.fire.Once(func(struct{}) { fn() })
}

func (t *Trigger) Fire()         { t.fire.Emit(struct{}{}) }
func (t *Trigger) Watchers() int { return t.fire.Len() }
