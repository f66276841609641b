package core

import "sync"

// Subscription is a handler registration. Cancel is idempotent and nil-safe.
type Subscription struct {
	once   sync.Once
	cancel func()
}

func NewSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// Bag owns a group of subscriptions and cancels them together.
// Subscriptions added after Cancel are cancelled immediately.
type Bag struct {
	mu       sync.Mutex
	subs     []*Subscription
	canceled bool
}

func (b *Bag) Add(s *Subscription) {
	b.mu.Lock()
	if b.canceled {
		b.mu.Unlock()
		s.Cancel()
		return
	}
	b.subs = append(b.subs, s)
	b.mu.Unlock()
}

func (b *Bag) Cancel() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.canceled = true
	b.mu.Unlock()
	for _, s := range subs {
		s.Cancel()
	}
}

func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

type handler[T any] struct {
	fn     func(T)
	once   bool
	active bool
}

// Emitter delivers values of one event type to registered handlers, in
// registration order. Handlers cancelled during an Emit are not called.
type Emitter[T any] struct {
	mu       sync.Mutex
	handlers []*handler[T]
}

func (e *Emitter[T]) On(fn func(T)) *Subscription {
	return e.add(fn, false)
}

func (e *Emitter[T]) Once(fn func(T)) *Subscription {
	return e.add(fn, true)
}

func (e *Emitter[T]) add(fn func(T), once bool) *Subscription {
	h := &handler[T]{fn: fn, once: once, active: true}
	e.mu.Lock()
	e.handlers = append(e.handlers, h)
	e.mu.Unlock()
	return NewSubscription(func() { e.remove(h) })
}

func (e *Emitter[T]) remove(h *handler[T]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h.active = false
	e.removeLocked(h)
}

func (e *Emitter[T]) Emit(v T) {
	e.mu.Lock()
	snapshot := make([]*handler[T], len(e.handlers))
	copy(snapshot, e.handlers)
	e.mu.Unlock()

	for _, h := range snapshot {
		e.mu.Lock()
		if !h.active {
			e.mu.Unlock()
			continue
		}
		if h.once {
			h.active = false
			e.removeLocked(h)
		}
		e.mu.Unlock()
		h.fn(v)
	}
}

func (e *Emitter[T]) removeLocked(h *handler[T]) {
	for i, cur := range e.handlers {
		if cur == h {
			e.handlers = append(e.handlers[:i:i], e.handlers[i+1:]...)
			return
		}
	}
}

// Len reports the number of registered handlers.
func (e *Emitter[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}
