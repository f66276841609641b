package http

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
)

var (
	ErrFormBusy   = errors.New("room form already waiting")
	ErrFormClosed = errors.New("room form is not open")
)

// Selection is what the room form resolves with.
type Selection struct {
	Credential domain.Credential
	Room       domain.RoomName
}

// Form is the room selection form. Each Select opens it once and resolves
// with the first submission.
type Form struct {
	mu      sync.Mutex
	waiting chan Selection
}

func NewForm() *Form { return &Form{} }

func (f *Form) Select(ctx context.Context) (Selection, error) {
	ch := make(chan Selection, 1)
	f.mu.Lock()
	if f.waiting != nil {
		f.mu.Unlock()
		return Selection{}, ErrFormBusy
	}
	f.waiting = ch
	f.mu.Unlock()

	select {
	case s := <-ch:
		return s, nil
	case <-ctx.Done():
		f.mu.Lock()
		if f.waiting == ch {
			f.waiting = nil
		}
		f.mu.Unlock()
		// A submission may have raced the cancellation.
		select {
		case s := <-ch:
			return s, nil
		default:
		}
		return Selection{}, ctx.Err()
	}
}

// Submit resolves the pending Select.
func (f *Form) Submit(s Selection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.waiting == nil {
		return ErrFormClosed
	}
	f.waiting <- s
	f.waiting = nil
	return nil
}

func (f *Form) Open() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waiting != nil
}

// LeaveButton is the leave control of the shell.
type LeaveButton struct {
	activate core.Emitter[struct{}]
}

func NewLeaveButton() *LeaveButton { return &LeaveButton{} }

func (b *LeaveButton) OnActivate(fn func()) *core.Subscription {
	return b.activate.On(func(struct{}) { fn() })
}

// Press reports whether anyone was listening.
func (b *LeaveButton) Press() bool {
	if b.activate.Len() == 0 {
		return false
	}
	b.activate.Emit(struct{}{})
	return true
}
