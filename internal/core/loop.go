package core

import (
	"context"
	"errors"
	"sync"

	"github.com/gammazero/deque"
)

var ErrLoopClosed = errors.New("event loop closed")

// Loop runs queued functions one at a time on a single goroutine,
// in the order they were posted.
type Loop struct {
	mu     sync.Mutex
	queue  deque.Deque[func()]
	closed bool

	wake chan struct{}
	done chan struct{}
}

func NewLoop() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post queues fn. It never blocks.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.queue.PushBack(fn)
	l.mu.Unlock()
	l.notify()
	return nil
}

// Do posts fn and waits for it to run. If ctx ends first fn may still run later.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	if err := l.Post(func() {
		defer close(ran)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work. Already queued functions still run.
// Safe to call from inside the loop.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.notify()
}

// Done is closed once the loop has drained after Close.
func (l *Loop) Done() <-chan struct{} { return l.done }

func (l *Loop) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		if l.queue.Len() == 0 {
			closed := l.closed
			l.mu.Unlock()
			if closed {
				return
			}
			<-l.wake
			continue
		}
		fn := l.queue.PopFront()
		l.mu.Unlock()
		fn()
	}
}
