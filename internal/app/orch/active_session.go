package orch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dkeye/voice-quickstart/internal/core"
)

// ActiveSession is the caller's handle on a joined session.
type ActiveSession struct {
	session core.Session

	subs     core.Bag
	triggers core.Bag
	ended    atomic.Bool

	once sync.Once
	done chan struct{}
}

func newActiveSession(session core.Session) *ActiveSession {
	return &ActiveSession{
		session: session,
		done:    make(chan struct{}),
	}
}

func (a *ActiveSession) Session() core.Session { return a.session }

// Done is closed exactly once, after the session has disconnected and the
// local preview was detached.
func (a *ActiveSession) Done() <-chan struct{} { return a.done }

// Wait blocks until the session ends or ctx is done.
func (a *ActiveSession) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Leave asks the session to disconnect. Completion is reported through Done.
func (a *ActiveSession) Leave() {
	a.session.Disconnect()
}

// Ended reports whether the session has completed.
func (a *ActiveSession) Ended() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

func (a *ActiveSession) complete() {
	a.once.Do(func() { close(a.done) })
}
