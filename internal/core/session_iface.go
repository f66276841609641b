package core

import (
	"context"

	"github.com/dkeye/voice-quickstart/internal/domain"
)

// SessionSource establishes sessions. It is the media/signalling engine seen
// from the orchestrator: everything below it is opaque.
type SessionSource interface {
	Establish(ctx context.Context, cred domain.Credential, opts domain.ConnectOptions) (Session, error)
}

// Session is one active membership of a room.
// Events are delivered on the session's event loop, one at a time.
type Session interface {
	Room() domain.RoomName
	State() domain.SessionState
	LocalParticipant() LocalParticipant
	// Participants returns the remote participants present right now, in join order.
	Participants() []Participant

	OnParticipantConnected(func(Participant)) *Subscription
	OnParticipantDisconnected(func(Participant)) *Subscription
	// OnceDisconnected fires at most once per session.
	OnceDisconnected(func()) *Subscription

	// Disconnect ends the session. Safe to call from any goroutine, any number of times.
	Disconnect()
	// Do runs fn on the session's event loop and waits until it returns.
	// It must not be called from the loop itself.
	Do(ctx context.Context, fn func()) error
}

type LocalParticipant interface {
	Identity() domain.ParticipantID
	VideoTracks() []Track
	AudioTracks() []Track
}
