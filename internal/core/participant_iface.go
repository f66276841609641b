package core

import "github.com/dkeye/voice-quickstart/internal/domain"

// Participant is a remote member of a session. Read/observe only.
type Participant interface {
	Identity() domain.ParticipantID
	// Publications is a snapshot of the current publications, in publish order.
	Publications() []Publication
	OnTrackPublished(func(Publication)) *Subscription
}

// Publication advertises a track. Track is nil while unsubscribed.
type Publication interface {
	SID() domain.PublicationID
	Kind() domain.TrackKind
	Track() Track
	OnSubscribed(func(Track)) *Subscription
	OnUnsubscribed(func(Track)) *Subscription
}
