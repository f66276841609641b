package core

import "github.com/dkeye/voice-quickstart/internal/domain"

// Track is a media stream that can be rendered once subscribed.
type Track interface {
	ID() domain.TrackID
	Kind() domain.TrackKind
	// Attach produces a new element rendering this track.
	Attach() *Element
	// Detach returns every element produced by Attach and not yet detached.
	Detach() []*Element
}

// Sink is the presentation container elements are appended to.
type Sink interface {
	Append(el *Element)
	RemoveChild(el *Element)
}
