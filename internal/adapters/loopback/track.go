package loopback

import (
	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
)

// Track is a media-less track: it only produces elements.
type Track struct {
	core.Attachments
	id   domain.TrackID
	kind domain.TrackKind
}

func NewTrack(id domain.TrackID, kind domain.TrackKind) *Track {
	return &Track{id: id, kind: kind}
}

func (t *Track) ID() domain.TrackID     { return t.id }
func (t *Track) Kind() domain.TrackKind { return t.kind }

func (t *Track) Attach() *core.Element {
	el := core.NewElement(t.id, t.kind)
	t.Add(el)
	return el
}

func (t *Track) Detach() []*core.Element { return t.Take() }
