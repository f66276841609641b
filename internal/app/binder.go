package app

import (
	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Binder is the only component that mounts or unmounts elements.
type Binder struct {
	Metrics *metrics.Metrics
}

func NewBinder(m *metrics.Metrics) *Binder {
	return &Binder{Metrics: m}
}

// Attach renders track into sink at full width. Call once per subscribe event.
func (b *Binder) Attach(track core.Track, sink core.Sink) *core.Element {
	el := track.Attach()
	el.SetWidth(core.FullWidth)
	el.AppendTo(sink)
	b.Metrics.IncAttach(string(track.Kind()))
	log.Debug().
		Str("module", "app.binder").
		Str("track", string(track.ID())).
		Str("element", el.ID()).
		Msg("attached")
	return el
}

// Detach removes every element track has produced. Returns how many were removed.
func (b *Binder) Detach(track core.Track) int {
	els := track.Detach()
	for _, el := range els {
		el.Remove()
	}
	b.Metrics.AddDetach(string(track.Kind()), len(els))
	log.Debug().
		Str("module", "app.binder").
		Str("track", string(track.ID())).
		Int("elements", len(els)).
		Msg("detached")
	return len(els)
}
