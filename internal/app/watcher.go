package app

import (
	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/rs/zerolog/log"
)

// PublicationWatcher mirrors one publication's subscription state into the sink.
// All methods run on the session loop.
type PublicationWatcher struct {
	pub    core.Publication
	sink   core.Sink
	binder *Binder

	subs  core.Bag
	bound map[core.Track]struct{}
}

func WatchPublication(pub core.Publication, sink core.Sink, binder *Binder) *PublicationWatcher {
	w := &PublicationWatcher{
		pub:    pub,
		sink:   sink,
		binder: binder,
		bound:  make(map[core.Track]struct{}),
	}
	if t := pub.Track(); t != nil {
		w.attach(t)
	}
	w.subs.Add(pub.OnSubscribed(w.attach))
	w.subs.Add(pub.OnUnsubscribed(w.detach))
	return w
}

func (w *PublicationWatcher) attach(t core.Track) {
	w.binder.Attach(t, w.sink)
	w.bound[t] = struct{}{}
}

func (w *PublicationWatcher) detach(t core.Track) {
	w.binder.Detach(t)
	delete(w.bound, t)
}

// Dispose stops watching and detaches whatever is still bound.
func (w *PublicationWatcher) Dispose() {
	w.subs.Cancel()
	for t := range w.bound {
		w.detach(t)
	}
}

// ParticipantWatcher keeps a PublicationWatcher for every publication of a
// participant, present or future.
type ParticipantWatcher struct {
	participant core.Participant
	sink        core.Sink
	binder      *Binder

	subs    core.Bag
	watched map[domain.PublicationID]*PublicationWatcher
	order   []domain.PublicationID
}

func WatchParticipant(p core.Participant, sink core.Sink, binder *Binder) *ParticipantWatcher {
	w := &ParticipantWatcher{
		participant: p,
		sink:        sink,
		binder:      binder,
		watched:     make(map[domain.PublicationID]*PublicationWatcher),
	}
	for _, pub := range p.Publications() {
		w.watch(pub)
	}
	w.subs.Add(p.OnTrackPublished(w.watch))
	return w
}

func (w *ParticipantWatcher) watch(pub core.Publication) {
	if _, ok := w.watched[pub.SID()]; ok {
		log.Warn().
			Str("module", "app.watcher").
			Str("participant", string(w.participant.Identity())).
			Str("publication", string(pub.SID())).
			Msg("publication already watched")
		return
	}
	w.watched[pub.SID()] = WatchPublication(pub, w.sink, w.binder)
	w.order = append(w.order, pub.SID())
	log.Debug().
		Str("module", "app.watcher").
		Str("participant", string(w.participant.Identity())).
		Str("publication", string(pub.SID())).
		Msg("watching publication")
}

// Watched reports how many publications are being watched.
func (w *ParticipantWatcher) Watched() int { return len(w.watched) }

func (w *ParticipantWatcher) Dispose() {
	w.subs.Cancel()
	for _, sid := range w.order {
		w.watched[sid].Dispose()
	}
}
