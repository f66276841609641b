package app

import (
	"sync"

	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/dkeye/voice-quickstart/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Registry owns the participant watchers of one session.
// Releasing a participant severs all of its handler registrations.
type Registry struct {
	sink    core.Sink
	binder  *Binder
	metrics *metrics.Metrics

	mu       sync.RWMutex
	watchers map[domain.ParticipantID]*ParticipantWatcher
	closed   bool
}

func NewRegistry(sink core.Sink, binder *Binder, m *metrics.Metrics) *Registry {
	return &Registry{
		sink:     sink,
		binder:   binder,
		metrics:  m,
		watchers: make(map[domain.ParticipantID]*ParticipantWatcher),
	}
}

// Watch starts watching p unless it is already watched or the registry is closed.
func (r *Registry) Watch(p core.Participant) bool {
	id := p.Identity()
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	if _, ok := r.watchers[id]; ok {
		r.mu.Unlock()
		log.Warn().Str("module", "app.registry").Str("participant", string(id)).Msg("participant already watched")
		return false
	}
	r.mu.Unlock()

	w := WatchParticipant(p, r.sink, r.binder)

	r.mu.Lock()
	r.watchers[id] = w
	n := len(r.watchers)
	r.mu.Unlock()

	r.metrics.SetWatchedParticipants(n)
	log.Info().Str("module", "app.registry").Str("participant", string(id)).Int("publications", w.Watched()).Msg("watching participant")
	return true
}

// Release disposes the watchers of a departed participant.
func (r *Registry) Release(id domain.ParticipantID) bool {
	r.mu.Lock()
	w, ok := r.watchers[id]
	delete(r.watchers, id)
	n := len(r.watchers)
	r.mu.Unlock()
	if !ok {
		return false
	}
	w.Dispose()
	r.metrics.SetWatchedParticipants(n)
	log.Info().Str("module", "app.registry").Str("participant", string(id)).Msg("released participant")
	return true
}

// Close disposes every watcher. Later Watch calls are ignored.
func (r *Registry) Close() {
	r.mu.Lock()
	watchers := r.watchers
	r.watchers = make(map[domain.ParticipantID]*ParticipantWatcher)
	r.closed = true
	r.mu.Unlock()

	for _, w := range watchers {
		w.Dispose()
	}
	r.metrics.SetWatchedParticipants(0)
	log.Info().Str("module", "app.registry").Int("released", len(watchers)).Msg("registry closed")
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.watchers)
}

func (r *Registry) Watching(id domain.ParticipantID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.watchers[id]
	return ok
}
