package core

import (
	"context"
	"sync"

	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/rs/zerolog/log"
)

// Room is an in-memory Session that session sources drive.
// Mutating methods (AddParticipant, RemoveParticipant, MarkConnected, End)
// must run on the room's loop; readers may be called from anywhere.
type Room struct {
	name     domain.RoomName
	local    LocalParticipant
	loop     *Loop
	teardown func()

	mu           sync.RWMutex
	state        domain.SessionState
	participants map[domain.ParticipantID]*RemoteParticipant
	order        []domain.ParticipantID

	connected    Emitter[Participant]
	departed     Emitter[Participant]
	disconnected Emitter[struct{}]
}

// NewRoom creates a room in the connecting state. teardown, if set, runs on the
// loop once when the room ends, before the disconnected event.
func NewRoom(name domain.RoomName, local LocalParticipant, loop *Loop, teardown func()) *Room {
	return &Room{
		name:         name,
		local:        local,
		loop:         loop,
		teardown:     teardown,
		participants: make(map[domain.ParticipantID]*RemoteParticipant),
	}
}

func (r *Room) Room() domain.RoomName              { return r.name }
func (r *Room) LocalParticipant() LocalParticipant { return r.local }
func (r *Room) Loop() *Loop                        { return r.loop }

func (r *Room) State() domain.SessionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Room) Participants() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.participants[id])
	}
	return out
}

// Participant looks up a remote participant by identity.
func (r *Room) Participant(id domain.ParticipantID) (*RemoteParticipant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[id]
	return p, ok
}

func (r *Room) OnParticipantConnected(fn func(Participant)) *Subscription {
	return r.connected.On(fn)
}

func (r *Room) OnParticipantDisconnected(fn func(Participant)) *Subscription {
	return r.departed.On(fn)
}

func (r *Room) OnceDisconnected(fn func()) *Subscription {
	return r.disconnected.Once(func(struct{}) { fn() })
}

func (r *Room) Do(ctx context.Context, fn func()) error {
	return r.loop.Do(ctx, fn)
}

func (r *Room) Disconnect() {
	if err := r.loop.Post(r.End); err != nil {
		log.Debug().Str("module", "core.room").Str("room", string(r.name)).Msg("disconnect after loop closed")
	}
}

func (r *Room) MarkConnected() {
	r.mu.Lock()
	if r.state == domain.SessionConnecting {
		r.state = domain.SessionConnected
	}
	r.mu.Unlock()
}

// AddParticipant registers p and emits participantConnected.
// A participant already present is ignored.
func (r *Room) AddParticipant(p *RemoteParticipant) bool {
	r.mu.Lock()
	if r.state == domain.SessionDisconnected {
		r.mu.Unlock()
		return false
	}
	if _, ok := r.participants[p.Identity()]; ok {
		r.mu.Unlock()
		return false
	}
	r.participants[p.Identity()] = p
	r.order = append(r.order, p.Identity())
	r.mu.Unlock()

	log.Info().Str("module", "core.room").Str("room", string(r.name)).Str("participant", string(p.Identity())).Msg("participant connected")
	r.connected.Emit(p)
	return true
}

// RemoveParticipant unsubscribes all of the participant's tracks, forgets it
// and emits participantDisconnected.
func (r *Room) RemoveParticipant(id domain.ParticipantID) bool {
	r.mu.Lock()
	p, ok := r.participants[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.participants, id)
	for i, cur := range r.order {
		if cur == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	for _, pub := range p.remotePublications() {
		pub.Unsubscribe()
	}
	log.Info().Str("module", "core.room").Str("room", string(r.name)).Str("participant", string(id)).Msg("participant disconnected")
	r.departed.Emit(p)
	return true
}

// End moves the room to disconnected and fires the disconnected event once.
func (r *Room) End() {
	r.mu.Lock()
	if r.state == domain.SessionDisconnected {
		r.mu.Unlock()
		return
	}
	r.state = domain.SessionDisconnected
	r.mu.Unlock()

	if r.teardown != nil {
		r.teardown()
	}
	log.Info().Str("module", "core.room").Str("room", string(r.name)).Msg("disconnected")
	r.disconnected.Emit(struct{}{})
	r.loop.Close()
}

// RemoteParticipant is the in-memory Participant used by session sources.
type RemoteParticipant struct {
	id domain.ParticipantID

	mu    sync.RWMutex
	pubs  map[domain.PublicationID]*RemotePublication
	order []domain.PublicationID

	published Emitter[Publication]
}

func NewRemoteParticipant(id domain.ParticipantID) *RemoteParticipant {
	return &RemoteParticipant{
		id:   id,
		pubs: make(map[domain.PublicationID]*RemotePublication),
	}
}

func (p *RemoteParticipant) Identity() domain.ParticipantID { return p.id }

func (p *RemoteParticipant) Publications() []Publication {
	pubs := p.remotePublications()
	out := make([]Publication, 0, len(pubs))
	for _, pub := range pubs {
		out = append(out, pub)
	}
	return out
}

func (p *RemoteParticipant) remotePublications() []*RemotePublication {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*RemotePublication, 0, len(p.order))
	for _, sid := range p.order {
		out = append(out, p.pubs[sid])
	}
	return out
}

func (p *RemoteParticipant) Publication(sid domain.PublicationID) (*RemotePublication, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pub, ok := p.pubs[sid]
	return pub, ok
}

func (p *RemoteParticipant) OnTrackPublished(fn func(Publication)) *Subscription {
	return p.published.On(fn)
}

// Publish adds pub and emits trackPublished. Duplicate sids are ignored.
func (p *RemoteParticipant) Publish(pub *RemotePublication) bool {
	p.mu.Lock()
	if _, ok := p.pubs[pub.SID()]; ok {
		p.mu.Unlock()
		return false
	}
	p.pubs[pub.SID()] = pub
	p.order = append(p.order, pub.SID())
	p.mu.Unlock()

	p.published.Emit(pub)
	return true
}

// Unpublish unsubscribes and forgets the publication.
func (p *RemoteParticipant) Unpublish(sid domain.PublicationID) bool {
	p.mu.Lock()
	pub, ok := p.pubs[sid]
	if !ok {
		p.mu.Unlock()
		return false
	}
	delete(p.pubs, sid)
	for i, cur := range p.order {
		if cur == sid {
			p.order = append(p.order[:i:i], p.order[i+1:]...)
			break
		}
	}
	p.mu.Unlock()

	pub.Unsubscribe()
	return true
}

// RemotePublication is the in-memory Publication used by session sources.
type RemotePublication struct {
	sid  domain.PublicationID
	kind domain.TrackKind

	mu    sync.RWMutex
	track Track

	subscribed   Emitter[Track]
	unsubscribed Emitter[Track]
}

func NewRemotePublication(sid domain.PublicationID, kind domain.TrackKind) *RemotePublication {
	return &RemotePublication{sid: sid, kind: kind}
}

func (p *RemotePublication) SID() domain.PublicationID { return p.sid }
func (p *RemotePublication) Kind() domain.TrackKind    { return p.kind }

func (p *RemotePublication) Track() Track {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.track
}

func (p *RemotePublication) OnSubscribed(fn func(Track)) *Subscription {
	return p.subscribed.On(fn)
}

func (p *RemotePublication) OnUnsubscribed(fn func(Track)) *Subscription {
	return p.unsubscribed.On(fn)
}

// Subscribe binds t and emits subscribed. A bound track is unsubscribed first.
func (p *RemotePublication) Subscribe(t Track) {
	p.Unsubscribe()
	p.mu.Lock()
	p.track = t
	p.mu.Unlock()
	p.subscribed.Emit(t)
}

// Unsubscribe unbinds the current track and emits unsubscribed. No-op when unbound.
func (p *RemotePublication) Unsubscribe() {
	p.mu.Lock()
	t := p.track
	p.track = nil
	p.mu.Unlock()
	if t != nil {
		p.unsubscribed.Emit(t)
	}
}

// LocalMember is a plain LocalParticipant.
type LocalMember struct {
	ID     domain.ParticipantID
	Tracks []Track
}

func (m *LocalMember) Identity() domain.ParticipantID { return m.ID }
func (m *LocalMember) VideoTracks() []Track           { return m.byKind(domain.TrackKindVideo) }
func (m *LocalMember) AudioTracks() []Track           { return m.byKind(domain.TrackKindAudio) }

func (m *LocalMember) byKind(kind domain.TrackKind) []Track {
	var out []Track
	for _, t := range m.Tracks {
		if t.Kind() == kind {
			out = append(out, t)
		}
	}
	return out
}
