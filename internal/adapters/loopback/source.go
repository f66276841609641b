// Package loopback is an in-process session source. Remote participants are
// scripted, which makes it handy for demos without a signalling server.
package loopback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrNoRoom = errors.New("room name required")

// Peer scripts one simulated remote participant. Zero durations mean "at once";
// a zero LeaveAfter means the peer stays until the session ends.
type Peer struct {
	Identity       domain.ParticipantID
	Kinds          []domain.TrackKind
	JoinAfter      time.Duration
	SubscribeAfter time.Duration
	LeaveAfter     time.Duration
}

type Source struct {
	Peers []Peer
}

func NewSource(peers ...Peer) *Source {
	return &Source{Peers: peers}
}

func (s *Source) Establish(ctx context.Context, cred domain.Credential, opts domain.ConnectOptions) (core.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.ConnectionError{Room: opts.Room, Err: err}
	}
	if opts.Room == "" {
		return nil, &domain.ConnectionError{Err: ErrNoRoom}
	}

	local := &core.LocalMember{ID: cred.Identity}
	if opts.Video {
		local.Tracks = append(local.Tracks, NewTrack(domain.TrackID(string(cred.Identity)+"-video"), domain.TrackKindVideo))
	}
	if opts.Audio {
		local.Tracks = append(local.Tracks, NewTrack(domain.TrackID(string(cred.Identity)+"-audio"), domain.TrackKindAudio))
	}

	sched := &scheduler{}
	room := core.NewRoom(opts.Room, local, core.NewLoop(), sched.stop)
	room.MarkConnected()

	for _, p := range s.Peers {
		s.schedule(room, sched, p)
	}
	log.Info().Str("module", "loopback").Str("room", string(opts.Room)).Int("peers", len(s.Peers)).Msg("session established")
	return room, nil
}

func (s *Source) schedule(room *core.Room, sched *scheduler, p Peer) {
	participant := core.NewRemoteParticipant(p.Identity)
	pubs := make([]*core.RemotePublication, 0, len(p.Kinds))
	for i, kind := range p.Kinds {
		sid := domain.PublicationID(fmt.Sprintf("PA-%s-%d", p.Identity, i))
		pubs = append(pubs, core.NewRemotePublication(sid, kind))
	}

	sched.after(room, p.JoinAfter, func() {
		for _, pub := range pubs {
			participant.Publish(pub)
		}
		room.AddParticipant(participant)
	})
	sched.after(room, p.JoinAfter+p.SubscribeAfter, func() {
		for _, pub := range pubs {
			pub.Subscribe(NewTrack(domain.TrackID(string(pub.SID())+"-track"), pub.Kind()))
		}
	})
	if p.LeaveAfter > 0 {
		sched.after(room, p.JoinAfter+p.LeaveAfter, func() {
			room.RemoveParticipant(p.Identity)
		})
	}
}

// scheduler posts delayed work onto a room loop and cancels it on teardown.
type scheduler struct {
	mu      sync.Mutex
	timers  []*time.Timer
	stopped bool
}

func (s *scheduler) after(room *core.Room, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.timers = append(s.timers, time.AfterFunc(d, func() {
		_ = room.Loop().Post(fn)
	}))
}

func (s *scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}
