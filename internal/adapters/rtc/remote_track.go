package rtc

import (
	"context"
	"errors"
	"io"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/dkeye/voice-quickstart/internal/metrics"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PacketReader is the RTP source of a remote track.
type PacketReader interface {
	ReadRTP() (*rtp.Packet, error)
}

type pionReader struct{ t *webrtc.TrackRemote }

func (r pionReader) ReadRTP() (*rtp.Packet, error) {
	pkt, _, err := r.t.ReadRTP()
	return pkt, err
}

// RemoteTrack is a subscribed remote track. Every Attach gets its own
// renderer; Run fans incoming packets out to all of them.
type RemoteTrack struct {
	core.Attachments
	id      domain.TrackID
	kind    domain.TrackKind
	src     PacketReader
	metrics *metrics.Metrics

	mu        sync.RWMutex
	renderers map[string]*renderer
	muted     atomic.Bool

	onEnded func()
	running sync.Once
	done    chan struct{}
}

func NewRemoteTrack(id domain.TrackID, kind domain.TrackKind, src PacketReader, m *metrics.Metrics) *RemoteTrack {
	return &RemoteTrack{
		id:        id,
		kind:      kind,
		src:       src,
		metrics:   m,
		renderers: make(map[string]*renderer),
		done:      make(chan struct{}),
	}
}

// FromPion wraps a pion remote track. The track id is the publication sid.
func FromPion(t *webrtc.TrackRemote, m *metrics.Metrics) *RemoteTrack {
	return NewRemoteTrack(domain.TrackID(t.ID()), KindOf(t.Kind()), pionReader{t: t}, m)
}

func KindOf(k webrtc.RTPCodecType) domain.TrackKind {
	switch k {
	case webrtc.RTPCodecTypeAudio:
		return domain.TrackKindAudio
	case webrtc.RTPCodecTypeVideo:
		return domain.TrackKindVideo
	default:
		return domain.TrackKindData
	}
}

func (t *RemoteTrack) ID() domain.TrackID     { return t.id }
func (t *RemoteTrack) Kind() domain.TrackKind { return t.kind }

func (t *RemoteTrack) Attach() *core.Element {
	el := core.NewElement(t.id, t.kind)
	r := newRenderer(el)
	t.mu.Lock()
	if t.muted.Load() {
		r.MarkMuted()
	}
	t.renderers[el.ID()] = r
	t.mu.Unlock()
	el.SetMeter(func() core.Rendered {
		st, _ := t.Stats(el.ID())
		return core.Rendered{Packets: st.Packets, Bytes: st.Bytes, Muted: r.State() == RenderStateMuted}
	})
	t.Add(el)
	return el
}

func (t *RemoteTrack) Detach() []*core.Element {
	els := t.Take()
	t.mu.RLock()
	for _, el := range els {
		if r, ok := t.renderers[el.ID()]; ok {
			r.MarkDelete()
		}
	}
	t.mu.RUnlock()
	return els
}

// SetMuted pauses or resumes rendering on every attached element.
// Elements attached while muted start muted.
func (t *RemoteTrack) SetMuted(muted bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	t.muted.Store(muted)
	for _, r := range t.renderers {
		if r.State() == RenderStateDelete {
			continue
		}
		if muted {
			r.MarkMuted()
		} else {
			r.MarkOk()
		}
	}
}

func (t *RemoteTrack) Stats(elementID string) (Stats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.renderers[elementID]
	if !ok {
		return Stats{}, false
	}
	return r.stats(), true
}

// OnEnded sets the callback run once the packet source is exhausted.
// Must be called before Run.
func (t *RemoteTrack) OnEnded(fn func()) { t.onEnded = fn }

func (t *RemoteTrack) Done() <-chan struct{} { return t.done }

// Run reads packets until ctx ends or the source fails. Only the first call runs.
func (t *RemoteTrack) Run(ctx context.Context) {
	t.running.Do(func() {
		logger := log.With().
			Str("module", "rtc.remote").
			Str("track", string(t.id)).
			Str("kind", string(t.kind)).
			Logger()
		t.loop(ctx, &logger)
	})
}

func (t *RemoteTrack) loop(ctx context.Context, logger *zerolog.Logger) {
	defer close(t.done)
	defer func() {
		t.markAllDelete()
		if t.onEnded != nil {
			t.onEnded()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("track ctx done")
			return
		default:
		}
		pkt, err := t.src.ReadRTP()
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Info().Msg("track ended")
			} else {
				logger.Error().Err(err).Msg("read RTP error, stopping")
			}
			return
		}
		t.forward(pkt)
	}
}

func (t *RemoteTrack) forward(pkt *rtp.Packet) {
	t.mu.RLock()
	snapshot := maps.Clone(t.renderers)
	t.mu.RUnlock()

	size := len(pkt.Payload)
	dirty := make([]string, 0, len(snapshot))
	for id, r := range snapshot {
		switch r.State() {
		case RenderStateDelete:
			dirty = append(dirty, id)
		case RenderStateMuted:
		case RenderStateOk:
			r.consume(pkt.SequenceNumber, size)
		}
	}
	t.metrics.AddPackets(string(t.kind), 1)

	// Cleanup is done outside the RLock.
	if len(dirty) > 0 {
		t.mu.Lock()
		for _, id := range dirty {
			delete(t.renderers, id)
		}
		t.mu.Unlock()
	}
}

func (t *RemoteTrack) markAllDelete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.renderers {
		r.MarkDelete()
	}
}
