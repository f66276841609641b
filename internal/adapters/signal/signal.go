// Package signal is a session source speaking the JSON-over-websocket
// signalling protocol of the voice server.
package signal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/voice-quickstart/internal/adapters/rtc"
	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/dkeye/voice-quickstart/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
	ErrJoinRejected = errors.New("join rejected")
)

// MediaConnection is the PeerConnection negotiated for one session.
type MediaConnection interface {
	Start(ctx context.Context) error
	AddLocalTrack(t *rtc.LocalTrack) (*webrtc.RTPSender, error)
	AddRecvonly(kind webrtc.RTPCodecType) error
	CreateOffer() (*webrtc.SessionDescription, error)
	ApplyAnswer(answer webrtc.SessionDescription) error
	ApplyOfferAndCreateAnswer(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error)
	AddICECandidate(ci webrtc.ICECandidateInit) error
	OnICECandidate(fn func(webrtc.ICECandidateInit))
	OnTrack(fn func(ctx context.Context, streamID string, track *rtc.RemoteTrack))
	OnClosed(fn func())
	Close()
}

type Source struct {
	URL         string
	Dialer      *websocket.Dialer
	PingPeriod  time.Duration
	ReadLimit   int64
	JoinTimeout time.Duration
	Metrics     *metrics.Metrics
	NewMedia    func(cfg webrtc.Configuration, room string) (MediaConnection, error)
}

func NewSource(url string, m *metrics.Metrics) *Source {
	return &Source{
		URL:         url,
		Dialer:      websocket.DefaultDialer,
		PingPeriod:  20 * time.Second,
		ReadLimit:   1 << 20,
		JoinTimeout: 10 * time.Second,
		Metrics:     m,
	}
}

func (s *Source) newMedia(cfg webrtc.Configuration, room string) (MediaConnection, error) {
	if s.NewMedia != nil {
		return s.NewMedia(cfg, room)
	}
	return rtc.NewConnection(cfg, room, s.Metrics)
}

// Establish dials the server, joins the room and negotiates media.
// The returned session is connected; ctx only bounds the handshake.
func (s *Source) Establish(ctx context.Context, cred domain.Credential, opts domain.ConnectOptions) (core.Session, error) {
	fail := func(err error) (core.Session, error) {
		return nil, &domain.ConnectionError{Room: opts.Room, Err: err}
	}

	header := http.Header{}
	header.Add("Cookie", (&http.Cookie{Name: "ct", Value: cred.Token}).String())
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, _, err := dialer.DialContext(ctx, s.URL, header)
	if err != nil {
		return fail(fmt.Errorf("dial %s: %w", s.URL, err))
	}
	if s.ReadLimit > 0 {
		ws.SetReadLimit(s.ReadLimit)
	}

	state, err := s.handshake(ctx, ws, cred, opts)
	if err != nil {
		_ = ws.Close()
		return fail(err)
	}

	local, err := localTracks(cred, opts)
	if err != nil {
		_ = ws.Close()
		return fail(err)
	}

	media, err := s.newMedia(rtc.Config(opts.ICEServers), string(opts.Room))
	if err != nil {
		_ = ws.Close()
		return fail(fmt.Errorf("new peer connection: %w", err))
	}

	sessCtx, cancel := context.WithCancel(context.Background())
	c := &client{
		self:    cred,
		conn:    &wsConn{conn: ws, send: make(chan []byte, 32)},
		media:   media,
		cancel:  cancel,
		ping:    s.PingPeriod,
		pending: make(map[domain.ParticipantID][]pendingMedia),
	}
	room := core.NewRoom(opts.Room, local, core.NewLoop(), c.teardown)
	c.room = room
	// The pumps are not running yet, so the socket is closed here directly.
	abort := func(err error) (core.Session, error) {
		_ = ws.Close()
		room.Disconnect()
		return fail(err)
	}

	if err := c.negotiate(sessCtx, local); err != nil {
		return abort(err)
	}
	if err := room.Do(ctx, func() {
		for _, m := range state.Members {
			c.addMember(m)
		}
	}); err != nil {
		return abort(err)
	}

	go c.writePump()
	go c.readPump(sessCtx)
	go c.pingLoop(sessCtx)

	offer, err := media.CreateOffer()
	if err != nil {
		room.Disconnect()
		return fail(fmt.Errorf("create offer: %w", err))
	}
	c.sendJSON(map[string]string{
		"type": "offer",
		"sdp":  offer.SDP,
	})

	room.MarkConnected()
	log.Info().Str("module", "signal").Str("room", string(opts.Room)).Str("participant", string(cred.Identity)).Int("members", len(state.Members)).Msg("joined")
	return room, nil
}

func localTracks(cred domain.Credential, opts domain.ConnectOptions) (*core.LocalMember, error) {
	local := &core.LocalMember{ID: cred.Identity}
	if opts.Video {
		t, err := rtc.NewLocalTrack(domain.TrackKindVideo, opts.VideoCodec, "camera", string(cred.Identity))
		if err != nil {
			return nil, err
		}
		local.Tracks = append(local.Tracks, t)
	}
	if opts.Audio {
		t, err := rtc.NewLocalTrack(domain.TrackKindAudio, "", "microphone", string(cred.Identity))
		if err != nil {
			return nil, err
		}
		local.Tracks = append(local.Tracks, t)
	}
	return local, nil
}

// wsConn serialises writes through the write pump.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

// Close stops accepting frames; the write pump flushes what is queued
// and then closes the socket.
func (c *wsConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// client is the per-session state of one signalling connection.
type client struct {
	self   domain.Credential
	room   *core.Room
	conn   *wsConn
	media  MediaConnection
	cancel context.CancelFunc
	ping   time.Duration

	// pending is only touched on the room loop.
	pending map[domain.ParticipantID][]pendingMedia

	lastPong atomic.Int64
}

func (c *client) shutdown() {
	c.conn.Close()
	c.media.Close()
	c.cancel()
}

// teardown runs on the room loop when the session ends.
func (c *client) teardown() {
	c.sendJSON(map[string]string{"type": "leave"})
	c.shutdown()
}
