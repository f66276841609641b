package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type trackDTO struct {
	SID  string `json:"sid"`
	Kind string `json:"kind"`
}

type memberDTO struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Tracks   []trackDTO `json:"tracks,omitempty"`
}

// identity is the participant id the server uses as media stream id.
func (m memberDTO) identity() domain.ParticipantID {
	if m.Username != "" {
		return domain.ParticipantID(m.Username)
	}
	return domain.ParticipantID(m.ID)
}

type roomState struct {
	Type    string      `json:"type"`
	Room    string      `json:"room"`
	Members []memberDTO `json:"members"`
}

// handshake sends join and waits for room_state. It runs before the pumps
// start, so it reads and writes the socket directly.
func (s *Source) handshake(ctx context.Context, ws *websocket.Conn, cred domain.Credential, opts domain.ConnectOptions) (*roomState, error) {
	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	if s.JoinTimeout > 0 {
		_ = ws.SetReadDeadline(time.Now().Add(s.JoinTimeout))
		defer func() { _ = ws.SetReadDeadline(time.Time{}) }()
	}

	join := struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Name string `json:"name,omitempty"`
	}{
		Type: "join",
		Room: string(opts.Room),
		Name: string(cred.Identity),
	}
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteJSON(join); err != nil {
		return nil, ctxOr(ctx, fmt.Errorf("send join: %w", err))
	}
	_ = ws.SetWriteDeadline(time.Time{})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return nil, ctxOr(ctx, fmt.Errorf("await room_state: %w", err))
		}
		var env struct {
			Type  string `json:"type"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			log.Error().Err(err).Str("module", "signal").Msg("bad json")
			continue
		}
		switch env.Type {
		case "room_state":
			var st roomState
			if err := json.Unmarshal(data, &st); err != nil {
				return nil, fmt.Errorf("bad room_state payload: %w", err)
			}
			return &st, nil
		case "error":
			return nil, fmt.Errorf("%w: %s", ErrJoinRejected, env.Error)
		default:
			log.Debug().Str("module", "signal").Str("type", env.Type).Msg("skipped before room_state")
		}
	}
}

func ctxOr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// addMember must run on the room loop.
func (c *client) addMember(m memberDTO) {
	id := m.identity()
	if id == c.self.Identity || (m.ID != "" && m.ID == c.self.Token) {
		return
	}
	p := core.NewRemoteParticipant(id)
	for _, t := range m.Tracks {
		p.Publish(core.NewRemotePublication(domain.PublicationID(t.SID), domain.ParseTrackKind(t.Kind)))
	}
	if !c.room.AddParticipant(p) {
		log.Warn().Str("module", "signal").Str("participant", string(id)).Msg("member already present")
		return
	}
	for _, m := range c.pending[id] {
		c.subscribe(m.ctx, p, m.track)
	}
	delete(c.pending, id)
}

func (c *client) handleMemberJoined(data []byte) {
	var p struct {
		Type string    `json:"type"`
		User memberDTO `json:"user"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad member_joined payload")
		return
	}
	c.post(func() { c.addMember(p.User) })
}

func (c *client) handleMemberLeft(data []byte) {
	var p struct {
		Type string    `json:"type"`
		User memberDTO `json:"user"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad member_left payload")
		return
	}
	id := p.User.identity()
	c.post(func() {
		delete(c.pending, id)
		c.room.RemoveParticipant(id)
	})
}

func (c *client) handleError(data []byte) {
	var p struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad error payload")
		return
	}
	log.Warn().Str("module", "signal").Str("error", p.Error).Msg("server error")
}

// post runs fn on the room loop; events after the session ended are dropped.
func (c *client) post(fn func()) {
	if err := c.room.Loop().Post(fn); err != nil {
		log.Debug().Str("module", "signal").Msg("event after session end dropped")
	}
}
