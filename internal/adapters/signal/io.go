package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

// writePump owns all socket writes. It exits once the send channel is closed
// and drained, closing the socket behind it.
func (c *client) writePump() {
	ws := c.conn.conn
	defer func() { _ = ws.Close() }()
	for data := range c.conn.send {
		if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
			return
		}
		if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
			return
		}
	}
	log.Info().Str("module", "signal").Msg("writePump channel closed")
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func (c *client) readPump(ctx context.Context) {
	defer func() {
		log.Info().Str("module", "signal").Str("room", string(c.room.Room())).Msg("readPump closing")
		c.room.Disconnect()
	}()

	for {
		_, data, err := c.conn.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error().Err(err).Str("module", "signal").Msg("readPump read error")
			}
			return
		}
		c.handleSignal(data)
	}
}

func (c *client) handleSignal(data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "room_state":
		log.Debug().Str("module", "signal").Msg("room_state after join ignored")
	case "member_joined":
		c.handleMemberJoined(data)
	case "member_left":
		c.handleMemberLeft(data)
	case "track_published":
		c.handleTrackPublished(data)
	case "track_unpublished":
		c.handleTrackUnpublished(data)
	case "track_muted", "track_unmuted":
		c.handleTrackMuted(data, env.Type == "track_muted")
	case "offer":
		c.handleOffer(data)
	case "answer":
		c.handleAnswer(data)
	case "candidate":
		c.handleCandidate(data)
	case "left", "kicked":
		log.Info().Str("module", "signal").Str("type", env.Type).Msg("removed from room by server")
		c.room.Disconnect()
	case "pong":
		c.handlePong()
	case "error":
		c.handleError(data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (c *client) sendJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.conn.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("sendJSON dropped")
	}
}
