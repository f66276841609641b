package signal

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

func (c *client) pingLoop(ctx context.Context) {
	if c.ping <= 0 {
		return
	}
	t := time.NewTicker(c.ping)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.sendJSON(map[string]string{"type": "ping"})
		}
	}
}

func (c *client) handlePong() {
	c.lastPong.Store(time.Now().UnixNano())
	log.Debug().Str("module", "signal").Str("room", string(c.room.Room())).Msg("pong")
}
