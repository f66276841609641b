package signal

import (
	"encoding/json"

	"github.com/dkeye/voice-quickstart/internal/adapters/rtc"
	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/rs/zerolog/log"
)

type trackPayload struct {
	Type        string   `json:"type"`
	Participant string   `json:"participant"`
	Track       trackDTO `json:"track"`
}

func (c *client) handleTrackPublished(data []byte) {
	var p trackPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad track_published payload")
		return
	}
	c.post(func() {
		rp, ok := c.room.Participant(domain.ParticipantID(p.Participant))
		if !ok {
			log.Warn().Str("module", "signal").Str("participant", p.Participant).Msg("track_published: unknown participant")
			return
		}
		pub := core.NewRemotePublication(domain.PublicationID(p.Track.SID), domain.ParseTrackKind(p.Track.Kind))
		if !rp.Publish(pub) {
			log.Warn().Str("module", "signal").Str("publication", p.Track.SID).Msg("track_published: duplicate sid")
		}
	})
}

func (c *client) handleTrackUnpublished(data []byte) {
	var p trackPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad track_unpublished payload")
		return
	}
	c.post(func() {
		rp, ok := c.room.Participant(domain.ParticipantID(p.Participant))
		if !ok {
			return
		}
		rp.Unpublish(domain.PublicationID(p.Track.SID))
	})
}

// handleTrackMuted pauses or resumes rendering of a subscribed track.
// Mutes for tracks that have no media yet are ignored.
func (c *client) handleTrackMuted(data []byte, muted bool) {
	var p trackPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad track mute payload")
		return
	}
	c.post(func() {
		rp, ok := c.room.Participant(domain.ParticipantID(p.Participant))
		if !ok {
			return
		}
		pub, ok := rp.Publication(domain.PublicationID(p.Track.SID))
		if !ok {
			return
		}
		rt, ok := pub.Track().(*rtc.RemoteTrack)
		if !ok {
			log.Debug().Str("module", "signal").Str("publication", p.Track.SID).Msg("mute for unsubscribed track")
			return
		}
		rt.SetMuted(muted)
		log.Debug().Str("module", "signal").Str("publication", p.Track.SID).Bool("muted", muted).Msg("track mute changed")
	})
}
