package signal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkeye/voice-quickstart/internal/adapters/rtc"
	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// negotiate wires the media connection. The offer is sent by the caller once
// the pumps run.
func (c *client) negotiate(ctx context.Context, local *core.LocalMember) error {
	c.media.OnICECandidate(c.sendCandidate)
	c.media.OnTrack(c.onRemoteTrack)
	c.media.OnClosed(c.room.Disconnect)

	if err := c.media.Start(ctx); err != nil {
		return fmt.Errorf("start peer connection: %w", err)
	}
	for _, t := range local.Tracks {
		lt, ok := t.(*rtc.LocalTrack)
		if !ok {
			continue
		}
		if _, err := c.media.AddLocalTrack(lt); err != nil {
			return fmt.Errorf("add local %s track: %w", lt.Kind(), err)
		}
	}
	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		if err := c.media.AddRecvonly(kind); err != nil {
			return fmt.Errorf("add %s receiver: %w", kind, err)
		}
	}
	return nil
}

// pendingMedia is a remote track whose participant has not joined yet.
type pendingMedia struct {
	ctx   context.Context
	track *rtc.RemoteTrack
}

// onRemoteTrack matches incoming media to a publication and subscribes it.
// Media can overtake member_joined; it waits in c.pending until addMember.
func (c *client) onRemoteTrack(ctx context.Context, streamID string, track *rtc.RemoteTrack) {
	c.post(func() {
		id := domain.ParticipantID(streamID)
		p, ok := c.room.Participant(id)
		if !ok {
			log.Debug().Str("module", "signal").Str("participant", streamID).Str("track", string(track.ID())).Msg("media before member, kept pending")
			c.pending[id] = append(c.pending[id], pendingMedia{ctx: ctx, track: track})
			return
		}
		c.subscribe(ctx, p, track)
	})
}

// subscribe must run on the room loop.
func (c *client) subscribe(ctx context.Context, p *core.RemoteParticipant, track *rtc.RemoteTrack) {
	sid := domain.PublicationID(track.ID())
	pub, ok := p.Publication(sid)
	if !ok {
		pub = core.NewRemotePublication(sid, track.Kind())
		p.Publish(pub)
	}
	track.OnEnded(func() {
		c.post(func() {
			if pub.Track() == core.Track(track) {
				pub.Unsubscribe()
			}
		})
	})
	pub.Subscribe(track)
	go track.Run(ctx)
}

func (c *client) sendCandidate(ci webrtc.ICECandidateInit) {
	resp := struct {
		Type          string `json:"type"`
		Candidate     string `json:"candidate"`
		SDPMid        string `json:"sdpMid,omitempty"`
		SDPMLineIndex uint16 `json:"sdpMLineIndex,omitempty"`
	}{
		Type:      "candidate",
		Candidate: ci.Candidate,
	}
	if ci.SDPMid != nil {
		resp.SDPMid = *ci.SDPMid
	}
	if ci.SDPMLineIndex != nil {
		resp.SDPMLineIndex = *ci.SDPMLineIndex
	}
	c.sendJSON(resp)
}

type sdpPayload struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

func (c *client) handleAnswer(data []byte) {
	var p sdpPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad answer payload")
		return
	}
	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: p.SDP}
	if err := c.media.ApplyAnswer(answer); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("webrtc apply answer")
	}
}

// handleOffer answers a renegotiation started by the server.
func (c *client) handleOffer(data []byte) {
	var p sdpPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad offer payload")
		return
	}
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: p.SDP}
	answer, err := c.media.ApplyOfferAndCreateAnswer(offer)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("webrtc apply offer")
		return
	}
	c.sendJSON(map[string]string{
		"type": "answer",
		"sdp":  answer.SDP,
	})
}

func (c *client) handleCandidate(data []byte) {
	type candidatePayload struct {
		Type          string `json:"type"`
		Candidate     string `json:"candidate"`
		SDPMid        string `json:"sdpMid"`
		SDPMLineIndex uint16 `json:"sdpMLineIndex"`
	}
	var p candidatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		return
	}

	cand := webrtc.ICECandidateInit{
		Candidate: p.Candidate,
	}
	if p.SDPMid != "" {
		cand.SDPMid = &p.SDPMid
	}
	cand.SDPMLineIndex = &p.SDPMLineIndex

	if err := c.media.AddICECandidate(cand); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("add ice candidate")
	}
}
