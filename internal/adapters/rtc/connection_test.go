package rtc

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(els []*core.Element) []string {
	out := make([]string, 0, len(els))
	for _, el := range els {
		out = append(out, el.ID())
	}
	return out
}

func TestConfig_DefaultsToPublicSTUN(t *testing.T) {
	cfg := Config(nil)
	require.Len(t, cfg.ICEServers, 1)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, cfg.ICEServers[0].URLs)

	cfg = Config([]string{"stun:a", "turn:b"})
	assert.Equal(t, []string{"stun:a", "turn:b"}, cfg.ICEServers[0].URLs)
}

func TestConnection_OfferAnswer(t *testing.T) {
	client, err := NewConnection(webrtc.Configuration{}, "lobby", nil)
	require.NoError(t, err)
	defer client.Close()
	server, err := NewConnection(webrtc.Configuration{}, "lobby", nil)
	require.NoError(t, err)
	defer server.Close()

	require.NoError(t, client.Start(context.Background()))
	require.NoError(t, server.Start(context.Background()))

	cam, err := NewLocalTrack(domain.TrackKindVideo, "vp8", "cam", "me")
	require.NoError(t, err)
	_, err = client.AddLocalTrack(cam)
	require.NoError(t, err)
	require.NoError(t, client.AddRecvonly(webrtc.RTPCodecTypeAudio))

	offer, err := client.CreateOffer()
	require.NoError(t, err)
	assert.Contains(t, offer.SDP, "m=video")
	assert.Contains(t, offer.SDP, "m=audio")

	answer, err := server.ApplyOfferAndCreateAnswer(*offer)
	require.NoError(t, err)
	require.NoError(t, client.ApplyAnswer(*answer))
}

func TestConnection_ClosedFiresOnce(t *testing.T) {
	c, err := NewConnection(webrtc.Configuration{}, "lobby", nil)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	var n atomic.Int32
	c.OnClosed(func() { n.Add(1) })
	c.Close()
	c.Close()
	assert.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load())
}
