package rtc

import (
	"testing"
	"time"

	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalTrack_Codecs(t *testing.T) {
	cases := []struct {
		kind  domain.TrackKind
		codec string
		mime  string
	}{
		{domain.TrackKindVideo, "", webrtc.MimeTypeVP8},
		{domain.TrackKindVideo, "H264", webrtc.MimeTypeH264},
		{domain.TrackKindVideo, "vp9", webrtc.MimeTypeVP9},
		{domain.TrackKindAudio, "h264", webrtc.MimeTypeOpus},
	}
	for _, c := range cases {
		tr, err := NewLocalTrack(c.kind, c.codec, "cam", "me")
		require.NoError(t, err)
		assert.Equal(t, c.mime, tr.MimeType())
		assert.Equal(t, c.kind, tr.Kind())
		assert.Equal(t, domain.TrackID("cam"), tr.ID())
	}

	_, err := NewLocalTrack(domain.TrackKindVideo, "mjpeg", "cam", "me")
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestLocalTrack_PreviewElements(t *testing.T) {
	tr, err := NewLocalTrack(domain.TrackKindVideo, "vp8", "cam", "me")
	require.NoError(t, err)

	el := tr.Attach()
	assert.Equal(t, domain.TrackID("cam"), el.TrackID())
	assert.Equal(t, []string{el.ID()}, ids(tr.Detach()))
	assert.Empty(t, tr.Detach())

	// unbound tracks drop samples silently
	assert.NoError(t, tr.WriteSample(media.Sample{Data: []byte{1, 2, 3}, Duration: time.Millisecond * 33}))
}
