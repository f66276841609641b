package rtc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

// LocalTrack is a captured track sent to the room and previewed locally.
type LocalTrack struct {
	core.Attachments
	kind  domain.TrackKind
	local *webrtc.TrackLocalStaticSample
}

var ErrUnknownCodec = errors.New("unknown codec")

func mimeFor(kind domain.TrackKind, codec string) (string, error) {
	if kind == domain.TrackKindAudio {
		return webrtc.MimeTypeOpus, nil
	}
	switch strings.ToLower(codec) {
	case "", "vp8":
		return webrtc.MimeTypeVP8, nil
	case "vp9":
		return webrtc.MimeTypeVP9, nil
	case "h264":
		return webrtc.MimeTypeH264, nil
	case "av1":
		return webrtc.MimeTypeAV1, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCodec, codec)
	}
}

// NewLocalTrack creates a sample track; streamID is the publishing participant.
func NewLocalTrack(kind domain.TrackKind, codec string, id, streamID string) (*LocalTrack, error) {
	mime, err := mimeFor(kind, codec)
	if err != nil {
		return nil, err
	}
	t, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: mime}, id, streamID)
	if err != nil {
		return nil, err
	}
	return &LocalTrack{kind: kind, local: t}, nil
}

func (t *LocalTrack) ID() domain.TrackID     { return domain.TrackID(t.local.ID()) }
func (t *LocalTrack) Kind() domain.TrackKind { return t.kind }
func (t *LocalTrack) MimeType() string       { return t.local.Codec().MimeType }

func (t *LocalTrack) Attach() *core.Element {
	el := core.NewElement(t.ID(), t.kind)
	t.Add(el)
	return el
}

func (t *LocalTrack) Detach() []*core.Element { return t.Take() }

// WriteSample sends one encoded sample to every bound peer connection.
func (t *LocalTrack) WriteSample(s media.Sample) error {
	return t.local.WriteSample(s)
}
