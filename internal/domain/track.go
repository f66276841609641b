package domain

type (
	PublicationID string
	TrackID       string
)

type TrackKind string

const (
	TrackKindAudio TrackKind = "audio"
	TrackKindVideo TrackKind = "video"
	TrackKindData  TrackKind = "data"
)

// ParseTrackKind maps a wire value to a TrackKind; unknown kinds are data.
func ParseTrackKind(s string) TrackKind {
	switch s {
	case string(TrackKindAudio):
		return TrackKindAudio
	case string(TrackKindVideo):
		return TrackKindVideo
	default:
		return TrackKindData
	}
}
