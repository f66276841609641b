package domain

import "strings"

type RoomName string

// ParseRoomName trims and validates a room name typed by the user.
func ParseRoomName(raw string) (RoomName, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return "", ErrRoomNameEmpty
	}
	if len(raw) > MaxRoomNameLen {
		return "", ErrRoomNameTooLong
	}
	return RoomName(raw), nil
}

// ConnectOptions are passed through to the session source untouched.
type ConnectOptions struct {
	Room       RoomName
	Audio      bool
	Video      bool
	VideoCodec string
	ICEServers []string
}

type SessionState int32

const (
	SessionConnecting SessionState = iota
	SessionConnected
	SessionDisconnected
)

func (s SessionState) String() string {
	switch s {
	case SessionConnecting:
		return "connecting"
	case SessionConnected:
		return "connected"
	case SessionDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
