package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCredential(t *testing.T) {
	cred, err := NewCredential("  alice ")
	require.NoError(t, err)
	assert.Equal(t, ParticipantID("alice"), cred.Identity)
	assert.NotEmpty(t, cred.Token)

	other, err := NewCredential("alice")
	require.NoError(t, err)
	assert.NotEqual(t, cred.Token, other.Token)

	_, err = NewCredential("   ")
	assert.ErrorIs(t, err, ErrIdentityEmpty)

	_, err = NewCredential(strings.Repeat("a", MaxIdentityLen+1))
	assert.ErrorIs(t, err, ErrIdentityTooLong)
}

func TestParseRoomName(t *testing.T) {
	name, err := ParseRoomName(" lobby ")
	require.NoError(t, err)
	assert.Equal(t, RoomName("lobby"), name)

	_, err = ParseRoomName("")
	assert.ErrorIs(t, err, ErrRoomNameEmpty)

	_, err = ParseRoomName(strings.Repeat("r", MaxRoomNameLen+1))
	assert.ErrorIs(t, err, ErrRoomNameTooLong)
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("dial refused")
	var err error = &ConnectionError{Room: "lobby", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "lobby")

	var connErr *ConnectionError
	assert.True(t, errors.As(err, &connErr))

	err = &PreconditionError{Err: ErrNoLocalVideoTrack}
	assert.ErrorIs(t, err, ErrNoLocalVideoTrack)
}

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "connecting", SessionConnecting.String())
	assert.Equal(t, "connected", SessionConnected.String())
	assert.Equal(t, "disconnected", SessionDisconnected.String())
	assert.Equal(t, TrackKindVideo, ParseTrackKind("video"))
	assert.Equal(t, TrackKindData, ParseTrackKind("screen"))
}
