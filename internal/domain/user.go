// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxIdentityLen = 36
	MaxRoomNameLen = 36
)

var (
	ErrIdentityTooLong = errors.New("identity too long")
	ErrIdentityEmpty   = errors.New("identity empty")
	ErrRoomNameTooLong = errors.New("room name too long")
	ErrRoomNameEmpty   = errors.New("room name empty")
)

// ParticipantID is the identity of a session member, unique within a session.
type ParticipantID string

// Credential is what the session source needs to admit the local participant.
type Credential struct {
	Identity ParticipantID `json:"identity"`
	Token    string        `json:"token"`
}

// NewCredential validates the identity and mints a client token for it.
func NewCredential(identity string) (Credential, error) {
	identity = strings.TrimSpace(identity)
	if len(identity) == 0 {
		return Credential{}, ErrIdentityEmpty
	}
	if len(identity) > MaxIdentityLen {
		return Credential{}, ErrIdentityTooLong
	}
	return Credential{
		Identity: ParticipantID(identity),
		Token:    uuid.NewString(),
	}, nil
}
