package domain

import (
	"errors"
	"fmt"
)

var ErrNoLocalVideoTrack = errors.New("local participant has no video track")

// ConnectionError reports that a session could not be established.
type ConnectionError struct {
	Room RoomName
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to room %q: %v", e.Room, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// PreconditionError reports a configuration mistake detected after connecting.
type PreconditionError struct {
	Err error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed: %v", e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }
