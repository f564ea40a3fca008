package gateway

import "errors"

var (
	// ErrNotJoined is returned when a connection emits a room-scoped event
	// for a room it is not currently a member of.
	ErrNotJoined = errors.New("connection has not joined this room")

	// ErrSettingsUpdate is returned when persisting a settings change
	// fails; the in-memory phase flag is left untouched.
	ErrSettingsUpdate = errors.New("failed to persist room settings")
)
