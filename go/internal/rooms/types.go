package rooms

import "errors"

// Default timer durations for newly created rooms, in minutes.
const (
	DefaultWorkMinutes  = 25
	DefaultBreakMinutes = 5
)

// ErrRoomNotFound is returned when an operation references a room name
// with no matching record.
var ErrRoomNotFound = errors.New("room not found")

// CreateRoomRequest represents the data needed to create a room.
// Creation is idempotent: requesting an existing name returns the
// existing room untouched.
type CreateRoomRequest struct {
	Name         string  `json:"name"`
	OwnerID      *int64  `json:"owner_id,omitempty"`
	WorkMinutes  int     `json:"work_minutes,omitempty"`
	BreakMinutes int     `json:"break_minutes,omitempty"`
	Password     *string `json:"password,omitempty"`
	Theme        *string `json:"theme,omitempty"`
}

// UpdateRoomSettingsRequest is a partial settings update; nil fields
// are left unchanged rather than reset.
type UpdateRoomSettingsRequest struct {
	WorkMinutes  *int    `json:"work_minutes,omitempty"`
	BreakMinutes *int    `json:"break_minutes,omitempty"`
	Password     *string `json:"password,omitempty"`
	Theme        *string `json:"theme,omitempty"`
}
