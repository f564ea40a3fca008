package models

import "time"

// Room represents a shared pomodoro session. Rooms are identified by a
// globally unique, case-sensitive name and live forever once created.
type Room struct {
	Name         string    `json:"name"`
	OwnerID      *int64    `json:"owner_id,omitempty"` // nil for anonymous rooms
	WorkMinutes  int       `json:"work_minutes"`
	BreakMinutes int       `json:"break_minutes"`
	Running      bool      `json:"running"`
	Password     *string   `json:"password,omitempty"`
	Theme        *string   `json:"theme,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoomSettings is the mutable configuration slice of a room, as exposed
// to clients and to the settings update path.
type RoomSettings struct {
	WorkMinutes  int     `json:"work_minutes"`
	BreakMinutes int     `json:"break_minutes"`
	Password     *string `json:"password,omitempty"`
	Theme        *string `json:"theme,omitempty"`
}

// Settings returns the settings slice of the room.
func (r *Room) Settings() RoomSettings {
	return RoomSettings{
		WorkMinutes:  r.WorkMinutes,
		BreakMinutes: r.BreakMinutes,
		Password:     r.Password,
		Theme:        r.Theme,
	}
}
