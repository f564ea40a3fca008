package models

import "time"

// Reaction is the status emoji a user currently shows to their room.
type Reaction string

const (
	ReactionReady   Reaction = "READY"
	ReactionFocused Reaction = "FOCUSED"
	ReactionBreak   Reaction = "BREAK"
)

// User represents a registered user in the system
type User struct {
	ID             int64     `json:"user_id"`
	GoogleID       string    `json:"google_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profile_picture"`
	Reaction       Reaction  `json:"reaction"`
	CreatedAt      time.Time `json:"created_at"`
}
