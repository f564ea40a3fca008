package users

import "errors"

// ErrUserNotFound is returned when no user matches the given id.
var ErrUserNotFound = errors.New("user not found")

// LoginRequest carries an identity already verified by the upstream
// identity provider; this service only records it.
type LoginRequest struct {
	GoogleID       string `json:"google_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profile_picture"`
}

// UpdateReactionRequest sets the status a user shows to their room.
type UpdateReactionRequest struct {
	Reaction string `json:"reaction"`
}
