package tasks

import "errors"

// ErrTaskNotFound is returned when no task matches the given id.
var ErrTaskNotFound = errors.New("task not found")

// CreateTaskRequest adds a todo item to a user's list.
type CreateTaskRequest struct {
	Name string `json:"name"`
}

// UpdateTaskRequest renames a task or flips its completion state.
// Nil fields are left unchanged.
type UpdateTaskRequest struct {
	Name      *string `json:"name,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}
