package models

import "time"

// Task is a personal todo item. Tasks belong to exactly one user and are
// unaffected by real-time room events.
type Task struct {
	ID        int64     `json:"task_id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}
