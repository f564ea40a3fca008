package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pomopals/pomopals/go/internal/models"
	"github.com/pomopals/pomopals/go/internal/sqlutil"
	"github.com/pomopals/pomopals/go/internal/tasks/db"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateTask(ctx context.Context, arg db.CreateTaskParams) (db.Task, error)
	GetTask(ctx context.Context, taskID int64) (db.Task, error)
	ListTasksByUser(ctx context.Context, userID int64) ([]db.Task, error)
	UpdateTask(ctx context.Context, arg db.UpdateTaskParams) (db.Task, error)
	DeleteTask(ctx context.Context, taskID int64) (int64, error)
}

// Repository implements task data access operations
type Repository struct {
	queries Querier
}

// NewRepository creates a new tasks repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// CreateTask adds a new incomplete task to a user's list.
func (r *Repository) CreateTask(ctx context.Context, userID int64, req CreateTaskRequest) (*models.Task, error) {
	task, err := r.queries.CreateTask(ctx, db.CreateTaskParams{
		UserID: userID,
		Name:   req.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return dbTaskToModel(task), nil
}

// ListTasksByUser returns all tasks belonging to a user.
func (r *Repository) ListTasksByUser(ctx context.Context, userID int64) ([]*models.Task, error) {
	dbTasks, err := r.queries.ListTasksByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*models.Task, 0, len(dbTasks))
	for _, t := range dbTasks {
		tasks = append(tasks, dbTaskToModel(t))
	}
	return tasks, nil
}

// UpdateTask applies a partial update, leaving nil fields untouched.
func (r *Repository) UpdateTask(ctx context.Context, taskID int64, req UpdateTaskRequest) (*models.Task, error) {
	task, err := r.queries.UpdateTask(ctx, db.UpdateTaskParams{
		TaskID:    taskID,
		Name:      sqlutil.ToSqlString(req.Name),
		Completed: sqlutil.ToSqlBool(req.Completed),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %d: %w", taskID, ErrTaskNotFound)
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return dbTaskToModel(task), nil
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(ctx context.Context, taskID int64) error {
	affected, err := r.queries.DeleteTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %d: %w", taskID, ErrTaskNotFound)
	}
	return nil
}

func dbTaskToModel(dbTask db.Task) *models.Task {
	task := &models.Task{
		ID:        dbTask.TaskID,
		UserID:    dbTask.UserID,
		Name:      dbTask.Name,
		Completed: dbTask.Completed,
	}
	if dbTask.CreatedAt.Valid {
		task.CreatedAt = dbTask.CreatedAt.Time
	}
	return task
}
