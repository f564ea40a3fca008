package db

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql the queries run against.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// Task mirrors the tasks table.
type Task struct {
	TaskID    int64
	UserID    int64
	Name      string
	Completed bool
	CreatedAt sql.NullTime
}

const taskColumns = `taskid, userid, name, completed, createdat`

func scanTask(row *sql.Row) (Task, error) {
	var t Task
	err := row.Scan(
		&t.TaskID,
		&t.UserID,
		&t.Name,
		&t.Completed,
		&t.CreatedAt,
	)
	return t, err
}

type CreateTaskParams struct {
	UserID int64
	Name   string
}

const createTask = `INSERT INTO tasks (userid, name, completed)
VALUES ($1, $2, false)
RETURNING ` + taskColumns

func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (Task, error) {
	return scanTask(q.db.QueryRowContext(ctx, createTask, arg.UserID, arg.Name))
}

const getTask = `SELECT ` + taskColumns + ` FROM tasks WHERE taskid = $1`

func (q *Queries) GetTask(ctx context.Context, taskID int64) (Task, error) {
	return scanTask(q.db.QueryRowContext(ctx, getTask, taskID))
}

const listTasksByUser = `SELECT ` + taskColumns + ` FROM tasks WHERE userid = $1 ORDER BY taskid`

func (q *Queries) ListTasksByUser(ctx context.Context, userID int64) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx, listTasksByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(
			&t.TaskID,
			&t.UserID,
			&t.Name,
			&t.Completed,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

type UpdateTaskParams struct {
	TaskID    int64
	Name      sql.NullString
	Completed sql.NullBool
}

// Absent fields keep their current value.
const updateTask = `UPDATE tasks SET
	name = COALESCE($2, name),
	completed = COALESCE($3, completed)
WHERE taskid = $1
RETURNING ` + taskColumns

func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) (Task, error) {
	return scanTask(q.db.QueryRowContext(ctx, updateTask, arg.TaskID, arg.Name, arg.Completed))
}

const deleteTask = `DELETE FROM tasks WHERE taskid = $1`

func (q *Queries) DeleteTask(ctx context.Context, taskID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTask, taskID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
