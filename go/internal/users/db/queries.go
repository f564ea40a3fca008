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

// User mirrors the users table.
type User struct {
	UserID         int64
	GoogleID       string
	Name           string
	Email          string
	ProfilePicture sql.NullString
	Reaction       string
	CreatedAt      sql.NullTime
}

const userColumns = `userid, googleid, name, email, profilepicture, reaction, createdat`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.UserID,
		&u.GoogleID,
		&u.Name,
		&u.Email,
		&u.ProfilePicture,
		&u.Reaction,
		&u.CreatedAt,
	)
	return u, err
}

type UpsertUserParams struct {
	GoogleID       string
	Name           string
	Email          string
	ProfilePicture sql.NullString
}

// Re-login refreshes profile fields but leaves the reaction alone.
const upsertUser = `INSERT INTO users (googleid, name, email, profilepicture, reaction)
VALUES ($1, $2, $3, $4, 'READY')
ON CONFLICT (googleid) DO UPDATE SET
	name = EXCLUDED.name,
	email = EXCLUDED.email,
	profilepicture = EXCLUDED.profilepicture
RETURNING ` + userColumns

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, upsertUser,
		arg.GoogleID,
		arg.Name,
		arg.Email,
		arg.ProfilePicture,
	))
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE userid = $1`

func (q *Queries) GetUser(ctx context.Context, userID int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, userID))
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY userid`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.UserID,
			&u.GoogleID,
			&u.Name,
			&u.Email,
			&u.ProfilePicture,
			&u.Reaction,
			&u.CreatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type UpdateUserReactionParams struct {
	UserID   int64
	Reaction string
}

const updateUserReaction = `UPDATE users SET reaction = $2 WHERE userid = $1
RETURNING ` + userColumns

func (q *Queries) UpdateUserReaction(ctx context.Context, arg UpdateUserReactionParams) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, updateUserReaction, arg.UserID, arg.Reaction))
}
