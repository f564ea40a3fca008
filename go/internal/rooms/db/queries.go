package db

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql the queries run against, satisfied
// by both *sql.DB and *sql.Tx.
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

// WithTx binds the queries to a transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Room mirrors the rooms table.
type Room struct {
	Name         string
	OwnerID      sql.NullInt64
	WorkMinutes  int32
	BreakMinutes int32
	Running      bool
	Password     sql.NullString
	Theme        sql.NullString
	CreatedAt    sql.NullTime
	UpdatedAt    sql.NullTime
}

const roomColumns = `name, ownerid, workminutes, breakminutes, running, password, theme, createdat, updatedat`

func scanRoom(row *sql.Row) (Room, error) {
	var r Room
	err := row.Scan(
		&r.Name,
		&r.OwnerID,
		&r.WorkMinutes,
		&r.BreakMinutes,
		&r.Running,
		&r.Password,
		&r.Theme,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

const getRoomByName = `SELECT ` + roomColumns + ` FROM rooms WHERE name = $1`

func (q *Queries) GetRoomByName(ctx context.Context, name string) (Room, error) {
	return scanRoom(q.db.QueryRowContext(ctx, getRoomByName, name))
}

type CreateRoomParams struct {
	Name         string
	OwnerID      sql.NullInt64
	WorkMinutes  int32
	BreakMinutes int32
	Password     sql.NullString
	Theme        sql.NullString
}

// The no-op DO UPDATE makes the insert return the existing row on a
// name conflict instead of erroring, without touching its settings.
const createRoom = `INSERT INTO rooms (name, ownerid, workminutes, breakminutes, running, password, theme)
VALUES ($1, $2, $3, $4, false, $5, $6)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING ` + roomColumns

func (q *Queries) CreateRoom(ctx context.Context, arg CreateRoomParams) (Room, error) {
	return scanRoom(q.db.QueryRowContext(ctx, createRoom,
		arg.Name,
		arg.OwnerID,
		arg.WorkMinutes,
		arg.BreakMinutes,
		arg.Password,
		arg.Theme,
	))
}

type UpdateRoomPhaseParams struct {
	Name    string
	Running bool
}

const updateRoomPhase = `UPDATE rooms SET running = $2, updatedat = now() WHERE name = $1
RETURNING ` + roomColumns

func (q *Queries) UpdateRoomPhase(ctx context.Context, arg UpdateRoomPhaseParams) (Room, error) {
	return scanRoom(q.db.QueryRowContext(ctx, updateRoomPhase, arg.Name, arg.Running))
}

type UpdateRoomSettingsParams struct {
	Name         string
	WorkMinutes  sql.NullInt32
	BreakMinutes sql.NullInt32
	Password     sql.NullString
	Theme        sql.NullString
}

const updateRoomSettings = `UPDATE rooms SET
	workminutes = COALESCE($2, workminutes),
	breakminutes = COALESCE($3, breakminutes),
	password = COALESCE($4, password),
	theme = COALESCE($5, theme),
	updatedat = now()
WHERE name = $1
RETURNING ` + roomColumns

func (q *Queries) UpdateRoomSettings(ctx context.Context, arg UpdateRoomSettingsParams) (Room, error) {
	return scanRoom(q.db.QueryRowContext(ctx, updateRoomSettings,
		arg.Name,
		arg.WorkMinutes,
		arg.BreakMinutes,
		arg.Password,
		arg.Theme,
	))
}

type UpsertRoomMemberParams struct {
	UserID   int64
	RoomName string
}

// One persisted room per user: re-joining moves the membership row.
const upsertRoomMember = `INSERT INTO room_members (userid, roomname) VALUES ($1, $2)
ON CONFLICT (userid) DO UPDATE SET roomname = EXCLUDED.roomname`

func (q *Queries) UpsertRoomMember(ctx context.Context, arg UpsertRoomMemberParams) error {
	_, err := q.db.ExecContext(ctx, upsertRoomMember, arg.UserID, arg.RoomName)
	return err
}

// RoomMember is one row of the room member listing.
type RoomMember struct {
	UserID         int64
	Name           string
	ProfilePicture sql.NullString
	Reaction       string
}

const listRoomMembers = `SELECT u.userid, u.name, u.profilepicture, u.reaction
FROM users u JOIN room_members m ON m.userid = u.userid
WHERE m.roomname = $1
ORDER BY u.name`

func (q *Queries) ListRoomMembers(ctx context.Context, roomName string) ([]RoomMember, error) {
	rows, err := q.db.QueryContext(ctx, listRoomMembers, roomName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []RoomMember
	for rows.Next() {
		var m RoomMember
		if err := rows.Scan(&m.UserID, &m.Name, &m.ProfilePicture, &m.Reaction); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
