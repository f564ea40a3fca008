package outbox

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
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

// Queries reads and writes the outbox_events table.
type Queries struct {
	db DBTX
}

// WithTx binds the queries to a transaction so event inserts commit
// atomically with the mutation they describe.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const insertEvent = `INSERT INTO outbox_events (id, roomname, eventtype, payload, createdat)
VALUES ($1, $2, $3, $4, now())`

// InsertEvent records a domain event for later publication.
func (q *Queries) InsertEvent(ctx context.Context, roomName, eventType string, payload []byte) error {
	_, err := q.db.ExecContext(ctx, insertEvent,
		uuid.New(),
		roomName,
		eventType,
		pqtype.NullRawMessage{RawMessage: payload, Valid: len(payload) > 0},
	)
	return err
}

const fetchUnsent = `SELECT id, roomname, eventtype, payload, createdat
FROM outbox_events
WHERE sentat IS NULL
ORDER BY createdat
LIMIT $1
FOR UPDATE SKIP LOCKED`

// FetchUnsent claims a batch of unpublished events. Callers run this
// inside a transaction; SKIP LOCKED keeps concurrent workers off the
// same rows.
func (q *Queries) FetchUnsent(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	rows, err := q.db.QueryContext(ctx, fetchUnsent, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var (
			ev      OutboxEvent
			payload pqtype.NullRawMessage
		)
		if err := rows.Scan(&ev.ID, &ev.RoomName, &ev.EventType, &payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if payload.Valid {
			ev.Payload = payload.RawMessage
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

const markSent = `UPDATE outbox_events SET sentat = $2 WHERE id = $1`

// MarkSent stamps an event as published.
func (q *Queries) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	_, err := q.db.ExecContext(ctx, markSent, id, sentAt)
	return err
}
