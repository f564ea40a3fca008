package rooms

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pomopals/pomopals/go/internal/models"
	"github.com/pomopals/pomopals/go/internal/rooms/db"
	"github.com/pomopals/pomopals/go/internal/rooms/outbox"
	"github.com/pomopals/pomopals/go/internal/sqlutil"
)

// Repository implements room data access. Phase and settings mutations
// commit atomically with their outbox event.
type Repository struct {
	database *sql.DB
	queries  *db.Queries
}

// NewRepository creates a rooms repository over the given database.
func NewRepository(database *sql.DB) *Repository {
	return &Repository{
		database: database,
		queries:  db.New(database),
	}
}

// txQueries bundles the query sets that participate in one transaction.
type txQueries struct {
	rooms  *db.Queries
	outbox *outbox.Queries
}

func newTxQueries(tx *sql.Tx) *txQueries {
	return &txQueries{
		rooms:  db.New(tx),
		outbox: outbox.New(tx),
	}
}

// GetRoomByName retrieves a room, returning ErrRoomNotFound when no
// record matches.
func (r *Repository) GetRoomByName(ctx context.Context, name string) (*models.Room, error) {
	room, err := r.queries.GetRoomByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %q: %w", name, ErrRoomNotFound)
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return dbRoomToModel(room), nil
}

// CreateRoom creates a room, or returns the existing one untouched if
// the name is already taken. A RoomCreated event is recorded only on
// the creation path; a concurrent first-join race can record it twice,
// which the publisher's duplicate window absorbs downstream.
func (r *Repository) CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	if existing, err := r.GetRoomByName(ctx, req.Name); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrRoomNotFound) {
		return nil, err
	}

	if req.WorkMinutes <= 0 {
		req.WorkMinutes = DefaultWorkMinutes
	}
	if req.BreakMinutes <= 0 {
		req.BreakMinutes = DefaultBreakMinutes
	}

	var created db.Room
	err := sqlutil.Run(ctx, r.database, newTxQueries, func(q *txQueries) error {
		var err error
		created, err = q.rooms.CreateRoom(ctx, db.CreateRoomParams{
			Name:         req.Name,
			OwnerID:      sqlutil.ToSqlInt64(req.OwnerID),
			WorkMinutes:  int32(req.WorkMinutes),
			BreakMinutes: int32(req.BreakMinutes),
			Password:     sqlutil.ToSqlString(req.Password),
			Theme:        sqlutil.ToSqlString(req.Theme),
		})
		if err != nil {
			return err
		}
		payload, err := json.Marshal(dbRoomToModel(created))
		if err != nil {
			return err
		}
		return q.outbox.InsertEvent(ctx, created.Name, outbox.EventTypeRoomCreated, payload)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return dbRoomToModel(created), nil
}

// UpdateRoomPhase persists the running/paused flag together with its
// TimerToggled event.
func (r *Repository) UpdateRoomPhase(ctx context.Context, name string, running bool) (*models.Room, error) {
	var updated db.Room
	err := sqlutil.Run(ctx, r.database, newTxQueries, func(q *txQueries) error {
		var err error
		updated, err = q.rooms.UpdateRoomPhase(ctx, db.UpdateRoomPhaseParams{
			Name:    name,
			Running: running,
		})
		if err != nil {
			return err
		}
		payload, err := json.Marshal(map[string]interface{}{
			"room":    name,
			"running": running,
		})
		if err != nil {
			return err
		}
		return q.outbox.InsertEvent(ctx, name, outbox.EventTypeTimerToggled, payload)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %q: %w", name, ErrRoomNotFound)
		}
		return nil, fmt.Errorf("failed to update room phase: %w", err)
	}
	return dbRoomToModel(updated), nil
}

// UpdateRoomSettings applies a partial settings update; nil fields are
// left unchanged. The SettingsUpdated event carries the applied patch.
func (r *Repository) UpdateRoomSettings(ctx context.Context, name string, req UpdateRoomSettingsRequest) (*models.Room, error) {
	var updated db.Room
	err := sqlutil.Run(ctx, r.database, newTxQueries, func(q *txQueries) error {
		var err error
		updated, err = q.rooms.UpdateRoomSettings(ctx, db.UpdateRoomSettingsParams{
			Name:         name,
			WorkMinutes:  sqlutil.ToSqlInt32(req.WorkMinutes),
			BreakMinutes: sqlutil.ToSqlInt32(req.BreakMinutes),
			Password:     sqlutil.ToSqlString(req.Password),
			Theme:        sqlutil.ToSqlString(req.Theme),
		})
		if err != nil {
			return err
		}
		payload, err := json.Marshal(req)
		if err != nil {
			return err
		}
		return q.outbox.InsertEvent(ctx, name, outbox.EventTypeSettingsUpdated, payload)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %q: %w", name, ErrRoomNotFound)
		}
		return nil, fmt.Errorf("failed to update room settings: %w", err)
	}
	return dbRoomToModel(updated), nil
}

// UpsertRoomMember records the user's persisted room. A user has at
// most one persisted room; re-joining moves the row.
func (r *Repository) UpsertRoomMember(ctx context.Context, userID int64, roomName string) error {
	if err := r.queries.UpsertRoomMember(ctx, db.UpsertRoomMemberParams{
		UserID:   userID,
		RoomName: roomName,
	}); err != nil {
		return fmt.Errorf("failed to upsert room member: %w", err)
	}
	return nil
}

// ListRoomMembers returns the users persisted as members of the room.
// This is the durable view; the live view is the gateway registry.
func (r *Repository) ListRoomMembers(ctx context.Context, name string) ([]*models.User, error) {
	members, err := r.queries.ListRoomMembers(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list room members: %w", err)
	}

	users := make([]*models.User, 0, len(members))
	for _, m := range members {
		users = append(users, &models.User{
			ID:             m.UserID,
			Name:           m.Name,
			ProfilePicture: m.ProfilePicture.String,
			Reaction:       models.Reaction(m.Reaction),
		})
	}
	return users, nil
}

func dbRoomToModel(dbRoom db.Room) *models.Room {
	room := &models.Room{
		Name:         dbRoom.Name,
		OwnerID:      sqlutil.FromSqlInt64(dbRoom.OwnerID),
		WorkMinutes:  int(dbRoom.WorkMinutes),
		BreakMinutes: int(dbRoom.BreakMinutes),
		Running:      dbRoom.Running,
		Password:     sqlutil.FromSqlStringPtr(dbRoom.Password),
		Theme:        sqlutil.FromSqlStringPtr(dbRoom.Theme),
	}
	if dbRoom.CreatedAt.Valid {
		room.CreatedAt = dbRoom.CreatedAt.Time
	}
	if dbRoom.UpdatedAt.Valid {
		room.UpdatedAt = dbRoom.UpdatedAt.Time
	}
	return room
}
