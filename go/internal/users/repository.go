package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pomopals/pomopals/go/internal/models"
	"github.com/pomopals/pomopals/go/internal/users/db"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	UpsertUser(ctx context.Context, arg db.UpsertUserParams) (db.User, error)
	GetUser(ctx context.Context, userID int64) (db.User, error)
	ListUsers(ctx context.Context) ([]db.User, error)
	UpdateUserReaction(ctx context.Context, arg db.UpdateUserReactionParams) (db.User, error)
}

// Repository implements user data access operations
type Repository struct {
	queries Querier
}

// NewRepository creates a new users repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// UpsertUser records a verified login, creating the user on first sight
// and refreshing profile fields on return visits.
func (r *Repository) UpsertUser(ctx context.Context, req LoginRequest) (*models.User, error) {
	user, err := r.queries.UpsertUser(ctx, db.UpsertUserParams{
		GoogleID: req.GoogleID,
		Name:     req.Name,
		Email:    req.Email,
		ProfilePicture: sql.NullString{
			String: req.ProfilePicture,
			Valid:  req.ProfilePicture != "",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return dbUserToModel(user), nil
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := r.queries.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return dbUserToModel(user), nil
}

// ListUsers returns all registered users.
func (r *Repository) ListUsers(ctx context.Context) ([]*models.User, error) {
	dbUsers, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*models.User, 0, len(dbUsers))
	for _, u := range dbUsers {
		users = append(users, dbUserToModel(u))
	}
	return users, nil
}

// UpdateReaction sets the user's current reaction.
func (r *Repository) UpdateReaction(ctx context.Context, userID int64, reaction models.Reaction) (*models.User, error) {
	user, err := r.queries.UpdateUserReaction(ctx, db.UpdateUserReactionParams{
		UserID:   userID,
		Reaction: string(reaction),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to update reaction: %w", err)
	}
	return dbUserToModel(user), nil
}

func dbUserToModel(dbUser db.User) *models.User {
	user := &models.User{
		ID:       dbUser.UserID,
		GoogleID: dbUser.GoogleID,
		Name:     dbUser.Name,
		Email:    dbUser.Email,
		Reaction: models.Reaction(dbUser.Reaction),
	}
	if dbUser.ProfilePicture.Valid {
		user.ProfilePicture = dbUser.ProfilePicture.String
	}
	if dbUser.CreatedAt.Valid {
		user.CreatedAt = dbUser.CreatedAt.Time
	}
	return user
}
