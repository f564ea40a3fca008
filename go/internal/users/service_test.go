package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pomopals/pomopals/go/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeUsersApp struct {
	nextID   int64
	byGoogle map[string]*models.User
	byID     map[int64]*models.User
}

func newFakeUsersApp() *fakeUsersApp {
	return &fakeUsersApp{
		byGoogle: make(map[string]*models.User),
		byID:     make(map[int64]*models.User),
	}
}

func (a *fakeUsersApp) UpsertUser(ctx context.Context, req LoginRequest) (*models.User, error) {
	if user, ok := a.byGoogle[req.GoogleID]; ok {
		user.Name = req.Name
		user.Email = req.Email
		user.ProfilePicture = req.ProfilePicture
		return user, nil
	}
	a.nextID++
	user := &models.User{
		ID:             a.nextID,
		GoogleID:       req.GoogleID,
		Name:           req.Name,
		Email:          req.Email,
		ProfilePicture: req.ProfilePicture,
		Reaction:       models.ReactionReady,
	}
	a.byGoogle[req.GoogleID] = user
	a.byID[user.ID] = user
	return user, nil
}

func (a *fakeUsersApp) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, ok := a.byID[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (a *fakeUsersApp) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	for _, user := range a.byID {
		users = append(users, user)
	}
	return users, nil
}

func (a *fakeUsersApp) UpdateReaction(ctx context.Context, userID int64, reaction models.Reaction) (*models.User, error) {
	user, ok := a.byID[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	user.Reaction = reaction
	return user, nil
}

func setupUsersServer(t *testing.T) (*httptest.Server, *fakeUsersApp) {
	t.Helper()

	app := newFakeUsersApp()
	service := NewService(app)
	mux := http.NewServeMux()
	service.RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, app
}

func TestLoginCreatesUser(t *testing.T) {
	server, _ := setupUsersServer(t)

	resp, err := http.Post(server.URL+"/login", "application/json",
		strings.NewReader(`{"google_id":"g-1","name":"alice","email":"alice@example.com"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, int64(1), body["user_id"])
}

func TestLoginIsIdempotentPerGoogleID(t *testing.T) {
	server, _ := setupUsersServer(t)

	for i := 0; i < 2; i++ {
		resp, err := http.Post(server.URL+"/login", "application/json",
			strings.NewReader(`{"google_id":"g-1","name":"alice","email":"alice@example.com"}`))
		require.NoError(t, err)
		var body map[string]int64
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		require.Equal(t, int64(1), body["user_id"])
	}
}

func TestLoginRequiresGoogleID(t *testing.T) {
	server, _ := setupUsersServer(t)

	resp, err := http.Post(server.URL+"/login", "application/json",
		strings.NewReader(`{"name":"alice"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUserEndpoint(t *testing.T) {
	server, app := setupUsersServer(t)
	_, err := app.UpsertUser(context.Background(), LoginRequest{GoogleID: "g-1", Name: "alice"})
	require.NoError(t, err)

	resp, err := http.Get(server.URL + "/users/1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	require.Equal(t, "alice", user.Name)
	require.Equal(t, models.ReactionReady, user.Reaction)

	resp2, err := http.Get(server.URL + "/users/99")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestUpdateReactionEndpoint(t *testing.T) {
	server, app := setupUsersServer(t)
	_, err := app.UpsertUser(context.Background(), LoginRequest{GoogleID: "g-1", Name: "alice"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, server.URL+"/users/1/reaction",
		strings.NewReader(`{"reaction":"FOCUSED"}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	require.Equal(t, models.ReactionFocused, user.Reaction)
}
