package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pomopals/pomopals/go/internal/models"
	"github.com/pomopals/pomopals/go/internal/rooms"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory session store for gateway tests. It
// satisfies both SessionStore and PhaseStore.
type fakeStore struct {
	mu      sync.Mutex
	rooms   map[string]*models.Room
	members map[int64]string

	phaseUpdates    int
	failPhaseUpdate bool
	failSettings    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:   make(map[string]*models.Room),
		members: make(map[int64]string),
	}
}

func (s *fakeStore) addRoom(room *models.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Name] = room
}

func (s *fakeStore) GetRoomByName(ctx context.Context, name string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[name]
	if !ok {
		return nil, rooms.ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (s *fakeStore) CreateRoom(ctx context.Context, req rooms.CreateRoomRequest) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room, ok := s.rooms[req.Name]; ok {
		copied := *room
		return &copied, nil
	}

	room := &models.Room{
		Name:         req.Name,
		OwnerID:      req.OwnerID,
		WorkMinutes:  rooms.DefaultWorkMinutes,
		BreakMinutes: rooms.DefaultBreakMinutes,
		Theme:        req.Theme,
	}
	if req.WorkMinutes > 0 {
		room.WorkMinutes = req.WorkMinutes
	}
	if req.BreakMinutes > 0 {
		room.BreakMinutes = req.BreakMinutes
	}
	s.rooms[req.Name] = room
	copied := *room
	return &copied, nil
}

func (s *fakeStore) ListRoomMembers(ctx context.Context, name string) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []*models.User
	for userID, roomName := range s.members {
		if roomName == name {
			users = append(users, &models.User{ID: userID})
		}
	}
	return users, nil
}

func (s *fakeStore) UpsertRoomMember(ctx context.Context, userID int64, roomName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[userID] = roomName
	return nil
}

func (s *fakeStore) UpdateRoomPhase(ctx context.Context, name string, running bool) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failPhaseUpdate {
		return nil, fmt.Errorf("store unavailable")
	}
	room, ok := s.rooms[name]
	if !ok {
		return nil, rooms.ErrRoomNotFound
	}
	room.Running = running
	s.phaseUpdates++
	copied := *room
	return &copied, nil
}

func (s *fakeStore) UpdateRoomSettings(ctx context.Context, name string, req rooms.UpdateRoomSettingsRequest) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSettings {
		return nil, fmt.Errorf("store unavailable")
	}
	room, ok := s.rooms[name]
	if !ok {
		return nil, rooms.ErrRoomNotFound
	}
	if req.WorkMinutes != nil {
		room.WorkMinutes = *req.WorkMinutes
	}
	if req.BreakMinutes != nil {
		room.BreakMinutes = *req.BreakMinutes
	}
	if req.Password != nil {
		room.Password = req.Password
	}
	if req.Theme != nil {
		room.Theme = req.Theme
	}
	copied := *room
	return &copied, nil
}

func (s *fakeStore) phaseUpdateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phaseUpdates
}

func newTestConn(username string, bufSize int) *Connection {
	return &Connection{
		ID:          uuid.New().String(),
		Username:    username,
		Send:        make(chan []byte, bufSize),
		ConnectedAt: time.Now(),
	}
}

// nextEvent pops the next outbound event off a connection's send queue.
func nextEvent(t *testing.T, conn *Connection) *RoomEvent {
	t.Helper()

	select {
	case raw := <-conn.Send:
		var ev RoomEvent
		require.NoError(t, json.Unmarshal(raw, &ev))
		return &ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event on connection %s", conn.Username)
		return nil
	}
}

// requireNoEvent asserts nothing arrives on the connection within the
// given window.
func requireNoEvent(t *testing.T, conn *Connection, window time.Duration) {
	t.Helper()

	select {
	case raw := <-conn.Send:
		t.Fatalf("unexpected event on connection %s: %s", conn.Username, raw)
	case <-time.After(window):
	}
}

// decodeAck unwraps an ack event's payload.
func decodeAck(t *testing.T, ev *RoomEvent) AckPayload {
	t.Helper()

	require.Equal(t, EventTypeAck, ev.Type)
	var ack AckPayload
	require.NoError(t, json.Unmarshal(ev.Data, &ack))
	return ack
}
