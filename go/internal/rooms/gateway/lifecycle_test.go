package gateway

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pomopals/pomopals/go/internal/rooms"
	"github.com/stretchr/testify/require"
)

func setupLifecycle(t *testing.T, store *fakeStore) (*Lifecycle, *Registry) {
	t.Helper()

	registry := NewRegistry()
	router := startRouter(t, registry)
	coordinator := NewCoordinator(store)
	lifecycle := NewLifecycle(registry, router, coordinator, store, DefaultConnectionConfig())
	return lifecycle, registry
}

func clientEvent(t *testing.T, requestID string, eventType EventType, payload interface{}) []byte {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	event, err := json.Marshal(ClientEvent{
		RequestID: requestID,
		Type:      eventType,
		Payload:   raw,
	})
	require.NoError(t, err)
	return event
}

func joinRoom(t *testing.T, lifecycle *Lifecycle, conn *Connection, roomName string) RoomSnapshot {
	t.Helper()

	lifecycle.HandleClientEvent(conn, clientEvent(t, "join-"+conn.Username, EventTypeJoinRoom, JoinRoomPayload{
		UserID:   conn.UserID,
		Username: conn.Username,
		RoomName: roomName,
	}))

	ack := decodeAck(t, nextEvent(t, conn))
	require.True(t, ack.OK, "join failed: %s", ack.Error)

	var snapshot RoomSnapshot
	require.NoError(t, json.Unmarshal(ack.Data, &snapshot))
	return snapshot
}

// Two friends share a room: the second join notifies the first, a timer
// toggle signals everyone but the toggler, and a disconnect quietly
// shrinks the member set.
func TestLifecycleSharedSession(t *testing.T) {
	store := newFakeStore()
	lifecycle, registry := setupLifecycle(t, store)

	alice := newTestConn("alice", 16)
	alice.UserID = 1
	bob := newTestConn("bob", 16)
	bob.UserID = 2

	// Alice joins a room that does not exist yet; it is created with
	// default settings, paused.
	snapshot := joinRoom(t, lifecycle, alice, "focus")
	require.Equal(t, "focus", snapshot.RoomName)
	require.Equal(t, 25, snapshot.WorkMinutes)
	require.Equal(t, 5, snapshot.BreakMinutes)
	require.False(t, snapshot.Running)
	require.Equal(t, []string{"alice"}, snapshot.Members)

	// Bob joins the same room. Alice gets a membership notice; Bob's
	// snapshot lists both of them.
	snapshot = joinRoom(t, lifecycle, bob, "focus")
	require.ElementsMatch(t, []string{"alice", "bob"}, snapshot.Members)

	notice := nextEvent(t, alice)
	require.Equal(t, EventTypePromptJoin, notice.Type)
	var prompt PromptJoinPayload
	require.NoError(t, json.Unmarshal(notice.Data, &prompt))
	require.Equal(t, "bob", prompt.Username)
	require.Equal(t, "focus", prompt.RoomName)

	// Bob starts the timer. Alice gets the signal; Bob only the ack.
	lifecycle.HandleClientEvent(bob, clientEvent(t, "timer-1", EventTypeStartTimer, "focus"))

	ack := decodeAck(t, nextEvent(t, bob))
	require.True(t, ack.OK, "start-timer failed: %s", ack.Error)
	var timerAck TimerAck
	require.NoError(t, json.Unmarshal(ack.Data, &timerAck))
	require.True(t, timerAck.Running)

	signal := nextEvent(t, alice)
	require.Equal(t, EventTypeStartTimer, signal.Type)
	requireNoEvent(t, bob, 100*time.Millisecond)

	// Alice disconnects. No departure notice; Bob is the sole member.
	lifecycle.disconnect(alice)
	requireNoEvent(t, bob, 100*time.Millisecond)

	members := registry.MembersOf("focus")
	require.Len(t, members, 1)
	require.Equal(t, "bob", members[0].Username)
}

func TestLifecycleJoinExistingRoomKeepsSettings(t *testing.T) {
	store := newFakeStore()
	lifecycle, _ := setupLifecycle(t, store)

	alice := newTestConn("alice", 16)
	joinRoom(t, lifecycle, alice, "deep-work")

	// Re-creating the room via a second join must not reset anything.
	work := 50
	_, err := store.UpdateRoomSettings(context.Background(), "deep-work", rooms.UpdateRoomSettingsRequest{WorkMinutes: &work})
	require.NoError(t, err)

	bob := newTestConn("bob", 16)
	snapshot := joinRoom(t, lifecycle, bob, "deep-work")
	require.Equal(t, 50, snapshot.WorkMinutes)
}

func TestLifecycleJoinSwitchesRoomAndPersistsMembership(t *testing.T) {
	store := newFakeStore()
	lifecycle, registry := setupLifecycle(t, store)

	alice := newTestConn("alice", 16)
	alice.UserID = 7

	joinRoom(t, lifecycle, alice, "focus")
	joinRoom(t, lifecycle, alice, "deep-work")

	require.Empty(t, registry.MembersOf("focus"))
	require.Len(t, registry.MembersOf("deep-work"), 1)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Equal(t, "deep-work", store.members[7])
}

func TestLifecycleRejoinSameRoomEmitsNoNotice(t *testing.T) {
	store := newFakeStore()
	lifecycle, _ := setupLifecycle(t, store)

	alice := newTestConn("alice", 16)
	bob := newTestConn("bob", 16)
	joinRoom(t, lifecycle, alice, "focus")
	joinRoom(t, lifecycle, bob, "focus")
	nextEvent(t, alice) // bob's join notice

	joinRoom(t, lifecycle, bob, "focus")
	requireNoEvent(t, alice, 100*time.Millisecond)
}

func TestLifecycleMessageRelaysVerbatim(t *testing.T) {
	store := newFakeStore()
	lifecycle, _ := setupLifecycle(t, store)

	alice := newTestConn("alice", 16)
	bob := newTestConn("bob", 16)
	carol := newTestConn("carol", 16)
	joinRoom(t, lifecycle, alice, "focus")
	joinRoom(t, lifecycle, bob, "focus")
	joinRoom(t, lifecycle, carol, "deep-work")
	nextEvent(t, alice) // bob's join notice

	payload := map[string]interface{}{
		"room_name": "focus",
		"text":      "back to work",
		"emoji":     "🍅",
	}
	lifecycle.HandleClientEvent(bob, clientEvent(t, "msg-1", EventTypeSendMessage, payload))

	ack := decodeAck(t, nextEvent(t, bob))
	require.True(t, ack.OK)
	require.Equal(t, "msg-1", ack.RequestID)

	got := nextEvent(t, alice)
	require.Equal(t, EventTypeReceiveMessage, got.Type)
	expected, err := json.Marshal(payload)
	require.NoError(t, err)
	require.JSONEq(t, string(expected), string(got.Data))

	requireNoEvent(t, carol, 100*time.Millisecond)
	requireNoEvent(t, bob, 100*time.Millisecond)
}

func TestLifecycleRoomScopedEventsRequireMembership(t *testing.T) {
	store := newFakeStore()
	lifecycle, _ := setupLifecycle(t, store)

	alice := newTestConn("alice", 16)
	joinRoom(t, lifecycle, alice, "focus")

	// Message for a room the sender is not in.
	lifecycle.HandleClientEvent(alice, clientEvent(t, "msg-1", EventTypeSendMessage, map[string]string{
		"room_name": "deep-work",
		"text":      "hello?",
	}))
	ack := decodeAck(t, nextEvent(t, alice))
	require.False(t, ack.OK)
	require.Contains(t, ack.Error, ErrNotJoined.Error())

	// Timer toggle from a connection with no room at all.
	stranger := newTestConn("mallory", 16)
	lifecycle.HandleClientEvent(stranger, clientEvent(t, "timer-1", EventTypeStartTimer, "focus"))
	ack = decodeAck(t, nextEvent(t, stranger))
	require.False(t, ack.OK)
	require.Contains(t, ack.Error, ErrNotJoined.Error())
}

func TestLifecycleMalformedAndUnknownEvents(t *testing.T) {
	store := newFakeStore()
	lifecycle, _ := setupLifecycle(t, store)
	conn := newTestConn("alice", 16)

	lifecycle.HandleClientEvent(conn, []byte("{not json"))
	ack := decodeAck(t, nextEvent(t, conn))
	require.False(t, ack.OK)
	require.Contains(t, ack.Error, "malformed event")

	lifecycle.HandleClientEvent(conn, clientEvent(t, "r1", EventType("teleport"), nil))
	ack = decodeAck(t, nextEvent(t, conn))
	require.False(t, ack.OK)
	require.Equal(t, "r1", ack.RequestID)
	require.Contains(t, ack.Error, "unknown event type")
}

func TestLifecycleJoinRequiresRoomName(t *testing.T) {
	store := newFakeStore()
	lifecycle, _ := setupLifecycle(t, store)
	conn := newTestConn("alice", 16)

	lifecycle.HandleClientEvent(conn, clientEvent(t, "r1", EventTypeJoinRoom, JoinRoomPayload{
		Username: "alice",
	}))
	ack := decodeAck(t, nextEvent(t, conn))
	require.False(t, ack.OK)
	require.Contains(t, ack.Error, "room_name is required")
}

func TestLifecycleStartTimerFailureDoesNotSignalPeers(t *testing.T) {
	store := newFakeStore()
	lifecycle, _ := setupLifecycle(t, store)

	alice := newTestConn("alice", 16)
	bob := newTestConn("bob", 16)
	joinRoom(t, lifecycle, alice, "focus")
	joinRoom(t, lifecycle, bob, "focus")
	nextEvent(t, alice) // bob's join notice

	store.failPhaseUpdate = true
	lifecycle.HandleClientEvent(bob, clientEvent(t, "timer-1", EventTypeStartTimer, "focus"))

	ack := decodeAck(t, nextEvent(t, bob))
	require.False(t, ack.OK)
	requireNoEvent(t, alice, 100*time.Millisecond)
}
