package gateway

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry is the in-memory mapping from room name to the set of
// currently connected members. A connection belongs to at most one room
// at a time; joining a second room switches membership atomically.
// Membership is lost on process restart by design.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Connection]bool
	byConn map[string]string // connection ID → room name
}

// NewRegistry creates an empty room registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[*Connection]bool),
		byConn: make(map[string]string),
	}
}

// Join adds the connection to the named room. If the connection is
// already in another room it leaves that room first, under the same
// lock, so there is no instant where it is a member of both or neither.
// Returns the room left, or "" if the connection had none. Re-joining
// the current room is a no-op.
func (r *Registry) Join(conn *Connection, roomName string) (prev string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev = r.byConn[conn.ID]
	if prev == roomName {
		return prev
	}
	if prev != "" {
		r.removeLocked(conn, prev)
	}

	if r.rooms[roomName] == nil {
		r.rooms[roomName] = make(map[*Connection]bool)
	}
	r.rooms[roomName][conn] = true
	r.byConn[conn.ID] = roomName

	log.Debug().
		Str("connection_id", conn.ID).
		Str("room", roomName).
		Int("members", len(r.rooms[roomName])).
		Msg("connection joined room")
	return prev
}

// Leave removes the connection from whatever room it is in. Removing a
// connection that is in no room is a no-op.
func (r *Registry) Leave(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomName, ok := r.byConn[conn.ID]
	if !ok {
		return
	}
	r.removeLocked(conn, roomName)

	log.Debug().
		Str("connection_id", conn.ID).
		Str("room", roomName).
		Msg("connection left room")
}

func (r *Registry) removeLocked(conn *Connection, roomName string) {
	if members, exists := r.rooms[roomName]; exists {
		delete(members, conn)
		if len(members) == 0 {
			delete(r.rooms, roomName)
		}
	}
	delete(r.byConn, conn.ID)
}

// MembersOf returns a snapshot of the room's current members. The set
// may change the moment the call returns; callers must not assume
// stability.
func (r *Registry) MembersOf(roomName string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomName]
	if len(members) == 0 {
		return nil
	}
	snapshot := make([]*Connection, 0, len(members))
	for conn := range members {
		snapshot = append(snapshot, conn)
	}
	return snapshot
}

// RoomOf returns the room the connection currently belongs to.
func (r *Registry) RoomOf(conn *Connection) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomName, ok := r.byConn[conn.ID]
	return roomName, ok
}

// Stats returns statistics about active connections
func (r *Registry) Stats() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totalConnections := 0
	roomCounts := make(map[string]int)
	for roomName, members := range r.rooms {
		count := len(members)
		totalConnections += count
		roomCounts[roomName] = count
	}

	return map[string]interface{}{
		"total_connections": totalConnections,
		"active_rooms":      len(r.rooms),
		"room_connections":  roomCounts,
	}
}
