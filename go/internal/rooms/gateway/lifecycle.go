package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pomopals/pomopals/go/internal/models"
	"github.com/pomopals/pomopals/go/internal/rooms"
	"github.com/rs/zerolog/log"
)

// SessionStore is the slice of the relational store the lifecycle
// manager needs. Every call is a potential blocking point and is made
// without holding any registry lock.
type SessionStore interface {
	GetRoomByName(ctx context.Context, name string) (*models.Room, error)
	CreateRoom(ctx context.Context, req rooms.CreateRoomRequest) (*models.Room, error)
	ListRoomMembers(ctx context.Context, name string) ([]*models.User, error)
	UpsertRoomMember(ctx context.Context, userID int64, roomName string) error
}

// Lifecycle manages a connection from transport-level connect through
// join, room switches, and disconnect. It owns the read/write pumps and
// dispatches inbound events to the router and phase coordinator.
//
// Peers are not notified of departures; only joins produce a membership
// notice. A disconnect simply removes the connection from future target
// sets.
type Lifecycle struct {
	registry *Registry
	router   *Router
	phase    *Coordinator
	store    SessionStore
	config   ConnectionConfig
	upgrader websocket.Upgrader
}

// NewLifecycle creates a connection lifecycle manager.
func NewLifecycle(registry *Registry, router *Router, phase *Coordinator, store SessionStore, config ConnectionConfig) *Lifecycle {
	return &Lifecycle{
		registry: registry,
		router:   router,
		phase:    phase,
		store:    store,
		config:   config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection
// and starts its pumps. The identity is assumed to have been validated
// upstream.
func (l *Lifecycle) UpgradeConnection(w http.ResponseWriter, r *http.Request, userID int64, username string) error {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		Username:    username,
		Conn:        conn,
		Send:        make(chan []byte, l.config.SendBufferSize),
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	go l.writePump(connection)
	go l.readPump(connection)

	log.Info().
		Str("connection_id", connection.ID).
		Str("username", username).
		Int64("user_id", userID).
		Msg("WebSocket connection established")
	return nil
}

// HandleClientEvent processes one inbound event and always acks the
// originating connection once dispatch has been handed off. Failures
// during fan-out to peers never reach the sender; only the event's own
// validation and persistence result is reported back.
func (l *Lifecycle) HandleClientEvent(conn *Connection, raw []byte) {
	var ev ClientEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		l.ack(conn, "", fmt.Errorf("malformed event: %w", err), nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.config.StoreTimeout)
	defer cancel()

	switch ev.Type {
	case EventTypeJoinRoom:
		l.handleJoinRoom(ctx, conn, ev)
	case EventTypeSendMessage:
		l.handleSendMessage(conn, ev)
	case EventTypeStartTimer:
		l.handleStartTimer(ctx, conn, ev)
	default:
		l.ack(conn, ev.RequestID, fmt.Errorf("unknown event type %q", ev.Type), nil)
	}
}

// handleJoinRoom moves the connection into the named room, creating the
// room on first use. Creation is idempotent: joining an existing name
// reuses the room without resetting its settings. A join while already
// in another room is a switch; the old membership is dropped first.
func (l *Lifecycle) handleJoinRoom(ctx context.Context, conn *Connection, ev ClientEvent) {
	var payload JoinRoomPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		l.ack(conn, ev.RequestID, fmt.Errorf("malformed join-room payload: %w", err), nil)
		return
	}
	if payload.RoomName == "" {
		l.ack(conn, ev.RequestID, fmt.Errorf("room_name is required"), nil)
		return
	}
	if payload.Username != "" {
		conn.Username = payload.Username
	}
	if payload.UserID != 0 {
		conn.UserID = payload.UserID
	}

	var ownerID *int64
	if conn.UserID != 0 {
		ownerID = &conn.UserID
	}
	room, err := l.store.CreateRoom(ctx, rooms.CreateRoomRequest{
		Name:    payload.RoomName,
		OwnerID: ownerID,
	})
	if err != nil {
		l.ack(conn, ev.RequestID, fmt.Errorf("join room %q: %w", payload.RoomName, err), nil)
		return
	}
	l.phase.Prime(room.Name, room.Running)

	prev := l.registry.Join(conn, room.Name)
	if prev != room.Name {
		// Persisted membership mirrors the single-room model: upserting
		// on the user key moves them out of any previous room.
		if conn.UserID != 0 {
			if err := l.store.UpsertRoomMember(ctx, conn.UserID, room.Name); err != nil {
				log.Error().Err(err).
					Str("room", room.Name).
					Int64("user_id", conn.UserID).
					Msg("failed to persist room membership")
			}
		}

		notice, err := NewRoomEvent(room.Name, EventTypePromptJoin, PromptJoinPayload{
			Username: conn.Username,
			RoomName: room.Name,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to build prompt-join notice")
		} else {
			l.router.Broadcast(room.Name, notice, conn.ID)
		}
	}

	snapshot := RoomSnapshot{
		RoomName:     room.Name,
		WorkMinutes:  room.WorkMinutes,
		BreakMinutes: room.BreakMinutes,
		Running:      l.phase.Running(room.Name),
		Theme:        room.Theme,
	}
	for _, member := range l.registry.MembersOf(room.Name) {
		snapshot.Members = append(snapshot.Members, member.Username)
	}
	l.ack(conn, ev.RequestID, nil, snapshot)
}

// handleSendMessage relays the payload verbatim to every other member
// of the sender's room.
func (l *Lifecycle) handleSendMessage(conn *Connection, ev ClientEvent) {
	var routing messageRouting
	if err := json.Unmarshal(ev.Payload, &routing); err != nil {
		l.ack(conn, ev.RequestID, fmt.Errorf("malformed send-message payload: %w", err), nil)
		return
	}
	if current, ok := l.registry.RoomOf(conn); !ok || current != routing.RoomName {
		l.ack(conn, ev.RequestID, ErrNotJoined, nil)
		return
	}

	message := &RoomEvent{
		ID:        uuid.New().String(),
		Room:      routing.RoomName,
		Type:      EventTypeReceiveMessage,
		Timestamp: time.Now(),
		Data:      ev.Payload,
	}
	l.router.Broadcast(routing.RoomName, message, conn.ID)
	l.ack(conn, ev.RequestID, nil, nil)
}

// handleStartTimer toggles the room's shared timer phase and signals
// every other member. The sender gets the new phase in its ack rather
// than an echo of the signal.
func (l *Lifecycle) handleStartTimer(ctx context.Context, conn *Connection, ev ClientEvent) {
	var roomName string
	if err := json.Unmarshal(ev.Payload, &roomName); err != nil {
		l.ack(conn, ev.RequestID, fmt.Errorf("malformed start-timer payload: %w", err), nil)
		return
	}
	if current, ok := l.registry.RoomOf(conn); !ok || current != roomName {
		l.ack(conn, ev.RequestID, ErrNotJoined, nil)
		return
	}

	running, err := l.phase.ToggleWork(ctx, roomName)
	if err != nil {
		l.ack(conn, ev.RequestID, err, nil)
		return
	}

	signal, err := NewRoomEvent(roomName, EventTypeStartTimer, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to build start-timer signal")
	} else {
		l.router.Broadcast(roomName, signal, conn.ID)
	}
	l.ack(conn, ev.RequestID, nil, TimerAck{RoomName: roomName, Running: running})
}

// disconnect tears down the connection's room association. No departure
// notice is sent and no acknowledgment is possible; the client is gone.
func (l *Lifecycle) disconnect(conn *Connection) {
	l.registry.Leave(conn)
	conn.closeSend()
	if conn.Conn != nil {
		conn.Conn.Close()
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("username", conn.Username).
		Msg("connection closed")
}

// ack reports the outcome of an inbound event back to its originator.
func (l *Lifecycle) ack(conn *Connection, requestID string, opErr error, data interface{}) {
	payload := AckPayload{RequestID: requestID, OK: opErr == nil}
	if opErr != nil {
		payload.Error = opErr.Error()
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal ack data")
		} else {
			payload.Data = raw
		}
	}

	event, err := NewRoomEvent("", EventTypeAck, payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to build ack event")
		return
	}
	l.router.SendTo(conn, event)
}

// writePump drains the connection's send queue onto the socket and
// keeps the link alive with pings.
func (l *Lifecycle) writePump(c *Connection) {
	ticker := time.NewTicker(l.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(l.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(l.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump reads inbound events until the transport drops, then cleans
// up the connection's room membership.
func (l *Lifecycle) readPump(c *Connection) {
	defer l.disconnect(c)

	c.Conn.SetReadLimit(l.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(l.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(l.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		l.HandleClientEvent(c, message)
		c.Conn.SetReadDeadline(time.Now().Add(l.config.ReadTimeout))
	}
}
