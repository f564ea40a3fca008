package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a real-time room event on the wire.
type EventType string

const (
	// Client → server
	EventTypeJoinRoom    EventType = "join-room"
	EventTypeSendMessage EventType = "send-message"
	EventTypeStartTimer  EventType = "start-timer"

	// Server → client
	EventTypePromptJoin     EventType = "prompt-join"
	EventTypeReceiveMessage EventType = "receive-message"
	EventTypeTimerDone      EventType = "timer-done"
	EventTypeAck            EventType = "ack"
)

// RoomEvent is the outbound envelope delivered to room members.
type RoomEvent struct {
	ID        string          `json:"id"`
	Room      string          `json:"room"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewRoomEvent builds an outbound event, marshaling data into the envelope.
// A nil data produces an event with no payload (e.g. start-timer).
func NewRoomEvent(room string, eventType EventType, data interface{}) (*RoomEvent, error) {
	ev := &RoomEvent{
		ID:        uuid.New().String(),
		Room:      room,
		Type:      eventType,
		Timestamp: time.Now(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		ev.Data = raw
	}
	return ev, nil
}

// ClientEvent is the inbound envelope read off a client connection.
// RequestID is echoed back in the ack so the client can sequence
// follow-up actions without waiting on peer delivery.
type ClientEvent struct {
	RequestID string          `json:"request_id"`
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

// JoinRoomPayload is the payload of a join-room event.
type JoinRoomPayload struct {
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username"`
	RoomName string `json:"room_name"`
}

// PromptJoinPayload is the membership notice fanned out to existing
// members when someone joins their room.
type PromptJoinPayload struct {
	Username string `json:"username"`
	RoomName string `json:"room_name"`
}

// messageRouting extracts just enough of a send-message payload to route
// it; the payload itself is relayed to peers verbatim.
type messageRouting struct {
	RoomName string `json:"room_name"`
}

// AckPayload is the completion response sent to the originating client
// once its event has been processed and fan-out handed off.
type AckPayload struct {
	RequestID string          `json:"request_id"`
	OK        bool            `json:"ok"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// RoomSnapshot is returned in the join-room ack so the joining client
// converges on the room's current shared state.
type RoomSnapshot struct {
	RoomName     string   `json:"room_name"`
	WorkMinutes  int      `json:"work_minutes"`
	BreakMinutes int      `json:"break_minutes"`
	Running      bool     `json:"running"`
	Theme        *string  `json:"theme,omitempty"`
	Members      []string `json:"members"`
}

// TimerAck is returned in the start-timer ack with the phase the toggle
// produced.
type TimerAck struct {
	RoomName string `json:"room_name"`
	Running  bool   `json:"running"`
}
