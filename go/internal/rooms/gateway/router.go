package gateway

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// broadcastMessage is one fan-out request queued on the router.
type broadcastMessage struct {
	Room          string
	Event         *RoomEvent
	ExcludeConnID string // the sender, skipped during delivery; "" targets everyone
}

// Router fans outbound events out to the members of a room. All
// broadcasts pass through a single buffered channel drained by one
// goroutine: each sender enqueues its events in issue order, so delivery
// to any given peer preserves per-sender FIFO. Delivery to each target
// is fire-and-forget; an unreachable target is dropped silently and
// never fails the broadcast for the others.
type Router struct {
	registry    *Registry
	broadcastCh chan broadcastMessage
}

// NewRouter creates a router over the given registry.
func NewRouter(registry *Registry) *Router {
	return &Router{
		registry:    registry,
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

// Start drains the broadcast queue until the context is cancelled.
func (r *Router) Start(ctx context.Context) {
	log.Info().Msg("event router started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event router shutting down")
			return
		case message := <-r.broadcastCh:
			r.deliver(message)
		}
	}
}

// Broadcast queues an event for delivery to every member of the room
// except the excluded connection. It never blocks and never returns an
// error to the caller; a full queue drops the message with a warning.
func (r *Router) Broadcast(roomName string, event *RoomEvent, excludeConnID string) {
	select {
	case r.broadcastCh <- broadcastMessage{Room: roomName, Event: event, ExcludeConnID: excludeConnID}:
	default:
		log.Warn().
			Str("room", roomName).
			Str("event_type", string(event.Type)).
			Msg("broadcast channel full, dropping message")
	}
}

// deliver computes the target set, marshals the event once, and pushes
// it onto each target's send queue.
func (r *Router) deliver(message broadcastMessage) {
	members := r.registry.MembersOf(message.Room)
	if len(members) == 0 {
		return
	}

	targets := members[:0]
	for _, conn := range members {
		if message.ExcludeConnID != "" && conn.ID == message.ExcludeConnID {
			continue
		}
		targets = append(targets, conn)
	}
	if len(targets) == 0 {
		return
	}

	eventData, err := json.Marshal(message.Event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	delivered := 0
	for _, conn := range targets {
		if conn.trySend(eventData) {
			delivered++
			continue
		}
		// Slow, dead, or already-closed target: drop it from the room
		// and move on. The failure is never surfaced to the sender.
		log.Warn().
			Str("connection_id", conn.ID).
			Str("room", message.Room).
			Msg("connection unreachable, dropping from room")
		r.registry.Leave(conn)
		conn.closeSend()
		if conn.Conn != nil {
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("event_type", string(message.Event.Type)).
		Str("room", message.Room).
		Int("delivered", delivered).
		Msg("event fanned out")
}

// SendTo queues an event directly to one connection, bypassing room
// targeting. Used for acks back to the originating client.
func (r *Router) SendTo(conn *Connection, event *RoomEvent) {
	eventData, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for direct send")
		return
	}
	if !conn.trySend(eventData) {
		log.Warn().
			Str("connection_id", conn.ID).
			Msg("connection unreachable, dropping direct send")
	}
}
