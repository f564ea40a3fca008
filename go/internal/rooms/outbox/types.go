package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types recorded for room activity.
const (
	EventTypeRoomCreated     = "RoomCreated"
	EventTypeTimerToggled    = "TimerToggled"
	EventTypeSettingsUpdated = "SettingsUpdated"
)

// OutboxEvent is one room domain event awaiting publication. Events are
// inserted in the same transaction as the mutation they describe and
// published asynchronously by the worker.
type OutboxEvent struct {
	ID        uuid.UUID
	RoomName  string
	EventType string
	Payload   []byte
	CreatedAt time.Time
	SentAt    *time.Time
}

// EventPublisher delivers outbox events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}
