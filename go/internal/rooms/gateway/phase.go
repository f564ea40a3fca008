package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/pomopals/pomopals/go/internal/models"
	"github.com/pomopals/pomopals/go/internal/rooms"
	"github.com/rs/zerolog/log"
)

// PhaseStore is the slice of the session store the coordinator needs.
type PhaseStore interface {
	GetRoomByName(ctx context.Context, name string) (*models.Room, error)
	UpdateRoomPhase(ctx context.Context, name string, running bool) (*models.Room, error)
	UpdateRoomSettings(ctx context.Context, name string, req rooms.UpdateRoomSettingsRequest) (*models.Room, error)
}

// roomPhase is the per-room mutable timer state. Its mutex serializes
// all phase mutations for one room; different rooms never contend.
type roomPhase struct {
	mu      sync.Mutex
	running bool
	primed  bool
}

// Coordinator tracks each room's running/paused phase and serializes
// mutations per room. The store call happens while holding only that
// room's lock, never a coordinator-wide one.
type Coordinator struct {
	store PhaseStore

	mu    sync.Mutex
	rooms map[string]*roomPhase

	// onPhase, when set, observes every successful phase change.
	onPhase func(roomName string, running bool)
}

// NewCoordinator creates a phase coordinator over the given store.
func NewCoordinator(store PhaseStore) *Coordinator {
	return &Coordinator{
		store: store,
		rooms: make(map[string]*roomPhase),
	}
}

// OnPhaseChange registers an observer for phase transitions. Must be
// called before the coordinator starts handling traffic.
func (c *Coordinator) OnPhaseChange(fn func(roomName string, running bool)) {
	c.onPhase = fn
}

// entry returns the per-room state, creating it if needed. The
// coordinator-wide lock is held only for the map lookup.
func (c *Coordinator) entry(roomName string) *roomPhase {
	c.mu.Lock()
	defer c.mu.Unlock()

	rp, ok := c.rooms[roomName]
	if !ok {
		rp = &roomPhase{}
		c.rooms[roomName] = rp
	}
	return rp
}

// Prime seeds the in-memory phase flag from a freshly loaded room
// record, typically on the first join. Never overwrites a flag that a
// toggle has already established.
func (c *Coordinator) Prime(roomName string, running bool) {
	rp := c.entry(roomName)
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if !rp.primed {
		rp.running = running
		rp.primed = true
	}
}

// ToggleWork flips the room's running/paused flag and returns the new
// phase. Two concurrent toggles for the same room yield exactly two
// flips. If persisting the flip fails, the in-memory flag is left
// unchanged and the error is surfaced to the caller.
func (c *Coordinator) ToggleWork(ctx context.Context, roomName string) (bool, error) {
	rp := c.entry(roomName)
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if !rp.primed {
		room, err := c.store.GetRoomByName(ctx, roomName)
		if err != nil {
			return false, fmt.Errorf("load room %q phase: %w", roomName, err)
		}
		rp.running = room.Running
		rp.primed = true
	}

	next := !rp.running
	if _, err := c.store.UpdateRoomPhase(ctx, roomName, next); err != nil {
		return rp.running, fmt.Errorf("persist phase for room %q: %w", roomName, err)
	}
	rp.running = next

	log.Info().
		Str("room", roomName).
		Bool("running", next).
		Msg("timer phase toggled")

	if c.onPhase != nil {
		c.onPhase(roomName, next)
	}
	return next, nil
}

// Running reports the room's current in-memory phase flag.
func (c *Coordinator) Running(roomName string) bool {
	rp := c.entry(roomName)
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.running
}

// Settings returns the room's current timer settings.
func (c *Coordinator) Settings(ctx context.Context, roomName string) (models.RoomSettings, error) {
	room, err := c.store.GetRoomByName(ctx, roomName)
	if err != nil {
		return models.RoomSettings{}, fmt.Errorf("get settings for room %q: %w", roomName, err)
	}
	return room.Settings(), nil
}

// UpdateSettings applies a partial settings update; nil fields are left
// unchanged. A persistence failure surfaces ErrSettingsUpdate and does
// not corrupt the in-memory phase flag.
func (c *Coordinator) UpdateSettings(ctx context.Context, roomName string, req rooms.UpdateRoomSettingsRequest) (*models.Room, error) {
	rp := c.entry(roomName)
	rp.mu.Lock()
	defer rp.mu.Unlock()

	room, err := c.store.UpdateRoomSettings(ctx, roomName, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSettingsUpdate, err)
	}
	return room, nil
}

// expireWork is called by the scheduler when a running work interval
// elapses. It flips the room back to paused; a store failure is logged
// and the flag stays running so a later toggle resolves it.
func (c *Coordinator) expireWork(ctx context.Context, roomName string) bool {
	rp := c.entry(roomName)
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if !rp.running {
		return false
	}
	if _, err := c.store.UpdateRoomPhase(ctx, roomName, false); err != nil {
		log.Error().Err(err).Str("room", roomName).Msg("failed to persist work interval expiry")
		return false
	}
	rp.running = false
	return true
}
