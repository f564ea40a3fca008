package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// pendingExpiry is one scheduled work-interval expiry.
type pendingExpiry struct {
	timer    clockwork.Timer
	cancelCh chan struct{}
}

// PhaseScheduler flips a running room back to paused once its work
// duration elapses, so an abandoned timer does not stay running forever.
// Clients keep their own countdown for display; this is the server-side
// backstop. The clock is injectable for tests.
type PhaseScheduler struct {
	phase  *Coordinator
	router *Router
	store  PhaseStore
	clock  clockwork.Clock

	mu      sync.Mutex
	pending map[string]*pendingExpiry
}

// NewPhaseScheduler wires a scheduler into the coordinator's phase
// transitions.
func NewPhaseScheduler(phase *Coordinator, router *Router, store PhaseStore, clock clockwork.Clock) *PhaseScheduler {
	s := &PhaseScheduler{
		phase:   phase,
		router:  router,
		store:   store,
		clock:   clock,
		pending: make(map[string]*pendingExpiry),
	}
	phase.OnPhaseChange(s.onPhaseChange)
	return s
}

// onPhaseChange schedules or cancels the room's expiry timer. It runs
// on the toggling goroutine and must not call back into the coordinator
// for the same room.
func (s *PhaseScheduler) onPhaseChange(roomName string, running bool) {
	if !running {
		s.cancel(roomName)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	room, err := s.store.GetRoomByName(ctx, roomName)
	cancel()
	if err != nil {
		log.Error().Err(err).Str("room", roomName).Msg("cannot schedule work expiry")
		return
	}

	duration := time.Duration(room.WorkMinutes) * time.Minute
	entry := &pendingExpiry{
		timer:    s.clock.NewTimer(duration),
		cancelCh: make(chan struct{}),
	}

	s.mu.Lock()
	if old, ok := s.pending[roomName]; ok {
		stopAndDrainTimer(old.timer)
		close(old.cancelCh)
	}
	s.pending[roomName] = entry
	s.mu.Unlock()

	go s.waitForExpiry(roomName, entry)

	log.Debug().
		Str("room", roomName).
		Dur("work_duration", duration).
		Msg("scheduled work interval expiry")
}

// waitForExpiry blocks until the timer fires or the expiry is
// cancelled, then flips the room back to paused and notifies members.
func (s *PhaseScheduler) waitForExpiry(roomName string, entry *pendingExpiry) {
	select {
	case <-entry.cancelCh:
		return
	case <-entry.timer.Chan():
	}

	s.mu.Lock()
	if s.pending[roomName] == entry {
		delete(s.pending, roomName)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if !s.phase.expireWork(ctx, roomName) {
		return
	}

	log.Info().Str("room", roomName).Msg("work interval elapsed, timer paused")

	done, err := NewRoomEvent(roomName, EventTypeTimerDone, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to build timer-done event")
		return
	}
	s.router.Broadcast(roomName, done, "")
}

// cancel stops any pending expiry for the room.
func (s *PhaseScheduler) cancel(roomName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.pending[roomName]; ok {
		stopAndDrainTimer(entry.timer)
		close(entry.cancelCh)
		delete(s.pending, roomName)
	}
}

// stopAndDrainTimer stops a timer and drains its channel so a stale
// fire cannot leak to a waiter.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
