package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds outbox worker settings.
type Config struct {
	PollInterval time.Duration
	BatchSize    int32
}

// DefaultConfig returns default worker settings.
func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
	}
}

// Worker polls the outbox table and publishes unsent events. Publishing
// is at-least-once; the publisher's duplicate window handles replays.
type Worker struct {
	db        *sql.DB
	publisher EventPublisher
	config    Config

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewWorker creates an outbox worker over the given database.
func NewWorker(database *sql.DB, publisher EventPublisher, cfg Config) *Worker {
	return &Worker{
		db:        database,
		publisher: publisher,
		config:    cfg,
		stopChan:  make(chan struct{}),
	}
}

// Start launches the polling loop.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	log.Info().
		Dur("poll_interval", w.config.PollInterval).
		Int32("batch_size", w.config.BatchSize).
		Msg("outbox worker started")
	return nil
}

// Stop halts the polling loop and waits for it to finish.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker not running")
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()

	log.Info().Msg("outbox worker stopped")
	return nil
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on start
	w.processOutbox(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		}
	}
}

// processOutbox claims one batch inside a transaction, publishes each
// event, and marks the published ones sent.
func (w *Worker) processOutbox(ctx context.Context) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("outbox: failed to begin transaction")
		return
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	queries := New(tx)
	events, err := queries.FetchUnsent(ctx, w.config.BatchSize)
	if err != nil {
		log.Error().Err(err).Msg("outbox: failed to fetch unsent events")
		return
	}
	if len(events) == 0 {
		committed = true
		_ = tx.Commit()
		return
	}

	published := 0
	for _, event := range events {
		if err := w.publisher.Publish(ctx, event); err != nil {
			// Leave the event unsent; it will be retried next poll.
			log.Error().Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Msg("outbox: failed to publish event")
			continue
		}
		if err := queries.MarkSent(ctx, event.ID, time.Now()); err != nil {
			log.Error().Err(err).
				Str("event_id", event.ID.String()).
				Msg("outbox: failed to mark event sent")
			continue
		}
		published++
	}

	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Msg("outbox: failed to commit batch")
		return
	}
	committed = true

	if published > 0 {
		log.Debug().Int("published", published).Msg("outbox: batch published")
	}
}
