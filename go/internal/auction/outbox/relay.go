package outbox

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/auction/events"
)

type RelayConfig struct {
	BufferSize     int
	MaxAttempts    int
	RetryBackoff   time.Duration
	PublishTimeout time.Duration
	DrainTimeout   time.Duration
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		BufferSize:     1024,
		MaxAttempts:    3,
		RetryBackoff:   200 * time.Millisecond,
		PublishTimeout: 5 * time.Second,
		DrainTimeout:   5 * time.Second,
	}
}

// RelayStats counts what happened to enqueued events
type RelayStats struct {
	Published uint64 `json:"published"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
}

// Relay decouples the event loop from the publisher. Enqueue never blocks;
// a single goroutine publishes in enqueue order.
type Relay struct {
	publisher EventPublisher
	config    RelayConfig
	queue     chan events.Event

	published atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
	running   atomic.Bool
}

func NewRelay(publisher EventPublisher, config RelayConfig) *Relay {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultRelayConfig().BufferSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	return &Relay{
		publisher: publisher,
		config:    config,
		queue:     make(chan events.Event, config.BufferSize),
	}
}

// Enqueue buffers an event, dropping it when the buffer is full.
func (r *Relay) Enqueue(evt events.Event) {
	select {
	case r.queue <- evt:
	default:
		r.dropped.Add(1)
		log.Warn().
			Str("event_id", evt.ID).
			Str("event_type", string(evt.Type)).
			Str("room_id", evt.RoomID).
			Msg("outbox buffer full, dropping event")
	}
}

// Run publishes until ctx is cancelled, then flushes what is still buffered.
func (r *Relay) Run(ctx context.Context) {
	log.Info().Int("buffer", cap(r.queue)).Msg("outbox relay started")
	r.running.Store(true)
	defer r.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case evt := <-r.queue:
			r.publish(ctx, evt)
		}
	}
}

func (r *Relay) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.DrainTimeout)
	defer cancel()

	for {
		select {
		case evt := <-r.queue:
			r.publish(ctx, evt)
		default:
			stats := r.Stats()
			log.Info().
				Uint64("published", stats.Published).
				Uint64("failed", stats.Failed).
				Uint64("dropped", stats.Dropped).
				Msg("outbox relay stopped")
			return
		}
	}
}

func (r *Relay) publish(ctx context.Context, evt events.Event) {
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, r.config.PublishTimeout)
		err := r.publisher.Publish(pctx, evt)
		cancel()
		if err == nil {
			r.published.Add(1)
			return
		}

		log.Warn().
			Err(err).
			Str("event_id", evt.ID).
			Int("attempt", attempt).
			Msg("failed to publish event")

		if attempt == r.config.MaxAttempts {
			break
		}
		select {
		case <-time.After(r.config.RetryBackoff * time.Duration(attempt)):
		case <-ctx.Done():
			r.failed.Add(1)
			return
		}
	}
	r.failed.Add(1)
	log.Error().
		Str("event_id", evt.ID).
		Str("event_type", string(evt.Type)).
		Str("room_id", evt.RoomID).
		Msg("giving up on event")
}

func (r *Relay) Stats() RelayStats {
	return RelayStats{
		Published: r.published.Load(),
		Failed:    r.failed.Load(),
		Dropped:   r.dropped.Load(),
	}
}

// Pending reports how many events are buffered and not yet published.
func (r *Relay) Pending() int {
	return len(r.queue)
}

// Running reports whether Run is active.
func (r *Relay) Running() bool {
	return r.running.Load()
}

// Close releases the publisher. Call it after Run has returned.
func (r *Relay) Close() error {
	return r.publisher.Close()
}
