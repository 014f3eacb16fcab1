package events

import (
	"context"
	"time"

	"coffee-shop/internal/metrics"
	"coffee-shop/internal/repository"

	"github.com/rs/zerolog"
)

// Relay moves outbox rows to the broker. Events are published in outbox order;
// a failed publish stops the batch and is retried on the next tick.
type Relay struct {
	outbox    repository.OutboxRepository
	publisher Publisher
	metrics   *metrics.Metrics
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger
}

// NewRelay creates a relay polling every interval for up to batchSize rows.
func NewRelay(
	outbox repository.OutboxRepository,
	publisher Publisher,
	m *metrics.Metrics,
	interval time.Duration,
	batchSize int,
	logger zerolog.Logger,
) *Relay {
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		metrics:   m,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger.With().Str("component", "outbox-relay").Logger(),
	}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Int("batch_size", r.batchSize).Msg("outbox relay started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.Warn().Err(err).Msg("outbox relay pass failed")
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many events were sent.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	pending, err := r.outbox.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, event := range pending {
		if err := r.publisher.Publish(ctx, event); err != nil {
			r.observe(event.EventType, "failed")
			r.logger.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Msg("failed to publish event")
			return sent, err
		}

		if err := r.outbox.MarkSent(ctx, event.ID); err != nil {
			// published but not marked: the event will be delivered again
			r.observe(event.EventType, "unmarked")
			return sent, err
		}

		r.observe(event.EventType, "sent")
		sent++
	}

	if sent > 0 {
		r.logger.Debug().Int("sent", sent).Msg("outbox batch relayed")
	}
	return sent, nil
}

func (r *Relay) observe(eventType, outcome string) {
	if r.metrics != nil {
		r.metrics.Outbox.WithLabelValues(eventType, outcome).Inc()
	}
}
