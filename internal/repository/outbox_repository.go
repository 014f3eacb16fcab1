package repository

import (
	"context"
	"fmt"

	"coffee-shop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// outboxRepository implements the OutboxRepository interface using PostgreSQL.
type outboxRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOutboxRepository creates a new PostgreSQL-backed outbox repository.
func NewOutboxRepository(pool *pgxpool.Pool, logger zerolog.Logger) OutboxRepository {
	return &outboxRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "outbox").Logger(),
	}
}

// Insert stores an event as part of the caller's unit of work.
func (r *outboxRepository) Insert(ctx context.Context, q DBTX, e *model.OutboxEvent) error {
	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query, e.ID, e.AggregateType, e.AggregateID, e.EventType, []byte(e.Payload), e.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("event_type", e.EventType).
			Str("aggregate_id", e.AggregateID).
			Msg("failed to insert outbox event")
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// FetchPending returns unsent events, oldest first.
func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at, sent_at
		FROM outbox
		WHERE sent_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query outbox")
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var events []model.OutboxEvent
	for rows.Next() {
		var e model.OutboxEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &payload, &e.CreatedAt, &e.SentAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan outbox row")
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		e.Payload = payload
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating outbox rows")
		return nil, fmt.Errorf("error iterating outbox: %w", err)
	}

	return events, nil
}

// MarkSent stamps an event as delivered.
func (r *outboxRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE outbox SET sent_at = NOW() WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("event_id", id.String()).Msg("failed to mark outbox event sent")
		return fmt.Errorf("failed to mark outbox event sent: %w", err)
	}
	return nil
}
