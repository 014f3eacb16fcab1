package repository

import (
	"context"
	"errors"
	"fmt"

	"coffee-shop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// paymentRepository implements the PaymentRepository interface using PostgreSQL.
type paymentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool *pgxpool.Pool, logger zerolog.Logger) PaymentRepository {
	return &paymentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "payment").Logger(),
	}
}

// Create inserts a payment record.
func (r *paymentRepository) Create(ctx context.Context, tx pgx.Tx, p *model.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, amount, currency, payment_method, payment_intent_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(ctx, query, p.ID, p.OrderID, p.Amount, p.Currency, p.PaymentMethod,
		p.PaymentIntentID, string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", p.OrderID.String()).
			Str("payment_intent_id", p.PaymentIntentID).
			Msg("failed to create payment")
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// UpdateStatusByIntent sets the status of the payment for an intent.
func (r *paymentRepository) UpdateStatusByIntent(ctx context.Context, tx pgx.Tx, intentID string, status model.PaymentStatus) error {
	tag, err := tx.Exec(ctx, `UPDATE payments SET status = $2, updated_at = NOW() WHERE payment_intent_id = $1`, intentID, string(status))
	if err != nil {
		r.logger.Error().Err(err).Str("payment_intent_id", intentID).Msg("failed to update payment status")
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewDomainError(model.ErrCodeNotFound, "Payment not found for intent "+intentID)
	}
	return nil
}

// GetByOrderID retrieves the payment for an order, or nil.
func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error) {
	query := `
		SELECT id, order_id, amount, currency, payment_method, payment_intent_id, status, created_at, updated_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var p model.Payment
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&p.ID, &p.OrderID, &p.Amount, &p.Currency, &p.PaymentMethod, &p.PaymentIntentID, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query payment")
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return &p, nil
}
