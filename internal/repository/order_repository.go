package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coffee-shop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderColumns = `id, member_id, address_id, coffee_sub_total, shipping_fee, discount_amount, total_amount,
	shipping_method, coupon_code, payment_intent_id, status, created_at, updated_at, shipped_at, delivered_at`

func scanOrder(row pgx.Row, o *model.Order) error {
	return row.Scan(
		&o.ID,
		&o.MemberID,
		&o.AddressID,
		&o.CoffeeSubTotal,
		&o.ShippingFee,
		&o.DiscountAmount,
		&o.TotalAmount,
		&o.ShippingMethod,
		&o.CouponCode,
		&o.PaymentIntentID,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.ShippedAt,
		&o.DeliveredAt,
	)
}

// Create recalculates the order totals and inserts it with its items. This
// is the only path through which totals are written.
func (r *orderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	order.RecalculateTotals()

	query := `
		INSERT INTO orders (id, member_id, address_id, coffee_sub_total, shipping_fee, discount_amount, total_amount,
			shipping_method, coupon_code, payment_intent_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.MemberID,
		order.AddressID,
		order.CoffeeSubTotal,
		order.ShippingFee,
		order.DiscountAmount,
		order.TotalAmount,
		string(order.ShippingMethod),
		order.CouponCode,
		order.PaymentIntentID,
		string(order.Status),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err := r.createItems(ctx, tx, order.Items); err != nil {
		return err
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("order created successfully")

	return nil
}

func (r *orderRepository) createItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, option_id, product_name, option_name, quantity, price, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.OptionID, item.ProductName, item.OptionName, item.Quantity, item.Price, i)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Int64("option_id", items[i].OptionID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order model.Order
	if err := scanOrder(r.pool.QueryRow(ctx, query, id), &order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	orders := []model.Order{order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// ListByMember retrieves a member's orders, newest first.
func (r *orderRepository) ListByMember(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE member_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, memberID, limit, offset)
}

// ListStalePending returns pending orders with an intent created before olderThan.
func (r *orderRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE status = 'PENDING' AND payment_intent_id IS NOT NULL AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`
	return r.list(ctx, query, olderThan, limit)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepository) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []model.OrderItem{}
	}

	query := `
		SELECT id, order_id, option_id, product_name, option_name, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("orders", len(ids)).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.OptionID, &item.ProductName, &item.OptionName, &item.Quantity, &item.Price)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

// UpdateStatusIf moves the order to `to` only if it is currently in `from`.
func (r *orderRepository) UpdateStatusIf(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	query := `
		UPDATE orders
		SET status = $3,
			updated_at = NOW(),
			shipped_at = CASE WHEN $3 = 'SHIPPED' THEN NOW() ELSE shipped_at END,
			delivered_at = CASE WHEN $3 = 'DELIVERED' THEN NOW() ELSE delivered_at END
		WHERE id = $1 AND status = $2
	`

	tag, err := tx.Exec(ctx, query, id, string(from), string(to))
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("failed to update order status")
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	// no row means the order is gone or was settled concurrently
	return tag.RowsAffected() > 0, nil
}

// SetPaymentIntent records the provider intent id.
func (r *orderRepository) SetPaymentIntent(ctx context.Context, tx pgx.Tx, id uuid.UUID, intentID string) error {
	tag, err := tx.Exec(ctx, `UPDATE orders SET payment_intent_id = $2, updated_at = NOW() WHERE id = $1`, id, intentID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to set payment intent")
		return fmt.Errorf("failed to set payment intent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}
