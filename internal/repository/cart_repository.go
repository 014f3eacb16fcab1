package repository

import (
	"context"
	"errors"
	"fmt"

	"coffee-shop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository. Every
// method runs on the DBTX it is given.
func NewCartRepository(logger zerolog.Logger) CartRepository {
	return &cartRepository{
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

const selectCartSQL = `SELECT id, member_id, created_at, updated_at FROM carts WHERE member_id = $1`

// GetByMemberID loads a member's cart with its items, or nil if none exists.
func (r *cartRepository) GetByMemberID(ctx context.Context, q DBTX, memberID uuid.UUID) (*model.Cart, error) {
	return r.get(ctx, q, selectCartSQL, memberID)
}

// LockByMemberID loads a member's cart like GetByMemberID and holds a row
// lock on it until tx ends.
func (r *cartRepository) LockByMemberID(ctx context.Context, tx pgx.Tx, memberID uuid.UUID) (*model.Cart, error) {
	return r.get(ctx, tx, selectCartSQL+" FOR UPDATE", memberID)
}

func (r *cartRepository) get(ctx context.Context, q DBTX, cartQuery string, memberID uuid.UUID) (*model.Cart, error) {
	var cart model.Cart
	err := q.QueryRow(ctx, cartQuery, memberID).
		Scan(&cart.ID, &cart.MemberID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("member_id", memberID.String()).Msg("cart not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("member_id", memberID.String()).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	query := `
		SELECT id, cart_id, option_id, coffee_id, product_name, option_name, quantity, price_snapshot
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY position
	`

	rows, err := q.Query(ctx, query, cart.ID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cart.ID.String()).Msg("failed to query cart items")
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = []model.CartItem{}
	for rows.Next() {
		var item model.CartItem
		err := rows.Scan(&item.ID, &item.CartID, &item.OptionID, &item.CoffeeID,
			&item.ProductName, &item.OptionName, &item.Quantity, &item.PriceSnapshot)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart item row")
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart item rows")
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return &cart, nil
}

// Create inserts an empty cart.
func (r *cartRepository) Create(ctx context.Context, q DBTX, cart *model.Cart) error {
	query := `
		INSERT INTO carts (id, member_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (member_id) DO NOTHING
	`

	_, err := q.Exec(ctx, query, cart.ID, cart.MemberID, cart.CreatedAt, cart.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("member_id", cart.MemberID.String()).Msg("failed to create cart")
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// SaveItem inserts or updates a cart line.
func (r *cartRepository) SaveItem(ctx context.Context, q DBTX, item *model.CartItem) error {
	if item.CartID == nil {
		return fmt.Errorf("cart item %s is detached", item.ID)
	}

	query := `
		INSERT INTO cart_items (id, cart_id, option_id, coffee_id, product_name, option_name, quantity, price_snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (cart_id, option_id) DO UPDATE SET quantity = EXCLUDED.quantity
	`

	_, err := q.Exec(ctx, query, item.ID, *item.CartID, item.OptionID, item.CoffeeID,
		item.ProductName, item.OptionName, item.Quantity, item.PriceSnapshot)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("cart_id", item.CartID.String()).
			Int64("option_id", item.OptionID).
			Msg("failed to save cart item")
		return fmt.Errorf("failed to save cart item: %w", err)
	}

	_, err = q.Exec(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, *item.CartID)
	if err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	return nil
}

// DeleteItem removes a single line.
func (r *cartRepository) DeleteItem(ctx context.Context, q DBTX, cartID uuid.UUID, optionID int64) error {
	_, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND option_id = $2`, cartID, optionID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("cart_id", cartID.String()).
			Int64("option_id", optionID).
			Msg("failed to delete cart item")
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// ClearItems removes every line of a cart.
func (r *cartRepository) ClearItems(ctx context.Context, q DBTX, cartID uuid.UUID) error {
	tag, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	r.logger.Debug().
		Str("cart_id", cartID.String()).
		Int64("removed", tag.RowsAffected()).
		Msg("cart cleared")

	return nil
}
