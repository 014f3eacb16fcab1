package service

import (
	"context"
	"fmt"

	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// CatalogService defines operations for the coffee catalogue.
type CatalogService interface {
	// GetAll retrieves coffees with their package options, with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Coffee, error)

	// GetByID retrieves a single coffee by ID.
	GetByID(ctx context.Context, id int64) (*model.Coffee, error)

	// Create validates and stores a new coffee with its options.
	Create(ctx context.Context, req *model.CoffeeRequest) (*model.Coffee, error)

	// Update replaces a coffee and its option set.
	Update(ctx context.Context, id int64, req *model.CoffeeRequest) (*model.Coffee, error)

	// Delete removes a coffee.
	Delete(ctx context.Context, id int64) error
}

// CartService defines operations on the caller's cart.
type CartService interface {
	// Get returns the member's cart, creating an empty one on first access.
	Get(ctx context.Context, memberID uuid.UUID) (*model.Cart, error)

	// AddItem adds quantity units of an option, incrementing an existing line.
	AddItem(ctx context.Context, memberID uuid.UUID, req *model.AddToCartRequest) (*model.Cart, error)

	// UpdateItem sets the quantity of an existing line.
	UpdateItem(ctx context.Context, memberID uuid.UUID, optionID int64, req *model.UpdateCartItemRequest) (*model.Cart, error)

	// RemoveItem drops a line from the cart. An absent option is a no-op.
	RemoveItem(ctx context.Context, memberID uuid.UUID, optionID int64) (*model.Cart, error)

	// Clear empties the cart.
	Clear(ctx context.Context, memberID uuid.UUID) error
}

// AddressService defines operations on a member's address book.
type AddressService interface {
	List(ctx context.Context, memberID uuid.UUID) ([]model.Address, error)
	Create(ctx context.Context, memberID uuid.UUID, req *model.AddressRequest) (*model.Address, error)
	Update(ctx context.Context, memberID uuid.UUID, id int64, req *model.AddressRequest) (*model.Address, error)
	Delete(ctx context.Context, memberID uuid.UUID, id int64) error
}

// CouponService defines coupon browsing and administration.
type CouponService interface {
	// ListUsable returns the active coupons the caller may use.
	ListUsable(ctx context.Context, p model.Principal) ([]model.Coupon, error)

	// Preview shows what a coupon would do to the caller's cart without
	// consuming it.
	Preview(ctx context.Context, p model.Principal, req *model.ValidateCouponRequest) (*model.CouponPreviewResponse, error)

	// ListAll returns every coupon, with pagination.
	ListAll(ctx context.Context, limit, offset int) ([]model.Coupon, error)

	// Create stores a single coupon.
	Create(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error)

	// Import creates coupons for every code in the requested code files.
	Import(ctx context.Context, req *model.CouponImportRequest) (*model.CouponImportResponse, error)
}

// MemberService defines registration, login and profile lookup.
type MemberService interface {
	// Register creates a member and returns an access token for it.
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error)

	// Login checks credentials and returns an access token.
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)

	// Me returns the authenticated member.
	Me(ctx context.Context, p model.Principal) (*model.Member, error)
}

// OrderService defines read access to a member's orders.
type OrderService interface {
	// List retrieves the member's orders, newest first.
	List(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]model.Order, error)

	// GetByID retrieves an order owned by the member.
	GetByID(ctx context.Context, memberID, id uuid.UUID) (*model.Order, error)
}

// clampPage applies the catalogue paging defaults.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// runInTx runs fn in a transaction, committing when it returns nil.
func runInTx(ctx context.Context, txManager repository.TxManager, logger zerolog.Logger, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	tx, err := txManager.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
