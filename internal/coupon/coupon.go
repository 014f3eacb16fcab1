package coupon

import (
	"context"

	"coffee-shop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Validator checks, consumes and releases coupons.
type Validator interface {
	// Validate checks that code can be used by email on an order of total.
	// A usable coupon must:
	// - Exist and be active
	// - Not be expired
	// - Belong to email, or to nobody
	// - Have a minimum order value no higher than total
	// - Have uses left
	// It does not change the coupon.
	Validate(ctx context.Context, code, email string, total decimal.Decimal) (*model.Coupon, error)

	// Apply validates the coupon under a row lock, counts one use and returns
	// the discounted total. The change is part of tx.
	Apply(ctx context.Context, tx pgx.Tx, code, email string, total decimal.Decimal) (*model.Coupon, decimal.Decimal, error)

	// Rollback reactivates a coupon that was applied by email. A nil code is
	// a no-op. Usage is not decremented.
	Rollback(ctx context.Context, tx pgx.Tx, email string, code *string) error
}

// CouponSet represents a set of coupon codes for fast lookup.
type CouponSet interface {
	// Contains checks if a coupon code exists in the set.
	Contains(code string) bool

	// Size returns the number of coupons in the set.
	Size() int

	// Codes returns the codes in the order they were first added.
	Codes() []string
}

// Loader defines the interface for loading coupon files.
type Loader interface {
	// Load reads a gzipped coupon file and returns a CouponSet.
	Load(ctx context.Context, filePath string) (CouponSet, error)
}
