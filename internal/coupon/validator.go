package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// validator implements Validator on the coupon repository.
type validator struct {
	couponRepo repository.CouponRepository
	now        func() time.Time
	logger     zerolog.Logger
}

// NewValidator creates a new coupon validator.
func NewValidator(couponRepo repository.CouponRepository, logger zerolog.Logger) Validator {
	return &validator{
		couponRepo: couponRepo,
		now:        time.Now,
		logger:     logger.With().Str("component", "coupon-validator").Logger(),
	}
}

// Validate checks that code can be used by email on an order of total.
func (v *validator) Validate(ctx context.Context, code, email string, total decimal.Decimal) (*model.Coupon, error) {
	code = normaliseCode(code)

	coupon, err := v.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}

	if err := v.check(coupon, code, email, total); err != nil {
		return nil, err
	}

	return coupon, nil
}

// Apply validates the coupon under a row lock, counts one use and returns the
// discounted total.
func (v *validator) Apply(ctx context.Context, tx pgx.Tx, code, email string, total decimal.Decimal) (*model.Coupon, decimal.Decimal, error) {
	code = normaliseCode(code)

	coupon, err := v.couponRepo.GetByCodeForUpdate(ctx, tx, code)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to lock coupon: %w", err)
	}

	if err := v.check(coupon, code, email, total); err != nil {
		return nil, decimal.Zero, err
	}

	discounted := coupon.DiscountedTotal(total)
	coupon.MarkUsed()

	if err := v.couponRepo.Update(ctx, tx, coupon); err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to record coupon use: %w", err)
	}

	v.logger.Info().
		Str("coupon_code", code).
		Str("total", total.StringFixed(2)).
		Str("discounted_total", discounted.StringFixed(2)).
		Int("usage_count", coupon.UsageCount).
		Msg("coupon applied")

	return coupon, discounted, nil
}

// Rollback reactivates a coupon that was applied by email.
func (v *validator) Rollback(ctx context.Context, tx pgx.Tx, email string, code *string) error {
	if code == nil || strings.TrimSpace(*code) == "" {
		return nil
	}
	normalised := normaliseCode(*code)

	coupon, err := v.couponRepo.GetByCodeForUpdate(ctx, tx, normalised)
	if err != nil {
		return fmt.Errorf("failed to lock coupon: %w", err)
	}

	if coupon == nil || (coupon.UserMail != nil && !strings.EqualFold(*coupon.UserMail, email)) {
		v.logger.Warn().
			Str("coupon_code", normalised).
			Msg("no coupon to roll back for member")
		return model.NewDomainError(model.ErrCodeNotFound,
			fmt.Sprintf("Coupon %s not found for %s", normalised, email))
	}

	// persisted even when already active
	coupon.Active = true
	if err := v.couponRepo.Update(ctx, tx, coupon); err != nil {
		return fmt.Errorf("failed to reactivate coupon: %w", err)
	}

	v.logger.Info().Str("coupon_code", normalised).Msg("coupon rolled back")

	return nil
}

func (v *validator) check(coupon *model.Coupon, code, email string, total decimal.Decimal) error {
	if coupon == nil {
		v.logger.Debug().Str("coupon_code", code).Msg("coupon not found")
		return model.ErrCouponInactive
	}

	if err := coupon.Check(email, total, v.now()); err != nil {
		v.logger.Debug().
			Err(err).
			Str("coupon_code", code).
			Str("total", total.StringFixed(2)).
			Msg("coupon rejected")
		return err
	}

	return nil
}

// normaliseCode trims and upper-cases a user-supplied code.
func normaliseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
