package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Welcome coupon terms.
const (
	WelcomePrefix   = "WELCOME-"
	WelcomeValidity = 30 * 24 * time.Hour
)

// WelcomeDiscount is the percentage granted to new members.
var WelcomeDiscount = decimal.NewFromInt(10)

// Issuer creates coupons on behalf of the shop.
type Issuer interface {
	// IssueWelcome creates a single-use percentage coupon owned by email.
	IssueWelcome(ctx context.Context, q repository.DBTX, email string) (*model.Coupon, error)
}

type issuer struct {
	couponRepo repository.CouponRepository
	now        func() time.Time
	logger     zerolog.Logger
}

// NewIssuer creates a coupon issuer.
func NewIssuer(couponRepo repository.CouponRepository, logger zerolog.Logger) Issuer {
	return &issuer{
		couponRepo: couponRepo,
		now:        time.Now,
		logger:     logger.With().Str("component", "coupon-issuer").Logger(),
	}
}

// IssueWelcome creates a single-use percentage coupon owned by email.
func (i *issuer) IssueWelcome(ctx context.Context, q repository.DBTX, email string) (*model.Coupon, error) {
	now := i.now().UTC()
	expires := now.Add(WelcomeValidity)
	maxUse := 1
	owner := strings.ToLower(email)

	coupon := &model.Coupon{
		Code:          WelcomePrefix + strings.ToUpper(uuid.NewString()[:8]),
		DiscountType:  model.DiscountPercentage,
		DiscountValue: WelcomeDiscount,
		MaxUse:        &maxUse,
		ExpiresAt:     &expires,
		UserMail:      &owner,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := i.couponRepo.Create(ctx, q, coupon); err != nil {
		return nil, fmt.Errorf("failed to issue welcome coupon: %w", err)
	}

	i.logger.Info().
		Str("coupon_code", coupon.Code).
		Str("email", owner).
		Msg("welcome coupon issued")

	return coupon, nil
}
