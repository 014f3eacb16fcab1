package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coffee-shop/internal/coupon"
	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/rs/zerolog"
)

// couponService implements CouponService.
type couponService struct {
	couponRepo repository.CouponRepository
	cartRepo   repository.CartRepository
	validator  coupon.Validator
	importer   coupon.Importer
	db         repository.DBTX
	logger     zerolog.Logger
}

// NewCouponService creates a new coupon service.
func NewCouponService(
	couponRepo repository.CouponRepository,
	cartRepo repository.CartRepository,
	validator coupon.Validator,
	importer coupon.Importer,
	db repository.DBTX,
	logger zerolog.Logger,
) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		cartRepo:   cartRepo,
		validator:  validator,
		importer:   importer,
		db:         db,
		logger:     logger.With().Str("service", "coupon").Logger(),
	}
}

// ListUsable returns active coupons that are open or owned by the caller.
func (s *couponService) ListUsable(ctx context.Context, p model.Principal) ([]model.Coupon, error) {
	coupons, err := s.couponRepo.ListUsableBy(ctx, p.Email, time.Now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Str("member_id", p.MemberID.String()).Msg("failed to list usable coupons")
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

// Preview validates a coupon against the caller's cart total.
func (s *couponService) Preview(ctx context.Context, p model.Principal, req *model.ValidateCouponRequest) (*model.CouponPreviewResponse, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Coupon code is required")
	}

	cart, err := s.cartRepo.GetByMemberID(ctx, s.db, p.MemberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart == nil || cart.IsEmpty() {
		return nil, model.ErrCartEmpty
	}

	total := cart.TotalAmount()
	c, err := s.validator.Validate(ctx, req.Code, p.Email, total)
	if err != nil {
		s.logger.Debug().Err(err).Str("coupon_code", req.Code).Msg("coupon preview rejected")
		return nil, err
	}

	discounted := c.DiscountedTotal(total)
	return &model.CouponPreviewResponse{
		Code:            c.Code,
		CartTotal:       total,
		DiscountedTotal: discounted,
		Discount:        total.Sub(discounted),
	}, nil
}

// ListAll returns every coupon, with pagination.
func (s *couponService) ListAll(ctx context.Context, limit, offset int) ([]model.Coupon, error) {
	limit, offset = clampPage(limit, offset)

	coupons, err := s.couponRepo.ListAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list coupons")
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

// Create stores a single coupon. Codes are stored upper-case.
func (s *couponService) Create(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error) {
	c := req.ToCoupon()
	c.Code = strings.ToUpper(c.Code)
	if c.UserMail != nil {
		owner := strings.ToLower(strings.TrimSpace(*c.UserMail))
		c.UserMail = &owner
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.couponRepo.Create(ctx, s.db, c); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("coupon_code", c.Code).
		Str("discount_type", string(c.DiscountType)).
		Str("discount_value", c.DiscountValue.String()).
		Msg("coupon created")

	return c, nil
}

// Import creates coupons from code files.
func (s *couponService) Import(ctx context.Context, req *model.CouponImportRequest) (*model.CouponImportResponse, error) {
	return s.importer.Import(ctx, req)
}
