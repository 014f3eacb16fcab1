package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a coupon's value is applied.
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

var hundred = decimal.NewFromInt(100)

// Coupon is a discount code. A nil UserMail means anyone may use it.
type Coupon struct {
	ID            int64            `json:"id" db:"id"`
	Code          string           `json:"code" db:"code"`
	DiscountType  DiscountType     `json:"discountType" db:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discountValue" db:"discount_value"`
	MinOrderValue *decimal.Decimal `json:"minOrderValue,omitempty" db:"min_order_value"`
	MaxUse        *int             `json:"maxUse,omitempty" db:"max_use"`
	UsageCount    int              `json:"usageCount" db:"usage_count"`
	ExpiresAt     *time.Time       `json:"expiresAt,omitempty" db:"expires_at"`
	UserMail      *string          `json:"userMail,omitempty" db:"user_mail"`
	Active        bool             `json:"active" db:"active"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time        `json:"updatedAt" db:"updated_at"`
}

// Check runs the usability rules in order and returns the first failure.
func (c *Coupon) Check(email string, orderTotal decimal.Decimal, now time.Time) error {
	if !c.Active {
		return ErrCouponInactive
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return ErrCouponExpired
	}
	if c.UserMail != nil && !strings.EqualFold(*c.UserMail, email) {
		return ErrCouponWrongOwner
	}
	if c.MinOrderValue != nil && orderTotal.LessThan(*c.MinOrderValue) {
		return ErrCouponMinimumValue
	}
	if c.MaxUse != nil && c.UsageCount >= *c.MaxUse {
		return ErrCouponUsageLimit
	}
	return nil
}

// DiscountedTotal applies the coupon to orderTotal. Percentages are rounded
// half-up to cents and the result never drops below zero.
func (c *Coupon) DiscountedTotal(orderTotal decimal.Decimal) decimal.Decimal {
	var result decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		factor := decimal.NewFromInt(1).Sub(c.DiscountValue.Div(hundred))
		result = orderTotal.Mul(factor).Round(2)
	default:
		result = orderTotal.Sub(c.DiscountValue)
	}
	if result.IsNegative() {
		return decimal.Zero
	}
	return result
}

// MarkUsed counts one use and deactivates the coupon once the cap is reached.
func (c *Coupon) MarkUsed() {
	c.UsageCount++
	if c.MaxUse != nil && c.UsageCount >= *c.MaxUse {
		c.Active = false
	}
	c.UpdatedAt = time.Now().UTC()
}

// Validate checks a coupon definition before it is stored.
func (c *Coupon) Validate() error {
	c.Code = strings.TrimSpace(c.Code)
	if c.Code == "" {
		return NewDomainError(ErrCodeInvalidArgument, "Coupon code is required")
	}
	if !c.DiscountType.Valid() {
		return NewDomainError(ErrCodeInvalidArgument, "Discount type must be PERCENTAGE or FIXED")
	}
	if !c.DiscountValue.IsPositive() {
		return NewDomainError(ErrCodeInvalidArgument, "Discount value must be positive")
	}
	if c.DiscountType == DiscountPercentage && c.DiscountValue.GreaterThan(hundred) {
		return NewDomainError(ErrCodeInvalidArgument, "Percentage discount cannot exceed 100")
	}
	if c.MaxUse != nil && *c.MaxUse <= 0 {
		return NewDomainError(ErrCodeInvalidArgument, "Max use must be positive")
	}
	return nil
}

// CouponRequest is the admin payload for a single coupon. It doubles as the
// template for bulk imports, where Code is ignored.
type CouponRequest struct {
	Code          string           `json:"code"`
	DiscountType  DiscountType     `json:"discountType"`
	DiscountValue decimal.Decimal  `json:"discountValue"`
	MinOrderValue *decimal.Decimal `json:"minOrderValue,omitempty"`
	MaxUse        *int             `json:"maxUse,omitempty"`
	ExpiresAt     *time.Time       `json:"expiresAt,omitempty"`
	UserMail      *string          `json:"userMail,omitempty"`
}

// ToCoupon builds an active coupon from the request.
func (r *CouponRequest) ToCoupon() *Coupon {
	now := time.Now().UTC()
	return &Coupon{
		Code:          strings.TrimSpace(r.Code),
		DiscountType:  r.DiscountType,
		DiscountValue: r.DiscountValue,
		MinOrderValue: r.MinOrderValue,
		MaxUse:        r.MaxUse,
		ExpiresAt:     r.ExpiresAt,
		UserMail:      r.UserMail,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CouponImportRequest asks for every code in Sources to be created from the
// embedded template.
type CouponImportRequest struct {
	Sources []string `json:"sources"`
	CouponRequest
}

// CouponImportResponse reports the outcome of a bulk import. Read counts
// distinct codes across all sources.
type CouponImportResponse struct {
	Sources  []string `json:"sources"`
	Read     int      `json:"read"`
	Created  int      `json:"created"`
	Skipped  int      `json:"skipped"`
	Duration string   `json:"duration"`
}

// ValidateCouponRequest asks for a preview of a coupon against the cart.
type ValidateCouponRequest struct {
	Code string `json:"code"`
}

// CouponPreviewResponse shows what a coupon would do to the current cart.
type CouponPreviewResponse struct {
	Code            string          `json:"code"`
	CartTotal       decimal.Decimal `json:"cartTotal"`
	DiscountedTotal decimal.Decimal `json:"discountedTotal"`
	Discount        decimal.Decimal `json:"discount"`
}
