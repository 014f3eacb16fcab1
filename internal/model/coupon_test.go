package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCoupon_Check(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	total := decimal.NewFromInt(40)

	tests := []struct {
		name    string
		coupon  Coupon
		email   string
		wantErr *DomainError
	}{
		{name: "usable", coupon: Coupon{Active: true}, email: "a@b.c"},
		{name: "inactive", coupon: Coupon{Active: false}, wantErr: ErrCouponInactive},
		{name: "expired", coupon: Coupon{Active: true, ExpiresAt: ptr(now.Add(-time.Minute))}, wantErr: ErrCouponExpired},
		{name: "not yet expired", coupon: Coupon{Active: true, ExpiresAt: ptr(now.Add(time.Hour))}},
		{name: "wrong owner", coupon: Coupon{Active: true, UserMail: ptr("x@y.z")}, email: "a@b.c", wantErr: ErrCouponWrongOwner},
		{name: "owner matches ignoring case", coupon: Coupon{Active: true, UserMail: ptr("A@B.c")}, email: "a@b.c"},
		{
			name:    "below minimum",
			coupon:  Coupon{Active: true, MinOrderValue: ptr(decimal.NewFromInt(50))},
			wantErr: ErrCouponMinimumValue,
		},
		{name: "minimum met exactly", coupon: Coupon{Active: true, MinOrderValue: ptr(decimal.NewFromInt(40))}},
		{name: "usage exhausted", coupon: Coupon{Active: true, MaxUse: ptr(2), UsageCount: 2}, wantErr: ErrCouponUsageLimit},
		{
			name:    "expiry checked before owner",
			coupon:  Coupon{Active: true, ExpiresAt: ptr(now.Add(-time.Hour)), UserMail: ptr("x@y.z")},
			email:   "a@b.c",
			wantErr: ErrCouponExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coupon.Check(tt.email, total, now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr.Message, err.Error())
			assert.True(t, errors.Is(err, ErrInvalidCoupon))
		})
	}
}

func TestCoupon_DiscountedTotal(t *testing.T) {
	tests := []struct {
		name  string
		typ   DiscountType
		value string
		total string
		want  string
	}{
		{name: "fixed", typ: DiscountFixed, value: "10", total: "100", want: "90.00"},
		{name: "fixed floors at zero", typ: DiscountFixed, value: "25", total: "19.99", want: "0"},
		{name: "percentage", typ: DiscountPercentage, value: "10", total: "25.50", want: "22.95"},
		{name: "percentage rounds half up", typ: DiscountPercentage, value: "15", total: "10.10", want: "8.59"},
		{name: "percentage rounds half up at midpoint", typ: DiscountPercentage, value: "50", total: "0.05", want: "0.03"},
		{name: "full percentage", typ: DiscountPercentage, value: "100", total: "42.00", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Coupon{DiscountType: tt.typ, DiscountValue: decimal.RequireFromString(tt.value)}
			got := c.DiscountedTotal(decimal.RequireFromString(tt.total))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestCoupon_MarkUsed(t *testing.T) {
	c := Coupon{Active: true, MaxUse: ptr(2)}

	c.MarkUsed()
	assert.Equal(t, 1, c.UsageCount)
	assert.True(t, c.Active)

	c.MarkUsed()
	assert.Equal(t, 2, c.UsageCount)
	assert.False(t, c.Active)

	unlimited := Coupon{Active: true}
	for i := 0; i < 5; i++ {
		unlimited.MarkUsed()
	}
	assert.True(t, unlimited.Active)
	assert.Equal(t, 5, unlimited.UsageCount)
}

func TestCoupon_Validate(t *testing.T) {
	base := func() Coupon {
		return Coupon{Code: " SUMMER ", DiscountType: DiscountFixed, DiscountValue: decimal.NewFromInt(10)}
	}

	c := base()
	require.NoError(t, c.Validate())
	assert.Equal(t, "SUMMER", c.Code)

	c = base()
	c.DiscountType = "BOGUS"
	assert.Error(t, c.Validate())

	c = base()
	c.DiscountValue = decimal.Zero
	assert.Error(t, c.Validate())

	c = base()
	c.DiscountType = DiscountPercentage
	c.DiscountValue = decimal.NewFromInt(101)
	assert.Error(t, c.Validate())

	c = base()
	c.MaxUse = ptr(0)
	assert.Error(t, c.Validate())
}
