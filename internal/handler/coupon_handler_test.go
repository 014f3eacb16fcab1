package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"coffee-shop/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCouponHandler_ListUsable(t *testing.T) {
	mockService := new(MockCouponService)
	mockService.On("ListUsable", mock.Anything, testMember).Return([]model.Coupon{{Code: "SUMMER"}}, nil)

	h := NewCouponHandler(mockService, zerolog.Nop())
	w := httptest.NewRecorder()
	h.ListUsable(w, newRequest(t, http.MethodGet, "/api/coupons", nil, &testMember))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SUMMER")
}

func TestCouponHandler_Preview(t *testing.T) {
	t.Run("discounted total", func(t *testing.T) {
		mockService := new(MockCouponService)
		mockService.On("Preview", mock.Anything, testMember, &model.ValidateCouponRequest{Code: "SUMMER"}).
			Return(&model.CouponPreviewResponse{
				Code:            "SUMMER",
				CartTotal:       decimal.NewFromInt(100),
				DiscountedTotal: decimal.NewFromInt(85),
				Discount:        decimal.NewFromInt(15),
			}, nil)

		h := NewCouponHandler(mockService, zerolog.Nop())
		w := httptest.NewRecorder()
		h.Preview(w, newRequest(t, http.MethodPost, "/api/coupons/validate",
			&model.ValidateCouponRequest{Code: "SUMMER"}, &testMember))

		require.Equal(t, http.StatusOK, w.Code)

		var resp model.CouponPreviewResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "85.00", resp.DiscountedTotal.StringFixed(2))
	})

	t.Run("expired coupon", func(t *testing.T) {
		mockService := new(MockCouponService)
		mockService.On("Preview", mock.Anything, testMember, mock.Anything).
			Return(nil, model.NewDomainError(model.ErrCodeInvalidCoupon, "Coupon has expired"))

		h := NewCouponHandler(mockService, zerolog.Nop())
		w := httptest.NewRecorder()
		h.Preview(w, newRequest(t, http.MethodPost, "/api/coupons/validate",
			&model.ValidateCouponRequest{Code: "OLD"}, &testMember))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Coupon has expired", decodeErrorBody(t, w).Message)
	})
}

func TestCouponHandler_Admin(t *testing.T) {
	t.Run("list all", func(t *testing.T) {
		mockService := new(MockCouponService)
		mockService.On("ListAll", mock.Anything, 10, 0).Return([]model.Coupon{}, nil)

		h := NewCouponHandler(mockService, zerolog.Nop())
		w := httptest.NewRecorder()
		h.ListAll(w, newRequest(t, http.MethodGet, "/api/admin/coupons", nil, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("create", func(t *testing.T) {
		mockService := new(MockCouponService)
		mockService.On("Create", mock.Anything, mock.MatchedBy(func(r *model.CouponRequest) bool {
			return r.Code == "AUTUMN" && r.DiscountType == model.DiscountFixed
		})).Return(&model.Coupon{Code: "AUTUMN"}, nil)

		h := NewCouponHandler(mockService, zerolog.Nop())
		w := httptest.NewRecorder()
		h.Create(w, newRequest(t, http.MethodPost, "/api/admin/coupons", &model.CouponRequest{
			Code:          "AUTUMN",
			DiscountType:  model.DiscountFixed,
			DiscountValue: decimal.NewFromInt(5),
		}, nil))

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("import", func(t *testing.T) {
		mockService := new(MockCouponService)
		mockService.On("Import", mock.Anything, mock.MatchedBy(func(r *model.CouponImportRequest) bool {
			return len(r.Sources) == 2
		})).Return(&model.CouponImportResponse{Read: 10, Created: 8, Skipped: 2}, nil)

		h := NewCouponHandler(mockService, zerolog.Nop())
		w := httptest.NewRecorder()
		h.Import(w, newRequest(t, http.MethodPost, "/api/admin/coupons/import",
			`{"sources":["couponbase1.gz","couponbase2.gz"],"discountType":"PERCENTAGE","discountValue":"10"}`, nil))

		require.Equal(t, http.StatusOK, w.Code)

		var resp model.CouponImportResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 8, resp.Created)
	})
}
