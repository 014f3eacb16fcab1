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

func cartWithGuji(quantity int) *model.Cart {
	cart := model.NewCart(testMember.MemberID)
	cart.Items = []model.CartItem{{
		OptionID:      2,
		CoffeeID:      1,
		ProductName:   "Ethiopia Guji",
		OptionName:    "250g",
		Quantity:      quantity,
		PriceSnapshot: decimal.RequireFromString("9.90"),
	}}
	return cart
}

func TestCartHandler_Get(t *testing.T) {
	mockService := new(MockCartService)
	mockService.On("Get", mock.Anything, testMember.MemberID).Return(cartWithGuji(2), nil)

	h := NewCartHandler(mockService, zerolog.Nop())
	w := httptest.NewRecorder()
	h.Get(w, newRequest(t, http.MethodGet, "/api/cart", nil, &testMember))

	require.Equal(t, http.StatusOK, w.Code)

	var resp model.CartResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assert.Equal(t, "19.80", resp.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "19.80", resp.TotalAmount.StringFixed(2))
}

func TestCartHandler_AddItem(t *testing.T) {
	tests := []struct {
		name           string
		principal      *model.Principal
		body           interface{}
		mockErr        error
		expectService  bool
		expectedStatus int
	}{
		{
			name:           "Success",
			principal:      &testMember,
			body:           &model.AddToCartRequest{OptionID: 2, Quantity: 1},
			expectService:  true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Insufficient stock",
			principal:      &testMember,
			body:           &model.AddToCartRequest{OptionID: 2, Quantity: 50},
			mockErr:        model.ErrInsufficientStock,
			expectService:  true,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "Unknown option",
			principal:      &testMember,
			body:           &model.AddToCartRequest{OptionID: 404, Quantity: 1},
			mockErr:        model.ErrOptionNotFound,
			expectService:  true,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Malformed body",
			principal:      &testMember,
			body:           `{"optionId":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Anonymous caller",
			body:           &model.AddToCartRequest{OptionID: 2, Quantity: 1},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockCartService)
			if tt.expectService {
				if tt.mockErr != nil {
					mockService.On("AddItem", mock.Anything, testMember.MemberID, mock.Anything).Return(nil, tt.mockErr)
				} else {
					mockService.On("AddItem", mock.Anything, testMember.MemberID, mock.Anything).Return(cartWithGuji(1), nil)
				}
			}

			h := NewCartHandler(mockService, zerolog.Nop())
			w := httptest.NewRecorder()
			h.AddItem(w, newRequest(t, http.MethodPost, "/api/cart/items", tt.body, tt.principal))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if !tt.expectService {
				mockService.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCartHandler_UpdateAndRemove(t *testing.T) {
	mockService := new(MockCartService)
	mockService.On("UpdateItem", mock.Anything, testMember.MemberID, int64(2), &model.UpdateCartItemRequest{Quantity: 3}).
		Return(cartWithGuji(3), nil)
	mockService.On("RemoveItem", mock.Anything, testMember.MemberID, int64(5)).
		Return(cartWithGuji(3), nil)

	h := NewCartHandler(mockService, zerolog.Nop())

	req := newRequest(t, http.MethodPatch, "/api/cart/items/2", &model.UpdateCartItemRequest{Quantity: 3}, &testMember)
	req.SetPathValue("optionId", "2")
	w := httptest.NewRecorder()
	h.UpdateItem(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = newRequest(t, http.MethodDelete, "/api/cart/items/5", nil, &testMember)
	req.SetPathValue("optionId", "5")
	w = httptest.NewRecorder()
	h.RemoveItem(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var cart model.CartResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	mockService.AssertExpectations(t)
}

func TestCartHandler_Clear(t *testing.T) {
	mockService := new(MockCartService)
	mockService.On("Clear", mock.Anything, testMember.MemberID).Return(nil)

	h := NewCartHandler(mockService, zerolog.Nop())
	w := httptest.NewRecorder()
	h.Clear(w, newRequest(t, http.MethodDelete, "/api/cart", nil, &testMember))

	assert.Equal(t, http.StatusNoContent, w.Code)
}
