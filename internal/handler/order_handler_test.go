package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"coffee-shop/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestOrderHandler_List(t *testing.T) {
	mockService := new(MockOrderService)
	mockService.On("List", mock.Anything, testMember.MemberID, 5, 10).
		Return([]model.Order{{ID: uuid.New(), Status: model.OrderPaid}}, nil)

	h := NewOrderHandler(mockService, zerolog.Nop())
	w := httptest.NewRecorder()
	h.List(w, newRequest(t, http.MethodGet, "/api/orders?limit=5&offset=10", nil, &testMember))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"PAID"`)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_GetByID(t *testing.T) {
	orderID := uuid.New()

	tests := []struct {
		name           string
		id             string
		order          *model.Order
		mockErr        error
		expectService  bool
		expectedStatus int
	}{
		{
			name:           "Success",
			id:             orderID.String(),
			order:          &model.Order{ID: orderID, MemberID: testMember.MemberID, Status: model.OrderPending},
			expectService:  true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Not found",
			id:             orderID.String(),
			mockErr:        model.ErrOrderNotFound,
			expectService:  true,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Invalid UUID",
			id:             "invalid-uuid",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			if tt.expectService {
				if tt.mockErr != nil {
					mockService.On("GetByID", mock.Anything, testMember.MemberID, orderID).Return(nil, tt.mockErr)
				} else {
					mockService.On("GetByID", mock.Anything, testMember.MemberID, orderID).Return(tt.order, nil)
				}
			}

			h := NewOrderHandler(mockService, zerolog.Nop())
			req := newRequest(t, http.MethodGet, "/api/orders/"+tt.id, nil, &testMember)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()

			h.GetByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if !tt.expectService {
				mockService.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
