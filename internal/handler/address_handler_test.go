package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"coffee-shop/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAddressHandler(t *testing.T) {
	req := &model.AddressRequest{Street: "1 Roastery Lane", City: "Berlin", PostalCode: "10115", Country: "DE", IsDefault: true}

	t.Run("list", func(t *testing.T) {
		mockService := new(MockAddressService)
		mockService.On("List", mock.Anything, testMember.MemberID).Return([]model.Address{{ID: 1, City: "Berlin"}}, nil)

		h := NewAddressHandler(mockService, zerolog.Nop())
		w := httptest.NewRecorder()
		h.List(w, newRequest(t, http.MethodGet, "/api/addresses", nil, &testMember))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Berlin")
	})

	t.Run("create", func(t *testing.T) {
		mockService := new(MockAddressService)
		mockService.On("Create", mock.Anything, testMember.MemberID, req).Return(&model.Address{ID: 2}, nil)

		h := NewAddressHandler(mockService, zerolog.Nop())
		w := httptest.NewRecorder()
		h.Create(w, newRequest(t, http.MethodPost, "/api/addresses", req, &testMember))

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("update foreign address", func(t *testing.T) {
		mockService := new(MockAddressService)
		mockService.On("Update", mock.Anything, testMember.MemberID, int64(9), req).Return(nil, model.ErrAddressNotFound)

		h := NewAddressHandler(mockService, zerolog.Nop())
		r := newRequest(t, http.MethodPut, "/api/addresses/9", req, &testMember)
		r.SetPathValue("id", "9")
		w := httptest.NewRecorder()
		h.Update(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		mockService := new(MockAddressService)
		mockService.On("Delete", mock.Anything, testMember.MemberID, int64(2)).Return(nil)

		h := NewAddressHandler(mockService, zerolog.Nop())
		r := newRequest(t, http.MethodDelete, "/api/addresses/2", nil, &testMember)
		r.SetPathValue("id", "2")
		w := httptest.NewRecorder()
		h.Delete(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
