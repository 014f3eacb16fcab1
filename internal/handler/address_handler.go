package handler

import (
	"net/http"

	"coffee-shop/internal/model"
	"coffee-shop/internal/service"

	"github.com/rs/zerolog"
)

// AddressHandler handles address book HTTP requests.
type AddressHandler struct {
	service service.AddressService
	logger  zerolog.Logger
}

// NewAddressHandler creates a new address handler.
func NewAddressHandler(service service.AddressService, logger zerolog.Logger) *AddressHandler {
	return &AddressHandler{
		service: service,
		logger:  logger.With().Str("handler", "address").Logger(),
	}
}

// List handles GET /api/addresses requests.
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	addresses, err := h.service.List(r.Context(), p.MemberID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, addresses)
}

// Create handles POST /api/addresses requests.
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	var req model.AddressRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	address, err := h.service.Create(r.Context(), p.MemberID, &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, address)
}

// Update handles PUT /api/addresses/{id} requests.
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathInt64(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req model.AddressRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	address, err := h.service.Update(r.Context(), p.MemberID, id, &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, address)
}

// Delete handles DELETE /api/addresses/{id} requests.
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathInt64(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), p.MemberID, id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
