package handler

import (
	"net/http"

	"coffee-shop/internal/model"
	"coffee-shop/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles cart HTTP requests for the authenticated member.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	cart, err := h.service.Get(r.Context(), p.MemberID)
	h.respond(w, cart, err)
}

// AddItem handles POST /api/cart/items requests.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	var req model.AddToCartRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	cart, err := h.service.AddItem(r.Context(), p.MemberID, &req)
	h.respond(w, cart, err)
}

// UpdateItem handles PATCH /api/cart/items/{optionId} requests.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	optionID, ok := pathInt64(w, r, "optionId", h.logger)
	if !ok {
		return
	}

	var req model.UpdateCartItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	cart, err := h.service.UpdateItem(r.Context(), p.MemberID, optionID, &req)
	h.respond(w, cart, err)
}

// RemoveItem handles DELETE /api/cart/items/{optionId} requests.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	optionID, ok := pathInt64(w, r, "optionId", h.logger)
	if !ok {
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), p.MemberID, optionID)
	h.respond(w, cart, err)
}

// Clear handles DELETE /api/cart requests.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), p.MemberID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) respond(w http.ResponseWriter, cart *model.Cart, err error) {
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, cart.ToResponse())
}
