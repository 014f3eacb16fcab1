package handler

import (
	"net/http"

	"coffee-shop/internal/model"
	"coffee-shop/internal/service"

	"github.com/rs/zerolog"
)

// CouponHandler handles coupon HTTP requests for members and administrators.
type CouponHandler struct {
	service service.CouponService
	logger  zerolog.Logger
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(service service.CouponService, logger zerolog.Logger) *CouponHandler {
	return &CouponHandler{
		service: service,
		logger:  logger.With().Str("handler", "coupon").Logger(),
	}
}

// ListUsable handles GET /api/coupons requests.
func (h *CouponHandler) ListUsable(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	coupons, err := h.service.ListUsable(r.Context(), p)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, coupons)
}

// Preview handles POST /api/coupons/validate requests.
func (h *CouponHandler) Preview(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	var req model.ValidateCouponRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	preview, err := h.service.Preview(r.Context(), p, &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

// ListAll handles GET /api/admin/coupons requests.
func (h *CouponHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}

	coupons, err := h.service.ListAll(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, coupons)
}

// Create handles POST /api/admin/coupons requests.
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CouponRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	c, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// Import handles POST /api/admin/coupons/import requests.
func (h *CouponHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req model.CouponImportRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.Import(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
