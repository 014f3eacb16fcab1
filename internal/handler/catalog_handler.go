package handler

import (
	"net/http"

	"coffee-shop/internal/model"
	"coffee-shop/internal/service"

	"github.com/rs/zerolog"
)

// CatalogHandler handles coffee catalogue HTTP requests.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalogue handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// GetAll handles GET /api/coffees requests with pagination.
func (h *CatalogHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}

	coffees, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, coffees)
}

// GetByID handles GET /api/coffees/{id} requests.
func (h *CatalogHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id", h.logger)
	if !ok {
		return
	}

	coffee, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, coffee)
}

// Create handles POST /api/admin/coffees requests.
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CoffeeRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	coffee, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, coffee)
}

// Update handles PUT /api/admin/coffees/{id} requests.
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req model.CoffeeRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	coffee, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, coffee)
}

// Delete handles DELETE /api/admin/coffees/{id} requests.
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
