package handler

import (
	"net/http"
	"strings"

	"coffee-shop/internal/checkout"
	"coffee-shop/internal/model"

	"github.com/rs/zerolog"
)

// IdempotencyKeyHeader carries the client's key for replay-safe checkout starts.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 255

// CheckoutHandler handles the checkout flow and its reconciliation trigger.
type CheckoutHandler struct {
	service checkout.Service
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service checkout.Service, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

// Start handles POST /api/checkout/start requests.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLen {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidArgument, "Idempotency-Key is too long", h.logger)
		return
	}

	var req model.CheckoutStartRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.Start(r.Context(), p, &req, key)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Finalize handles POST /api/checkout/finalize requests. A declined payment
// is a settled outcome and is reported with success=false and status 200.
func (h *CheckoutHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CheckoutFinalizeRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Finalize(r.Context(), p, &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Reconcile handles POST /internal/reconcile requests.
func (h *CheckoutHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Reconcile(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.logger.Info().
		Int("examined", report.Examined).
		Int("paid", report.Paid).
		Int("failed", report.Failed).
		Msg("reconciliation triggered")
	writeJSON(w, http.StatusOK, report)
}
