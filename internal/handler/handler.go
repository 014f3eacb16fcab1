package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"coffee-shop/internal/auth"
	"coffee-shop/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// statusByCode maps domain error kinds to HTTP statuses.
var statusByCode = map[string]int{
	model.ErrCodeInvalidJSON:         http.StatusBadRequest,
	model.ErrCodeMissingField:        http.StatusBadRequest,
	model.ErrCodeInvalidArgument:     http.StatusBadRequest,
	model.ErrCodeInvalidCoupon:       http.StatusBadRequest,
	model.ErrCodeCartEmpty:           http.StatusBadRequest,
	model.ErrCodeUnauthorised:        http.StatusUnauthorized,
	model.ErrCodeForbidden:           http.StatusForbidden,
	model.ErrCodeNotFound:            http.StatusNotFound,
	model.ErrCodeInsufficientStock:   http.StatusConflict,
	model.ErrCodeOrderTerminated:     http.StatusConflict,
	model.ErrCodeConflict:            http.StatusConflict,
	model.ErrCodeIdempotencyConflict: http.StatusConflict,
	model.ErrCodePaymentProcessing:   http.StatusPaymentRequired,
	model.ErrCodePaymentSystem:       http.StatusBadGateway,
	model.ErrCodePaymentTimeout:      http.StatusGatewayTimeout,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("error", code).Str("message", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeDomainError maps err to a status code. Errors that carry no domain kind
// are reported as internal errors without exposing their text.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Msg("unexpected error")
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
		return
	}

	status, ok := statusByCode[de.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	writeError(w, status, de.Code, de.Message, logger)
}

// decodeJSON reads a JSON body into dst, writing a 400 response on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, logger zerolog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

// principal returns the authenticated caller, writing a 401 response when the
// request carries none.
func principal(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (model.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		writeDomainError(w, model.ErrUnauthorised, logger)
	}
	return p, ok
}

// pagination parses the limit and offset query parameters.
func pagination(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (limit, offset int, ok bool) {
	limit = 10 // default
	if s := r.URL.Query().Get("limit"); s != "" {
		var err error
		if limit, err = strconv.Atoi(s); err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidArgument, "invalid limit parameter", logger)
			return 0, 0, false
		}
	}

	if s := r.URL.Query().Get("offset"); s != "" {
		var err error
		if offset, err = strconv.Atoi(s); err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidArgument, "invalid offset parameter", logger)
			return 0, 0, false
		}
	}

	return limit, offset, true
}

// pathInt64 parses a numeric path parameter.
func pathInt64(w http.ResponseWriter, r *http.Request, name string, logger zerolog.Logger) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidArgument, "invalid "+name+" parameter", logger)
		return 0, false
	}
	return id, true
}

// pathUUID parses a UUID path parameter.
func pathUUID(w http.ResponseWriter, r *http.Request, name string, logger zerolog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidArgument, "invalid "+name+" parameter", logger)
		return uuid.Nil, false
	}
	return id, true
}
