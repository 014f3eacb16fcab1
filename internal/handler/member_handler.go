package handler

import (
	"net/http"

	"coffee-shop/internal/model"
	"coffee-shop/internal/service"

	"github.com/rs/zerolog"
)

// MemberHandler handles registration, login and profile requests.
type MemberHandler struct {
	service service.MemberService
	logger  zerolog.Logger
}

// NewMemberHandler creates a new member handler.
func NewMemberHandler(service service.MemberService, logger zerolog.Logger) *MemberHandler {
	return &MemberHandler{
		service: service,
		logger:  logger.With().Str("handler", "member").Logger(),
	}
}

// Register handles POST /api/auth/register requests.
func (h *MemberHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login requests.
func (h *MemberHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/members/me requests.
func (h *MemberHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	member, err := h.service.Me(r.Context(), p)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, member)
}
