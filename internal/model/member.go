package model

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role controls access to admin endpoints.
type Role string

const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// Member is a registered customer.
type Member struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName" db:"last_name"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	MemberID uuid.UUID
	Email    string
	Role     Role
}

// IsAdmin reports whether the caller holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// RegisterRequest represents the payload for creating an account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Validate normalises the email and checks required fields.
func (r *RegisterRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return NewDomainError(ErrCodeInvalidArgument, "A valid email is required")
	}
	if len(r.Password) < MinPasswordLength {
		return NewDomainError(ErrCodeInvalidArgument, "Password must be at least 8 characters")
	}
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return NewDomainError(ErrCodeMissingField, "First and last name are required")
	}
	return nil
}

// LoginRequest represents the payload for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries an access token for the member.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Member    Member    `json:"member"`
}
