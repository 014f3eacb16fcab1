package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Address is a shipping address in a member's address book.
type Address struct {
	ID         int64     `json:"id" db:"id"`
	MemberID   uuid.UUID `json:"-" db:"member_id"`
	Street     string    `json:"street" db:"street"`
	City       string    `json:"city" db:"city"`
	PostalCode string    `json:"postalCode" db:"postal_code"`
	Country    string    `json:"country" db:"country"`
	IsDefault  bool      `json:"isDefault" db:"is_default"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// AddressRequest represents the payload for creating or updating an address.
type AddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault"`
}

// Validate checks that every address line is present.
func (r *AddressRequest) Validate() error {
	if strings.TrimSpace(r.Street) == "" || strings.TrimSpace(r.City) == "" ||
		strings.TrimSpace(r.PostalCode) == "" || strings.TrimSpace(r.Country) == "" {
		return NewDomainError(ErrCodeMissingField, "Street, city, postal code and country are required")
	}
	return nil
}
