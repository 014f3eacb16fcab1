package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutStartRequest represents the payload for starting a checkout.
type CheckoutStartRequest struct {
	AddressID     int64   `json:"addressId"`
	PaymentMethod string  `json:"paymentMethod"`
	CouponCode    *string `json:"couponCode,omitempty"`
}

// CheckoutStartResponse is returned once the order and payment intent exist.
type CheckoutStartResponse struct {
	PaymentIntentID string          `json:"paymentIntentId"`
	OrderID         uuid.UUID       `json:"orderId"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	ClientSecret    string          `json:"clientSecret"`
}

// CheckoutFinalizeRequest represents the payload for settling a checkout.
type CheckoutFinalizeRequest struct {
	OrderID         uuid.UUID `json:"orderId"`
	PaymentIntentID string    `json:"paymentIntentId"`
	CouponCode      *string   `json:"couponCode,omitempty"`
}

// CheckoutResult describes how a finalize call settled the order.
type CheckoutResult struct {
	Success   bool        `json:"success"`
	OrderID   uuid.UUID   `json:"orderId"`
	Status    OrderStatus `json:"status"`
	ErrorCode string      `json:"errorCode,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// ReconcileReport summarises one pass over stale pending orders.
type ReconcileReport struct {
	Examined int `json:"examined"`
	Paid     int `json:"paid"`
	Failed   int `json:"failed"`
	InFlight int `json:"inFlight"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}
