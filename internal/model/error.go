package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses. Every DomainError carries one of these
// as its kind.
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInvalidArgument     = "INVALID_ARGUMENT"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeInvalidCoupon       = "INVALID_COUPON"
	ErrCodeCartEmpty           = "CART_EMPTY"
	ErrCodeOrderTerminated     = "ORDER_ALREADY_TERMINATED"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeConflict            = "CONFLICT"
	ErrCodePaymentProcessing   = "PAYMENT_PROCESSING"
	ErrCodePaymentSystem       = "PAYMENT_SYSTEM"
	ErrCodeIllegalState        = "ILLEGAL_STATE"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodePaymentFailed       = "PAYMENT_FAILED"
	ErrCodePaymentTimeout      = "PAYMENT_TIMEOUT"
	ErrCodeIdempotencyConflict = "IDEMPOTENCY_CONFLICT"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError of the same kind, so that
// errors.Is(err, ErrInvalidCoupon) holds for every coupon failure.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// CodeOf returns the kind of a domain error anywhere in err's chain, or
// ErrCodeInternalError when err carries none.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}

// Common domain errors
var (
	ErrNotFound               = NewDomainError(ErrCodeNotFound, "Resource not found")
	ErrInvalidArgument        = NewDomainError(ErrCodeInvalidArgument, "Invalid argument")
	ErrInvalidQuantity        = NewDomainError(ErrCodeInvalidArgument, "Quantity must be greater than zero")
	ErrInsufficientStock      = NewDomainError(ErrCodeInsufficientStock, "Not enough stock for the requested quantity")
	ErrInvalidCoupon          = NewDomainError(ErrCodeInvalidCoupon, "Coupon is not valid")
	ErrCartEmpty              = NewDomainError(ErrCodeCartEmpty, "Cart is empty")
	ErrOrderAlreadyTerminated = NewDomainError(ErrCodeOrderTerminated, "Order is no longer pending")
	ErrUnauthorised           = NewDomainError(ErrCodeUnauthorised, "Authentication required")
	ErrForbidden              = NewDomainError(ErrCodeForbidden, "Access denied")
	ErrConflict               = NewDomainError(ErrCodeConflict, "Resource already exists")
	ErrPaymentProcessing      = NewDomainError(ErrCodePaymentProcessing, "Payment was rejected by the provider")
	ErrPaymentSystem          = NewDomainError(ErrCodePaymentSystem, "Payment provider unavailable")
	ErrPaymentInFlight        = NewDomainError(ErrCodePaymentProcessing, "Payment is still being processed")
	ErrIllegalState           = NewDomainError(ErrCodeIllegalState, "Illegal state")

	ErrCoffeeNotFound  = NewDomainError(ErrCodeNotFound, "Coffee not found")
	ErrOptionNotFound  = NewDomainError(ErrCodeNotFound, "One or more package options not found")
	ErrOrderNotFound   = NewDomainError(ErrCodeNotFound, "Order not found")
	ErrAddressNotFound = NewDomainError(ErrCodeNotFound, "Address not found")
	ErrMemberNotFound  = NewDomainError(ErrCodeNotFound, "Member not found")
	ErrCouponNotFound  = NewDomainError(ErrCodeNotFound, "Coupon not found")

	ErrOptionReserved = NewDomainError(ErrCodeConflict, "Package option is reserved by a pending order")

	ErrCouponInactive     = NewDomainError(ErrCodeInvalidCoupon, "Coupon not found or inactive")
	ErrCouponExpired      = NewDomainError(ErrCodeInvalidCoupon, "Coupon expired")
	ErrCouponWrongOwner   = NewDomainError(ErrCodeInvalidCoupon, "Invalid user email")
	ErrCouponMinimumValue = NewDomainError(ErrCodeInvalidCoupon, "Order total is below the coupon minimum value")
	ErrCouponUsageLimit   = NewDomainError(ErrCodeInvalidCoupon, "Coupon usage limit reached")

	ErrEmailTaken         = NewDomainError(ErrCodeConflict, "Email is already registered")
	ErrInvalidCredentials = NewDomainError(ErrCodeUnauthorised, "Invalid email or password")
	ErrCheckoutInProgress = NewDomainError(ErrCodeIdempotencyConflict, "A checkout with this idempotency key is already in progress")
)
