package payment

import (
	"context"

	"coffee-shop/internal/model"

	"github.com/shopspring/decimal"
)

// Intent statuses reported by the provider.
const (
	StatusSucceeded             = "succeeded"
	StatusProcessing            = "processing"
	StatusRequiresAction        = "requires_action"
	StatusRequiresConfirmation  = "requires_confirmation"
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresCapture       = "requires_capture"
	StatusCanceled              = "canceled"
)

// ErrTimeout is returned when the provider does not answer within the
// configured deadline.
var ErrTimeout = model.NewDomainError(model.ErrCodePaymentTimeout, "Payment provider did not respond in time")

// Intent is the provider's view of an attempted charge.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
}

// Succeeded reports whether the charge went through.
func (i *Intent) Succeeded() bool {
	return i.Status == StatusSucceeded
}

// InFlight reports whether the provider has not reached a decision yet.
func (i *Intent) InFlight() bool {
	switch i.Status {
	case StatusProcessing, StatusRequiresAction, StatusRequiresConfirmation, StatusRequiresCapture:
		return true
	}
	return false
}

// Provider is the external payment service used by checkout.
//
// Errors are domain errors: PAYMENT_PROCESSING when the provider rejected the
// request itself (declined card, bad parameters), PAYMENT_SYSTEM when it could
// not be reached or failed internally, and ErrTimeout when ctx expired.
type Provider interface {
	// CreateIntent opens a payment intent for amount minor units. A non-empty
	// idempotencyKey makes retries of the same attempt return the same intent.
	CreateIntent(ctx context.Context, method string, amount int64, currency, idempotencyKey string) (*Intent, error)

	// ConfirmIntent confirms an intent and returns its resulting status.
	ConfirmIntent(ctx context.Context, id string) (*Intent, error)

	// GetIntent reads the current state of an intent without changing it.
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a currency amount into cents, rounding half up.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
