package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending       OrderStatus = "PENDING"
	OrderPaid          OrderStatus = "PAID"
	OrderPaymentFailed OrderStatus = "PAYMENT_FAILED"
	OrderShipped       OrderStatus = "SHIPPED"
	OrderDelivered     OrderStatus = "DELIVERED"
	OrderCanceled      OrderStatus = "CANCELED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:       {OrderPaid, OrderPaymentFailed, OrderCanceled},
	OrderPaymentFailed: {OrderCanceled},
	OrderPaid:          {OrderShipped},
	OrderShipped:       {OrderDelivered},
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCanceled
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ShippingMethod determines the shipping fee of an order.
type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "STANDARD"
	ShippingFree     ShippingMethod = "FREE"
)

var (
	// FreeShippingThreshold is the subtotal from which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(50)
	standardShippingFee   = decimal.RequireFromString("5.99")
)

// ShippingPolicyFor picks the shipping method for a coffee subtotal.
func ShippingPolicyFor(subtotal decimal.Decimal) ShippingMethod {
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return ShippingFree
	}
	return ShippingStandard
}

// Fee returns the fee charged for the method.
func (m ShippingMethod) Fee() decimal.Decimal {
	if m == ShippingFree {
		return decimal.Zero
	}
	return standardShippingFee
}

// Order represents a member's order. Totals are derived from Items by
// RecalculateTotals and are never taken from input.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	MemberID        uuid.UUID       `json:"memberId" db:"member_id"`
	AddressID       *int64          `json:"addressId,omitempty" db:"address_id"`
	Items           []OrderItem     `json:"items"`
	CoffeeSubTotal  decimal.Decimal `json:"coffeeSubTotal" db:"coffee_sub_total"`
	ShippingFee     decimal.Decimal `json:"shippingFee" db:"shipping_fee"`
	DiscountAmount  decimal.Decimal `json:"discountAmount" db:"discount_amount"`
	TotalAmount     decimal.Decimal `json:"totalAmount" db:"total_amount"`
	ShippingMethod  ShippingMethod  `json:"shippingMethod" db:"shipping_method"`
	CouponCode      *string         `json:"couponCode,omitempty" db:"coupon_code"`
	PaymentIntentID *string         `json:"paymentIntentId,omitempty" db:"payment_intent_id"`
	Status          OrderStatus     `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
	ShippedAt       *time.Time      `json:"shippedAt,omitempty" db:"shipped_at"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty" db:"delivered_at"`
}

// OrderItem is a snapshot of a purchased option taken when the order was
// placed. It does not reference the live catalogue.
type OrderItem struct {
	ID          uuid.UUID       `json:"-" db:"id"`
	OrderID     uuid.UUID       `json:"-" db:"order_id"`
	OptionID    int64           `json:"optionId" db:"option_id"`
	ProductName string          `json:"productName" db:"product_name"`
	OptionName  string          `json:"optionName" db:"option_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
}

// LineTotal is price times quantity.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewOrderFromCart snapshots the cart into a pending order with computed totals.
func NewOrderFromCart(cart *Cart, addressID *int64) *Order {
	now := time.Now().UTC()
	order := &Order{
		ID:        uuid.New(),
		MemberID:  cart.MemberID,
		AddressID: addressID,
		Items:     make([]OrderItem, 0, len(cart.Items)),
		Status:    OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, ci := range cart.Items {
		order.Items = append(order.Items, OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			OptionID:    ci.OptionID,
			ProductName: ci.ProductName,
			OptionName:  ci.OptionName,
			Quantity:    ci.Quantity,
			Price:       ci.PriceSnapshot,
		})
	}
	order.RecalculateTotals()
	return order
}

// RecalculateTotals derives subtotal, shipping and total from the items. The
// shipping policy looks at the subtotal before any discount. The discount is
// clamped to the subtotal.
func (o *Order) RecalculateTotals() {
	subtotal := decimal.Zero
	for i := range o.Items {
		subtotal = subtotal.Add(o.Items[i].LineTotal())
	}

	o.CoffeeSubTotal = subtotal
	o.ShippingMethod = ShippingPolicyFor(subtotal)
	o.ShippingFee = o.ShippingMethod.Fee()

	if o.DiscountAmount.IsNegative() {
		o.DiscountAmount = decimal.Zero
	}
	if o.DiscountAmount.GreaterThan(subtotal) {
		o.DiscountAmount = subtotal
	}

	o.TotalAmount = subtotal.Sub(o.DiscountAmount).Add(o.ShippingFee)
}

// ApplyCoupon records a coupon and the discounted coffee total it produced.
func (o *Order) ApplyCoupon(code string, discountedSubtotal decimal.Decimal) {
	o.CouponCode = &code
	o.DiscountAmount = o.CoffeeSubTotal.Sub(discountedSubtotal)
	o.RecalculateTotals()
}

// TransitionTo moves the order to next. Settling an order that is no longer
// pending yields ErrOrderAlreadyTerminated.
func (o *Order) TransitionTo(next OrderStatus) error {
	if o.Status.IsTerminal() {
		return ErrOrderAlreadyTerminated
	}
	if (next == OrderPaid || next == OrderPaymentFailed) && o.Status != OrderPending {
		return ErrOrderAlreadyTerminated
	}
	if !o.Status.CanTransitionTo(next) {
		return NewDomainError(ErrCodeIllegalState,
			fmt.Sprintf("Order cannot move from %s to %s", o.Status, next))
	}

	now := time.Now().UTC()
	switch next {
	case OrderShipped:
		o.ShippedAt = &now
	case OrderDelivered:
		o.DeliveredAt = &now
	}
	o.Status = next
	o.UpdatedAt = now
	return nil
}

// OrderListResponse is a page of orders.
type OrderListResponse struct {
	Orders []Order `json:"orders"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
