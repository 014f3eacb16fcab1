package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Aggregate types carried on outbox rows.
const (
	AggregateOrder  = "order"
	AggregateMember = "member"
)

// Recorder writes domain events into the outbox as part of the caller's
// unit of work.
type Recorder interface {
	// RecordOrder stores an order event built from the order's current state.
	RecordOrder(ctx context.Context, q repository.DBTX, eventType string, order *model.Order) error

	// RecordMemberRegistered stores a member.registered event.
	RecordMemberRegistered(ctx context.Context, q repository.DBTX, member *model.Member, welcomeCode string) error
}

// OrderPayload is the body of order.* events.
type OrderPayload struct {
	OrderID         uuid.UUID         `json:"orderId"`
	MemberID        uuid.UUID         `json:"memberId"`
	Status          model.OrderStatus `json:"status"`
	CoffeeSubTotal  decimal.Decimal   `json:"coffeeSubTotal"`
	DiscountAmount  decimal.Decimal   `json:"discountAmount"`
	ShippingFee     decimal.Decimal   `json:"shippingFee"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	CouponCode      *string           `json:"couponCode,omitempty"`
	PaymentIntentID *string           `json:"paymentIntentId,omitempty"`
	Items           []OrderItemLine   `json:"items"`
}

// OrderItemLine is one purchased line inside an order event.
type OrderItemLine struct {
	OptionID    int64           `json:"optionId"`
	ProductName string          `json:"productName"`
	OptionName  string          `json:"optionName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// MemberPayload is the body of member.registered.
type MemberPayload struct {
	MemberID    uuid.UUID `json:"memberId"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	WelcomeCode string    `json:"welcomeCode,omitempty"`
}

type outboxRecorder struct {
	outbox repository.OutboxRepository
	logger zerolog.Logger
}

// NewRecorder creates a recorder backed by the outbox table.
func NewRecorder(outbox repository.OutboxRepository, logger zerolog.Logger) Recorder {
	return &outboxRecorder{
		outbox: outbox,
		logger: logger.With().Str("component", "event-recorder").Logger(),
	}
}

func (r *outboxRecorder) RecordOrder(ctx context.Context, q repository.DBTX, eventType string, order *model.Order) error {
	payload := OrderPayload{
		OrderID:         order.ID,
		MemberID:        order.MemberID,
		Status:          order.Status,
		CoffeeSubTotal:  order.CoffeeSubTotal,
		DiscountAmount:  order.DiscountAmount,
		ShippingFee:     order.ShippingFee,
		TotalAmount:     order.TotalAmount,
		CouponCode:      order.CouponCode,
		PaymentIntentID: order.PaymentIntentID,
		Items:           make([]OrderItemLine, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, OrderItemLine{
			OptionID:    item.OptionID,
			ProductName: item.ProductName,
			OptionName:  item.OptionName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	return r.record(ctx, q, AggregateOrder, order.ID.String(), eventType, payload)
}

func (r *outboxRecorder) RecordMemberRegistered(ctx context.Context, q repository.DBTX, member *model.Member, welcomeCode string) error {
	payload := MemberPayload{
		MemberID:    member.ID,
		Email:       member.Email,
		FirstName:   member.FirstName,
		WelcomeCode: welcomeCode,
	}
	return r.record(ctx, q, AggregateMember, member.ID.String(), model.EventMemberRegistered, payload)
}

func (r *outboxRecorder) record(ctx context.Context, q repository.DBTX, aggregateType, aggregateID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}

	event := &model.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
		CreatedAt:     time.Now().UTC(),
	}
	if err := r.outbox.Insert(ctx, q, event); err != nil {
		return err
	}

	r.logger.Debug().
		Str("event_type", eventType).
		Str("aggregate_id", aggregateID).
		Msg("event recorded")
	return nil
}
