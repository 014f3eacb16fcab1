// Package checkout runs the two-phase checkout against the payment provider:
// Start reserves stock and opens a payment intent, Finalize settles the order
// once the provider has confirmed or rejected the charge.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"coffee-shop/internal/cache"
	"coffee-shop/internal/coupon"
	"coffee-shop/internal/events"
	"coffee-shop/internal/inventory"
	"coffee-shop/internal/metrics"
	"coffee-shop/internal/model"
	"coffee-shop/internal/payment"
	"coffee-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service is the checkout orchestrator.
type Service interface {
	// Start turns the member's cart into a pending order with reserved stock
	// and a payment intent. A non-empty idempotencyKey makes replays of the
	// same request return the first response.
	Start(ctx context.Context, p model.Principal, req *model.CheckoutStartRequest, idempotencyKey string) (*model.CheckoutStartResponse, error)

	// Finalize confirms the order's payment intent and settles the order as
	// PAID or PAYMENT_FAILED.
	Finalize(ctx context.Context, p model.Principal, req *model.CheckoutFinalizeRequest) (*model.CheckoutResult, error)

	// Reconcile settles pending orders whose intent reached a final state at
	// the provider without a finalize call.
	Reconcile(ctx context.Context) (*model.ReconcileReport, error)
}

// Dependencies are the collaborators of the orchestrator. Idempotency and
// Metrics may be nil.
type Dependencies struct {
	TxManager   repository.TxManager
	Carts       repository.CartRepository
	Orders      repository.OrderRepository
	Payments    repository.PaymentRepository
	Addresses   repository.AddressRepository
	Members     repository.MemberRepository
	Inventory   inventory.Reserver
	Coupons     coupon.Validator
	Provider    payment.Provider
	Events      events.Recorder
	Idempotency cache.IdempotencyStore
	Metrics     *metrics.Metrics
}

// Settings tune the orchestrator.
type Settings struct {
	Currency        string
	ProviderTimeout time.Duration
	ReconcileAfter  time.Duration
	ReconcileBatch  int
}

const idempotencyScope = "checkout-start"

type service struct {
	Dependencies
	settings Settings
	logger   zerolog.Logger
}

// NewService creates the checkout orchestrator.
func NewService(deps Dependencies, settings Settings, logger zerolog.Logger) Service {
	if settings.ReconcileBatch <= 0 {
		settings.ReconcileBatch = 100
	}
	return &service{
		Dependencies: deps,
		settings:     settings,
		logger:       logger.With().Str("service", "checkout").Logger(),
	}
}

// Start implements the start phase. Stock, order, coupon usage and payment row
// are written in one transaction; any failure undoes all of them.
func (s *service) Start(ctx context.Context, p model.Principal, req *model.CheckoutStartRequest, idempotencyKey string) (resp *model.CheckoutStartResponse, err error) {
	defer func() { s.observe("start", err) }()

	if err := validateStart(req); err != nil {
		return nil, err
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" && s.Idempotency != nil {
		scope := idempotencyScope + ":" + p.MemberID.String()

		if cached, ok := s.recall(ctx, scope, idempotencyKey); ok {
			return cached, nil
		}

		locked, lockErr := s.Idempotency.TryLock(ctx, scope, idempotencyKey)
		if lockErr != nil {
			return nil, lockErr
		}
		if !locked {
			if cached, ok := s.recall(ctx, scope, idempotencyKey); ok {
				return cached, nil
			}
			return nil, model.ErrCheckoutInProgress
		}

		defer func() {
			if err != nil {
				if relErr := s.Idempotency.Release(context.WithoutCancel(ctx), scope, idempotencyKey); relErr != nil {
					s.logger.Warn().Err(relErr).Str("idempotency_key", idempotencyKey).Msg("failed to release idempotency key")
				}
				return
			}
			s.remember(ctx, scope, idempotencyKey, resp)
		}()
	}

	address, err := s.Addresses.GetForMember(ctx, req.AddressID, p.MemberID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, model.ErrAddressNotFound
	}

	tx, err := s.TxManager.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback checkout start")
			}
		}
	}()

	cart, err := s.Carts.GetByMemberID(ctx, tx, p.MemberID)
	if err != nil {
		return nil, err
	}
	if cart == nil || cart.IsEmpty() {
		return nil, model.ErrCartEmpty
	}

	subtotal := cart.TotalAmount()
	discounted := subtotal
	var couponCode string
	if req.CouponCode != nil && strings.TrimSpace(*req.CouponCode) != "" {
		applied, total, applyErr := s.Coupons.Apply(ctx, tx, *req.CouponCode, p.Email, subtotal)
		if applyErr != nil {
			err = applyErr
			return nil, err
		}
		couponCode = applied.Code
		discounted = total
	}

	lines := inventory.LinesFromCart(cart.Items)
	locked, err := s.Inventory.Lock(ctx, tx, inventory.OptionIDs(lines))
	if err != nil {
		return nil, err
	}
	if err = s.Inventory.Decrement(ctx, tx, locked, lines); err != nil {
		return nil, err
	}

	order := model.NewOrderFromCart(cart, &address.ID)
	if couponCode != "" {
		order.ApplyCoupon(couponCode, discounted)
	}
	if err = s.Orders.Create(ctx, tx, order); err != nil {
		return nil, err
	}

	providerKey := order.ID.String()
	if idempotencyKey != "" {
		providerKey = idempotencyScope + ":" + p.MemberID.String() + ":" + idempotencyKey
	}

	intent, err := s.createIntent(ctx, req.PaymentMethod, order, providerKey)
	if err != nil {
		return nil, err
	}

	if err = s.Orders.SetPaymentIntent(ctx, tx, order.ID, intent.ID); err != nil {
		return nil, err
	}
	order.PaymentIntentID = &intent.ID

	now := time.Now().UTC()
	if err = s.Payments.Create(ctx, tx, &model.Payment{
		ID:              uuid.New(),
		OrderID:         order.ID,
		Amount:          order.TotalAmount,
		Currency:        s.settings.Currency,
		PaymentMethod:   req.PaymentMethod,
		PaymentIntentID: intent.ID,
		Status:          model.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}); err != nil {
		return nil, err
	}

	if err = s.Events.RecordOrder(ctx, tx, model.EventOrderCreated, order); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit checkout start")
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("member_id", p.MemberID.String()).
		Str("payment_intent_id", intent.ID).
		Str("total", order.TotalAmount.StringFixed(2)).
		Str("coupon_code", couponCode).
		Msg("checkout started")

	return &model.CheckoutStartResponse{
		PaymentIntentID: intent.ID,
		OrderID:         order.ID,
		Amount:          order.TotalAmount,
		Currency:        s.settings.Currency,
		Status:          intent.Status,
		ClientSecret:    intent.ClientSecret,
	}, nil
}

// Finalize implements the finalize phase.
func (s *service) Finalize(ctx context.Context, p model.Principal, req *model.CheckoutFinalizeRequest) (result *model.CheckoutResult, err error) {
	defer func() { s.observe("finalize", err) }()

	if req.OrderID == uuid.Nil || strings.TrimSpace(req.PaymentIntentID) == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Order id and payment intent id are required")
	}

	order, err := s.Orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.MemberID != p.MemberID {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("member_id", p.MemberID.String()).
			Msg("finalize attempted on another member's order")
		return nil, model.ErrForbidden
	}
	if order.Status != model.OrderPending {
		return nil, model.ErrOrderAlreadyTerminated
	}
	if order.PaymentIntentID == nil || *order.PaymentIntentID != req.PaymentIntentID {
		return nil, model.NewDomainError(model.ErrCodeInvalidArgument, "Payment intent does not belong to this order")
	}

	intent, confirmErr := s.confirmIntent(ctx, req.PaymentIntentID)

	var outcome settlement
	switch {
	case confirmErr == nil && intent.Succeeded():
		outcome = settlement{success: true}
	case confirmErr == nil:
		outcome = failureOutcome(model.ErrCodePaymentFailed, "Payment ended with status "+intent.Status)
	case errors.Is(confirmErr, payment.ErrTimeout):
		outcome, err = s.verifyIntent(ctx, order, confirmErr,
			failureOutcome(model.ErrCodePaymentTimeout, payment.ErrTimeout.Message))
		if err != nil {
			return nil, err
		}
	case model.CodeOf(confirmErr) == model.ErrCodePaymentProcessing:
		outcome, err = s.verifyIntent(ctx, order, confirmErr,
			failureOutcome(model.ErrCodePaymentProcessing, confirmErr.Error()))
		if err != nil {
			return nil, err
		}
	default:
		// provider unavailable: leave the order pending so it can be retried
		return nil, confirmErr
	}

	couponCode := order.CouponCode
	if couponCode == nil {
		couponCode = req.CouponCode
	}

	return s.settle(ctx, order, p.Email, couponCode, outcome)
}

type settlement struct {
	success bool
	code    string
	message string
}

func failureOutcome(code, message string) settlement {
	return settlement{code: code, message: message}
}

// settle moves a pending order to its final payment state. The status change
// is a compare-and-swap from PENDING; losing it applies nothing.
func (s *service) settle(ctx context.Context, order *model.Order, email string, couponCode *string, outcome settlement) (result *model.CheckoutResult, err error) {
	target := model.OrderPaymentFailed
	paymentStatus := model.PaymentFailed
	eventType := model.EventOrderPaymentFailed
	if outcome.success {
		target = model.OrderPaid
		paymentStatus = model.PaymentCompleted
		eventType = model.EventOrderPaid
	}

	tx, err := s.TxManager.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback checkout settlement")
			}
		}
	}()

	swapped, err := s.Orders.UpdateStatusIf(ctx, tx, order.ID, model.OrderPending, target)
	if err != nil {
		return nil, err
	}
	if !swapped {
		err = model.ErrOrderAlreadyTerminated
		return nil, err
	}

	if err = s.Payments.UpdateStatusByIntent(ctx, tx, *order.PaymentIntentID, paymentStatus); err != nil {
		return nil, err
	}

	if outcome.success {
		cart, cartErr := s.Carts.GetByMemberID(ctx, tx, order.MemberID)
		if cartErr != nil {
			err = cartErr
			return nil, err
		}
		if cart != nil {
			if err = s.Carts.ClearItems(ctx, tx, cart.ID); err != nil {
				return nil, err
			}
		}
	} else {
		// coupon row first, then option rows: the same lock order as Start
		if err = s.Coupons.Rollback(ctx, tx, email, couponCode); err != nil {
			return nil, err
		}

		lines := inventory.LinesFromOrder(order.Items)
		locked, lockErr := s.Inventory.Lock(ctx, tx, inventory.OptionIDs(lines))
		if lockErr != nil {
			err = lockErr
			return nil, err
		}
		if err = s.Inventory.Restore(ctx, tx, locked, lines); err != nil {
			return nil, err
		}
	}

	order.Status = target
	order.UpdatedAt = time.Now().UTC()
	if err = s.Events.RecordOrder(ctx, tx, eventType, order); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit checkout settlement")
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("status", string(target)).
		Str("reason", outcome.code).
		Msg("checkout settled")

	return &model.CheckoutResult{
		Success:   outcome.success,
		OrderID:   order.ID,
		Status:    target,
		ErrorCode: outcome.code,
		Message:   outcome.message,
	}, nil
}

func (s *service) createIntent(ctx context.Context, method string, order *model.Order, key string) (*payment.Intent, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.settings.ProviderTimeout)
	defer cancel()

	started := time.Now()
	intent, err := s.Provider.CreateIntent(callCtx, method, payment.ToMinorUnits(order.TotalAmount), s.settings.Currency, key)
	s.observeProvider("create", started)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create payment intent")
		return nil, err
	}
	return intent, nil
}

func (s *service) confirmIntent(ctx context.Context, id string) (*payment.Intent, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.settings.ProviderTimeout)
	defer cancel()

	started := time.Now()
	intent, err := s.Provider.ConfirmIntent(callCtx, id)
	s.observeProvider("confirm", started)
	if err != nil {
		s.logger.Warn().Err(err).Str("payment_intent_id", id).Msg("payment confirmation failed")
	}
	return intent, err
}

// verifyIntent settles a rejected or timed-out confirm on the status the
// provider reports. A confirm of an intent that already succeeded is
// rejected by the provider. Unsettled intents leave the order pending.
func (s *service) verifyIntent(ctx context.Context, order *model.Order, confirmErr error, failed settlement) (settlement, error) {
	log := s.logger.With().
		Str("order_id", order.ID.String()).
		Str("payment_intent_id", *order.PaymentIntentID).
		Logger()

	callCtx, cancel := context.WithTimeout(ctx, s.settings.ProviderTimeout)
	started := time.Now()
	intent, err := s.Provider.GetIntent(callCtx, *order.PaymentIntentID)
	s.observeProvider("get", started)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("could not verify payment intent, leaving order pending")
		return settlement{}, confirmErr
	}

	switch {
	case intent.Succeeded():
		log.Info().Msg("payment intent already succeeded")
		return settlement{success: true}, nil
	case intent.InFlight() && intent.Status != payment.StatusRequiresConfirmation:
		log.Info().Str("status", intent.Status).Msg("payment still in flight, leaving order pending")
		return settlement{}, model.ErrPaymentInFlight
	default:
		return failed, nil
	}
}

func (s *service) recall(ctx context.Context, scope, key string) (*model.CheckoutStartResponse, bool) {
	raw, found, err := s.Idempotency.Recall(ctx, scope, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to recall checkout response")
		return nil, false
	}
	if !found {
		return nil, false
	}

	var resp model.CheckoutStartResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("discarding unreadable checkout response")
		return nil, false
	}

	s.logger.Debug().Str("idempotency_key", key).Str("order_id", resp.OrderID.String()).Msg("replaying checkout response")
	return &resp, true
}

func (s *service) remember(ctx context.Context, scope, key string, resp *model.CheckoutStartResponse) {
	raw, err := json.Marshal(resp)
	if err == nil {
		err = s.Idempotency.Remember(context.WithoutCancel(ctx), scope, key, string(raw))
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to remember checkout response")
	}
}

func (s *service) observe(phase string, err error) {
	if s.Metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(model.CodeOf(err))
	}
	s.Metrics.Checkouts.WithLabelValues(phase, outcome).Inc()
}

func (s *service) observeProvider(op string, started time.Time) {
	if s.Metrics != nil {
		s.Metrics.ProviderMS.WithLabelValues(op).Observe(float64(time.Since(started).Milliseconds()))
	}
}

func validateStart(req *model.CheckoutStartRequest) error {
	if req.AddressID <= 0 {
		return model.NewDomainError(model.ErrCodeMissingField, "Address id is required")
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "Payment method is required")
	}
	return nil
}
