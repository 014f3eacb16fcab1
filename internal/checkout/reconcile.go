package checkout

import (
	"context"
	"errors"
	"time"

	"coffee-shop/internal/model"

	"github.com/rs/zerolog"
)

// Reconcile looks up pending orders older than the configured age at the
// provider and settles those whose intent has reached a final state.
func (s *service) Reconcile(ctx context.Context) (*model.ReconcileReport, error) {
	cutoff := time.Now().UTC().Add(-s.settings.ReconcileAfter)

	orders, err := s.Orders.ListStalePending(ctx, cutoff, s.settings.ReconcileBatch)
	if err != nil {
		return nil, err
	}

	report := &model.ReconcileReport{}
	for i := range orders {
		if ctx.Err() != nil {
			break
		}
		report.Examined++
		outcome := s.reconcileOrder(ctx, &orders[i])
		switch outcome {
		case "paid":
			report.Paid++
		case "failed":
			report.Failed++
		case "in_flight":
			report.InFlight++
		case "skipped":
			report.Skipped++
		default:
			report.Errors++
		}
		if s.Metrics != nil {
			s.Metrics.Reconciled.WithLabelValues(outcome).Inc()
		}
	}

	if report.Examined > 0 {
		s.logger.Info().
			Int("examined", report.Examined).
			Int("paid", report.Paid).
			Int("failed", report.Failed).
			Int("in_flight", report.InFlight).
			Int("errors", report.Errors).
			Msg("reconciliation pass finished")
	}
	return report, nil
}

func (s *service) reconcileOrder(ctx context.Context, order *model.Order) string {
	log := s.logger.With().Str("order_id", order.ID.String()).Logger()

	if order.PaymentIntentID == nil {
		return "skipped"
	}

	callCtx, cancel := context.WithTimeout(ctx, s.settings.ProviderTimeout)
	started := time.Now()
	intent, err := s.Provider.GetIntent(callCtx, *order.PaymentIntentID)
	s.observeProvider("get", started)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("failed to read payment intent")
		return "error"
	}

	if intent.InFlight() {
		log.Debug().Str("status", intent.Status).Msg("payment still in flight")
		return "in_flight"
	}

	member, err := s.Members.GetByID(ctx, order.MemberID)
	if err != nil || member == nil {
		log.Error().Err(err).Str("member_id", order.MemberID.String()).Msg("failed to load order owner")
		return "error"
	}

	outcome := settlement{success: true}
	if !intent.Succeeded() {
		outcome = failureOutcome(model.ErrCodePaymentFailed, "Payment ended with status "+intent.Status)
	}

	result, err := s.settle(ctx, order, member.Email, order.CouponCode, outcome)
	if errors.Is(err, model.ErrOrderAlreadyTerminated) {
		return "skipped"
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to settle stale order")
		return "error"
	}
	if result.Success {
		return "paid"
	}
	return "failed"
}

// Reconciler runs Reconcile on a fixed interval.
type Reconciler struct {
	service  Service
	interval time.Duration
	logger   zerolog.Logger
}

// NewReconciler creates a background reconciler. An interval of zero disables it.
func NewReconciler(service Service, interval time.Duration, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		service:  service,
		interval: interval,
		logger:   logger.With().Str("component", "reconciler").Logger(),
	}
}

// Run reconciles until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info().Msg("reconciler disabled")
		return
	}
	r.logger.Info().Dur("interval", r.interval).Msg("reconciler started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("reconciler stopped")
			return
		case <-ticker.C:
			if _, err := r.service.Reconcile(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error().Err(err).Msg("reconciliation pass failed")
			}
		}
	}
}
