package payment

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"coffee-shop/internal/config"
	"coffee-shop/internal/model"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// stripeProvider implements Provider on top of Stripe payment intents.
type stripeProvider struct {
	api    *client.API
	logger zerolog.Logger
}

// NewStripeProvider creates a Stripe backed provider. cfg.APIURL overrides the
// Stripe endpoint, which is how tests and local stubs are wired in.
func NewStripeProvider(cfg config.PaymentConfig, logger zerolog.Logger) Provider {
	log := logger.With().Str("component", "stripe").Logger()

	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(cfg.MaxRetries),
		LeveledLogger:     &leveledLogger{logger: log},
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
	})

	return &stripeProvider{
		api:    api,
		logger: log,
	}
}

// CreateIntent creates a card payment intent.
func (p *stripeProvider) CreateIntent(ctx context.Context, method string, amount int64, currency, idempotencyKey string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethod:      stripe.String(method),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, p.classify(ctx, "create", err)
	}

	p.logger.Debug().
		Str("payment_intent_id", pi.ID).
		Str("status", string(pi.Status)).
		Int64("amount", amount).
		Msg("payment intent created")

	return fromStripe(pi), nil
}

// ConfirmIntent confirms a payment intent with the payment method it was
// created with.
func (p *stripeProvider) ConfirmIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Confirm(id, params)
	if err != nil {
		return nil, p.classify(ctx, "confirm", err)
	}

	p.logger.Debug().
		Str("payment_intent_id", pi.ID).
		Str("status", string(pi.Status)).
		Msg("payment intent confirmed")

	return fromStripe(pi), nil
}

// GetIntent retrieves a payment intent.
func (p *stripeProvider) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, p.classify(ctx, "get", err)
	}
	return fromStripe(pi), nil
}

// classify turns a Stripe client error into a domain error.
func (p *stripeProvider) classify(ctx context.Context, op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		p.logger.Warn().Str("op", op).Err(err).Msg("payment provider timed out")
		return ErrTimeout
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeCard, stripe.ErrorTypeInvalidRequest:
			p.logger.Info().
				Str("op", op).
				Str("type", string(stripeErr.Type)).
				Str("code", string(stripeErr.Code)).
				Msg("payment rejected by provider")
			msg := stripeErr.Msg
			if msg == "" {
				msg = model.ErrPaymentProcessing.Message
			}
			return model.NewDomainError(model.ErrCodePaymentProcessing, msg)
		}
		p.logger.Error().
			Str("op", op).
			Str("type", string(stripeErr.Type)).
			Int("http_status", stripeErr.HTTPStatusCode).
			Msg("payment provider error")
		return fmt.Errorf("%w: %s", model.ErrPaymentSystem, stripeErr.Msg)
	}

	p.logger.Error().Str("op", op).Err(err).Msg("payment provider unreachable")
	return fmt.Errorf("%w: %v", model.ErrPaymentSystem, err)
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
	}
}

// leveledLogger routes the Stripe client's own logging into zerolog.
type leveledLogger struct {
	logger zerolog.Logger
}

func (l *leveledLogger) Debugf(format string, v ...interface{}) { l.logger.Debug().Msgf(format, v...) }
func (l *leveledLogger) Infof(format string, v ...interface{})  { l.logger.Debug().Msgf(format, v...) }
func (l *leveledLogger) Warnf(format string, v ...interface{})  { l.logger.Warn().Msgf(format, v...) }
func (l *leveledLogger) Errorf(format string, v ...interface{}) { l.logger.Error().Msgf(format, v...) }
