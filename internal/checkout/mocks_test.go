package checkout

import (
	"context"

	"coffee-shop/internal/model"
	"coffee-shop/internal/payment"
	"coffee-shop/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockValidator is a mock implementation of coupon.Validator.
type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Validate(ctx context.Context, code, email string, total decimal.Decimal) (*model.Coupon, error) {
	args := m.Called(ctx, code, email, total)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockValidator) Apply(ctx context.Context, tx pgx.Tx, code, email string, total decimal.Decimal) (*model.Coupon, decimal.Decimal, error) {
	args := m.Called(ctx, tx, code, email, total)
	if args.Get(0) == nil {
		return nil, decimal.Zero, args.Error(2)
	}
	return args.Get(0).(*model.Coupon), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockValidator) Rollback(ctx context.Context, tx pgx.Tx, email string, code *string) error {
	args := m.Called(ctx, tx, email, code)
	return args.Error(0)
}

// MockProvider is a mock implementation of payment.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateIntent(ctx context.Context, method string, amount int64, currency, idempotencyKey string) (*payment.Intent, error) {
	args := m.Called(ctx, method, amount, currency, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockProvider) ConfirmIntent(ctx context.Context, id string) (*payment.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockProvider) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

// MockRecorder is a mock implementation of events.Recorder.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordOrder(ctx context.Context, q repository.DBTX, eventType string, order *model.Order) error {
	args := m.Called(ctx, q, eventType, order)
	return args.Error(0)
}

func (m *MockRecorder) RecordMemberRegistered(ctx context.Context, q repository.DBTX, member *model.Member, welcomeCode string) error {
	args := m.Called(ctx, q, member, welcomeCode)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of cache.IdempotencyStore.
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) TryLock(ctx context.Context, scope, key string) (bool, error) {
	args := m.Called(ctx, scope, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Remember(ctx context.Context, scope, key, value string) error {
	args := m.Called(ctx, scope, key, value)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Recall(ctx context.Context, scope, key string) (string, bool, error) {
	args := m.Called(ctx, scope, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, scope, key string) error {
	args := m.Called(ctx, scope, key)
	return args.Error(0)
}
