package service

import (
	"context"

	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockCouponValidator is a mock implementation of coupon.Validator.
type MockCouponValidator struct {
	mock.Mock
}

func (m *MockCouponValidator) Validate(ctx context.Context, code, email string, total decimal.Decimal) (*model.Coupon, error) {
	args := m.Called(ctx, code, email, total)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponValidator) Apply(ctx context.Context, tx pgx.Tx, code, email string, total decimal.Decimal) (*model.Coupon, decimal.Decimal, error) {
	args := m.Called(ctx, tx, code, email, total)
	if args.Get(0) == nil {
		return nil, decimal.Zero, args.Error(2)
	}
	return args.Get(0).(*model.Coupon), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockCouponValidator) Rollback(ctx context.Context, tx pgx.Tx, email string, code *string) error {
	args := m.Called(ctx, tx, email, code)
	return args.Error(0)
}

// MockImporter is a mock implementation of coupon.Importer.
type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) Import(ctx context.Context, req *model.CouponImportRequest) (*model.CouponImportResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CouponImportResponse), args.Error(1)
}

// MockIssuer is a mock implementation of coupon.Issuer.
type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) IssueWelcome(ctx context.Context, q repository.DBTX, email string) (*model.Coupon, error) {
	args := m.Called(ctx, q, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
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
