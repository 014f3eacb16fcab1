package handler

import (
	"context"

	"coffee-shop/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCatalogService is a mock implementation of CatalogService.
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) GetAll(ctx context.Context, limit, offset int) ([]model.Coffee, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coffee), args.Error(1)
}

func (m *MockCatalogService) GetByID(ctx context.Context, id int64) (*model.Coffee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coffee), args.Error(1)
}

func (m *MockCatalogService) Create(ctx context.Context, req *model.CoffeeRequest) (*model.Coffee, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coffee), args.Error(1)
}

func (m *MockCatalogService) Update(ctx context.Context, id int64, req *model.CoffeeRequest) (*model.Coffee, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coffee), args.Error(1)
}

func (m *MockCatalogService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) cart(args mock.Arguments) (*model.Cart, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) Get(ctx context.Context, memberID uuid.UUID) (*model.Cart, error) {
	return m.cart(m.Called(ctx, memberID))
}

func (m *MockCartService) AddItem(ctx context.Context, memberID uuid.UUID, req *model.AddToCartRequest) (*model.Cart, error) {
	return m.cart(m.Called(ctx, memberID, req))
}

func (m *MockCartService) UpdateItem(ctx context.Context, memberID uuid.UUID, optionID int64, req *model.UpdateCartItemRequest) (*model.Cart, error) {
	return m.cart(m.Called(ctx, memberID, optionID, req))
}

func (m *MockCartService) RemoveItem(ctx context.Context, memberID uuid.UUID, optionID int64) (*model.Cart, error) {
	return m.cart(m.Called(ctx, memberID, optionID))
}

func (m *MockCartService) Clear(ctx context.Context, memberID uuid.UUID) error {
	args := m.Called(ctx, memberID)
	return args.Error(0)
}

// MockAddressService is a mock implementation of AddressService.
type MockAddressService struct {
	mock.Mock
}

func (m *MockAddressService) List(ctx context.Context, memberID uuid.UUID) ([]model.Address, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Address), args.Error(1)
}

func (m *MockAddressService) Create(ctx context.Context, memberID uuid.UUID, req *model.AddressRequest) (*model.Address, error) {
	args := m.Called(ctx, memberID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Address), args.Error(1)
}

func (m *MockAddressService) Update(ctx context.Context, memberID uuid.UUID, id int64, req *model.AddressRequest) (*model.Address, error) {
	args := m.Called(ctx, memberID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Address), args.Error(1)
}

func (m *MockAddressService) Delete(ctx context.Context, memberID uuid.UUID, id int64) error {
	args := m.Called(ctx, memberID, id)
	return args.Error(0)
}

// MockCouponService is a mock implementation of CouponService.
type MockCouponService struct {
	mock.Mock
}

func (m *MockCouponService) ListUsable(ctx context.Context, p model.Principal) ([]model.Coupon, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coupon), args.Error(1)
}

func (m *MockCouponService) Preview(ctx context.Context, p model.Principal, req *model.ValidateCouponRequest) (*model.CouponPreviewResponse, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CouponPreviewResponse), args.Error(1)
}

func (m *MockCouponService) ListAll(ctx context.Context, limit, offset int) ([]model.Coupon, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coupon), args.Error(1)
}

func (m *MockCouponService) Create(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponService) Import(ctx context.Context, req *model.CouponImportRequest) (*model.CouponImportResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CouponImportResponse), args.Error(1)
}

// MockMemberService is a mock implementation of MemberService.
type MockMemberService struct {
	mock.Mock
}

func (m *MockMemberService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *MockMemberService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *MockMemberService) Me(ctx context.Context, p model.Principal) (*model.Member, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) List(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, memberID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, memberID, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, memberID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// MockCheckoutService is a mock implementation of checkout.Service.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Start(ctx context.Context, p model.Principal, req *model.CheckoutStartRequest, idempotencyKey string) (*model.CheckoutStartResponse, error) {
	args := m.Called(ctx, p, req, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutStartResponse), args.Error(1)
}

func (m *MockCheckoutService) Finalize(ctx context.Context, p model.Principal, req *model.CheckoutFinalizeRequest) (*model.CheckoutResult, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResult), args.Error(1)
}

func (m *MockCheckoutService) Reconcile(ctx context.Context) (*model.ReconcileReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconcileReport), args.Error(1)
}
