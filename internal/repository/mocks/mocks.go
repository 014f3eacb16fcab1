// Package mocks provides testify mocks of the repository interfaces for
// service-level tests.
package mocks

import (
	"context"
	"time"

	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	Committed  bool
	RolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.Committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.RolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// NewTx returns a MockTx that accepts any number of commits and rollbacks.
func NewTx() *MockTx {
	tx := new(MockTx)
	tx.On("Commit", mock.Anything).Return(nil).Maybe()
	tx.On("Rollback", mock.Anything).Return(nil).Maybe()
	return tx
}

// MockTxManager is a mock implementation of repository.TxManager.
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCoffeeRepository is a mock implementation of repository.CoffeeRepository.
type MockCoffeeRepository struct {
	mock.Mock
}

func (m *MockCoffeeRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Coffee, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coffee), args.Error(1)
}

func (m *MockCoffeeRepository) GetByID(ctx context.Context, id int64) (*model.Coffee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coffee), args.Error(1)
}

func (m *MockCoffeeRepository) GetOption(ctx context.Context, id int64) (*model.PackageOption, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PackageOption), args.Error(1)
}

func (m *MockCoffeeRepository) Create(ctx context.Context, tx pgx.Tx, coffee *model.Coffee) error {
	args := m.Called(ctx, tx, coffee)
	return args.Error(0)
}

func (m *MockCoffeeRepository) Update(ctx context.Context, tx pgx.Tx, coffee *model.Coffee) error {
	args := m.Called(ctx, tx, coffee)
	return args.Error(0)
}

func (m *MockCoffeeRepository) Delete(ctx context.Context, tx pgx.Tx, id int64) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCoffeeRepository) LockOptions(ctx context.Context, tx pgx.Tx, ids []int64) ([]model.PackageOption, error) {
	args := m.Called(ctx, tx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PackageOption), args.Error(1)
}

func (m *MockCoffeeRepository) UpdateOptionQuantity(ctx context.Context, tx pgx.Tx, optionID int64, quantity int) error {
	args := m.Called(ctx, tx, optionID, quantity)
	return args.Error(0)
}

// MockCartRepository is a mock implementation of repository.CartRepository.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetByMemberID(ctx context.Context, q repository.DBTX, memberID uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, q, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartRepository) LockByMemberID(ctx context.Context, tx pgx.Tx, memberID uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, tx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartRepository) Create(ctx context.Context, q repository.DBTX, cart *model.Cart) error {
	args := m.Called(ctx, q, cart)
	return args.Error(0)
}

func (m *MockCartRepository) SaveItem(ctx context.Context, q repository.DBTX, item *model.CartItem) error {
	args := m.Called(ctx, q, item)
	return args.Error(0)
}

func (m *MockCartRepository) DeleteItem(ctx context.Context, q repository.DBTX, cartID uuid.UUID, optionID int64) error {
	args := m.Called(ctx, q, cartID, optionID)
	return args.Error(0)
}

func (m *MockCartRepository) ClearItems(ctx context.Context, q repository.DBTX, cartID uuid.UUID) error {
	args := m.Called(ctx, q, cartID)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of repository.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByMember(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, memberID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatusIf(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	args := m.Called(ctx, tx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) SetPaymentIntent(ctx context.Context, tx pgx.Tx, id uuid.UUID, intentID string) error {
	args := m.Called(ctx, tx, id, intentID)
	return args.Error(0)
}

func (m *MockOrderRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

// MockCouponRepository is a mock implementation of repository.CouponRepository.
type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) GetByCodeForUpdate(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error) {
	args := m.Called(ctx, tx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) Create(ctx context.Context, q repository.DBTX, coupon *model.Coupon) error {
	args := m.Called(ctx, q, coupon)
	return args.Error(0)
}

func (m *MockCouponRepository) Update(ctx context.Context, q repository.DBTX, coupon *model.Coupon) error {
	args := m.Called(ctx, q, coupon)
	return args.Error(0)
}

func (m *MockCouponRepository) ListUsableBy(ctx context.Context, email string, now time.Time) ([]model.Coupon, error) {
	args := m.Called(ctx, email, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) ListAll(ctx context.Context, limit, offset int) ([]model.Coupon, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) CreateBatch(ctx context.Context, tx pgx.Tx, coupons []model.Coupon) (int, error) {
	args := m.Called(ctx, tx, coupons)
	return args.Int(0), args.Error(1)
}

// MockPaymentRepository is a mock implementation of repository.PaymentRepository.
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) error {
	args := m.Called(ctx, tx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdateStatusByIntent(ctx context.Context, tx pgx.Tx, intentID string, status model.PaymentStatus) error {
	args := m.Called(ctx, tx, intentID, status)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

// MockMemberRepository is a mock implementation of repository.MemberRepository.
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Create(ctx context.Context, q repository.DBTX, member *model.Member) error {
	args := m.Called(ctx, q, member)
	return args.Error(0)
}

func (m *MockMemberRepository) GetByEmail(ctx context.Context, email string) (*model.Member, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

func (m *MockMemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

// MockAddressRepository is a mock implementation of repository.AddressRepository.
type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.Address, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Address), args.Error(1)
}

func (m *MockAddressRepository) GetForMember(ctx context.Context, id int64, memberID uuid.UUID) (*model.Address, error) {
	args := m.Called(ctx, id, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Address), args.Error(1)
}

func (m *MockAddressRepository) Create(ctx context.Context, tx pgx.Tx, address *model.Address) error {
	args := m.Called(ctx, tx, address)
	return args.Error(0)
}

func (m *MockAddressRepository) Update(ctx context.Context, tx pgx.Tx, address *model.Address) (bool, error) {
	args := m.Called(ctx, tx, address)
	return args.Bool(0), args.Error(1)
}

func (m *MockAddressRepository) Delete(ctx context.Context, id int64, memberID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, memberID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAddressRepository) ClearDefault(ctx context.Context, tx pgx.Tx, memberID uuid.UUID, exceptID int64) error {
	args := m.Called(ctx, tx, memberID, exceptID)
	return args.Error(0)
}

// MockOutboxRepository is a mock implementation of repository.OutboxRepository.
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Insert(ctx context.Context, q repository.DBTX, event *model.OutboxEvent) error {
	args := m.Called(ctx, q, event)
	return args.Error(0)
}

func (m *MockOutboxRepository) FetchPending(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var (
	_ pgx.Tx                       = (*MockTx)(nil)
	_ repository.TxManager         = (*MockTxManager)(nil)
	_ repository.CoffeeRepository  = (*MockCoffeeRepository)(nil)
	_ repository.CartRepository    = (*MockCartRepository)(nil)
	_ repository.OrderRepository   = (*MockOrderRepository)(nil)
	_ repository.CouponRepository  = (*MockCouponRepository)(nil)
	_ repository.PaymentRepository = (*MockPaymentRepository)(nil)
	_ repository.MemberRepository  = (*MockMemberRepository)(nil)
	_ repository.AddressRepository = (*MockAddressRepository)(nil)
	_ repository.OutboxRepository  = (*MockOutboxRepository)(nil)
)
