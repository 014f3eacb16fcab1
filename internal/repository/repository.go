package repository

import (
	"context"
	"time"

	"coffee-shop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxManager opens units of work.
type TxManager interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// CoffeeRepository defines the interface for catalogue data access operations.
type CoffeeRepository interface {
	// GetAll retrieves coffees with their options, with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Coffee, error)

	// GetByID retrieves a single coffee with its options.
	GetByID(ctx context.Context, id int64) (*model.Coffee, error)

	// GetOption retrieves a package option together with its coffee name.
	GetOption(ctx context.Context, id int64) (*model.PackageOption, error)

	// Create inserts a coffee and its options, filling in generated ids.
	Create(ctx context.Context, tx pgx.Tx, coffee *model.Coffee) error

	// Update replaces a coffee's fields and option set. Options are matched by
	// weight; weights missing from coffee.Options are removed.
	Update(ctx context.Context, tx pgx.Tx, coffee *model.Coffee) error

	// Delete removes a coffee. It returns false if nothing was deleted.
	Delete(ctx context.Context, tx pgx.Tx, id int64) (bool, error)

	// LockOptions takes row locks on the given options in ascending id order
	// and returns them in that order.
	LockOptions(ctx context.Context, tx pgx.Tx, ids []int64) ([]model.PackageOption, error)

	// UpdateOptionQuantity writes a new stock level for a locked option.
	UpdateOptionQuantity(ctx context.Context, tx pgx.Tx, optionID int64, quantity int) error
}

// CartRepository defines the interface for cart data access operations.
type CartRepository interface {
	// GetByMemberID loads a member's cart with its items, or nil if none exists.
	GetByMemberID(ctx context.Context, q DBTX, memberID uuid.UUID) (*model.Cart, error)

	// LockByMemberID is GetByMemberID under a row lock on the cart, held
	// until tx ends.
	LockByMemberID(ctx context.Context, tx pgx.Tx, memberID uuid.UUID) (*model.Cart, error)

	// Create inserts an empty cart. A concurrent insert for the same member is
	// not an error; callers reload afterwards.
	Create(ctx context.Context, q DBTX, cart *model.Cart) error

	// SaveItem inserts or updates a cart line.
	SaveItem(ctx context.Context, q DBTX, item *model.CartItem) error

	// DeleteItem removes a single line.
	DeleteItem(ctx context.Context, q DBTX, cartID uuid.UUID, optionID int64) error

	// ClearItems removes every line of a cart.
	ClearItems(ctx context.Context, q DBTX, cartID uuid.UUID) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// Create recalculates the order totals and inserts it with its items.
	Create(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByMember retrieves a member's orders, newest first.
	ListByMember(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]model.Order, error)

	// UpdateStatusIf moves the order to `to` only if it is currently in `from`.
	// It returns false if the order was not in `from`.
	UpdateStatusIf(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.OrderStatus) (bool, error)

	// SetPaymentIntent records the provider intent id.
	SetPaymentIntent(ctx context.Context, tx pgx.Tx, id uuid.UUID, intentID string) error

	// ListStalePending returns pending orders with an intent that were created
	// before olderThan.
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error)
}

// CouponRepository defines the interface for coupon data access operations.
type CouponRepository interface {
	// GetByCode retrieves a coupon, or nil if the code is unknown.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// GetByCodeForUpdate retrieves and row-locks a coupon, or nil.
	GetByCodeForUpdate(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error)

	// Create inserts a coupon. A duplicate code yields model.ErrConflict.
	Create(ctx context.Context, q DBTX, coupon *model.Coupon) error

	// Update persists usage count and active flag.
	Update(ctx context.Context, q DBTX, coupon *model.Coupon) error

	// ListUsableBy returns active, unexpired coupons open to everyone or owned by email.
	ListUsableBy(ctx context.Context, email string, now time.Time) ([]model.Coupon, error)

	// ListAll returns every coupon, with pagination support.
	ListAll(ctx context.Context, limit, offset int) ([]model.Coupon, error)

	// CreateBatch inserts coupons, skipping codes that already exist. It
	// returns how many rows were inserted.
	CreateBatch(ctx context.Context, tx pgx.Tx, coupons []model.Coupon) (int, error)
}

// PaymentRepository defines the interface for payment data access operations.
type PaymentRepository interface {
	// Create inserts a payment record.
	Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) error

	// UpdateStatusByIntent sets the status of the payment for an intent.
	UpdateStatusByIntent(ctx context.Context, tx pgx.Tx, intentID string, status model.PaymentStatus) error

	// GetByOrderID retrieves the payment for an order, or nil.
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error)
}

// MemberRepository defines the interface for member data access operations.
type MemberRepository interface {
	// Create inserts a member. A duplicate email yields model.ErrEmailTaken.
	Create(ctx context.Context, q DBTX, member *model.Member) error

	// GetByEmail retrieves a member, or nil.
	GetByEmail(ctx context.Context, email string) (*model.Member, error)

	// GetByID retrieves a member, or nil.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error)
}

// AddressRepository defines the interface for address book data access operations.
type AddressRepository interface {
	// ListByMember returns the member's addresses, default first.
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.Address, error)

	// GetForMember retrieves an address owned by memberID, or nil.
	GetForMember(ctx context.Context, id int64, memberID uuid.UUID) (*model.Address, error)

	// Create inserts an address.
	Create(ctx context.Context, tx pgx.Tx, address *model.Address) error

	// Update overwrites an address owned by address.MemberID. It returns false
	// if no such address exists.
	Update(ctx context.Context, tx pgx.Tx, address *model.Address) (bool, error)

	// Delete removes an address owned by memberID. It returns false if nothing
	// was deleted.
	Delete(ctx context.Context, id int64, memberID uuid.UUID) (bool, error)

	// ClearDefault unsets the default flag on the member's other addresses.
	ClearDefault(ctx context.Context, tx pgx.Tx, memberID uuid.UUID, exceptID int64) error
}

// OutboxRepository defines the interface for the transactional outbox.
type OutboxRepository interface {
	// Insert stores an event as part of the caller's unit of work.
	Insert(ctx context.Context, q DBTX, event *model.OutboxEvent) error

	// FetchPending returns unsent events, oldest first.
	FetchPending(ctx context.Context, limit int) ([]model.OutboxEvent, error)

	// MarkSent stamps an event as delivered.
	MarkSent(ctx context.Context, id uuid.UUID) error
}
