package repository

import (
	"context"
	"testing"

	"coffee-shop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoffeeRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCoffeeRepository(pool, zerolog.Nop())

	coffee := seedCoffee(t, pool, "Yirgacheffe",
		option(model.Weight250, "9.90", 10),
		option(model.Weight500, "17.50", 0),
	)
	require.NotZero(t, coffee.ID)
	require.NotZero(t, coffee.Options[0].ID)

	got, err := repo.GetByID(ctx, coffee.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Yirgacheffe", got.Name)
	require.Len(t, got.Options, 2)
	assert.Equal(t, model.Weight250, got.Options[0].Weight)
	assert.Equal(t, "9.90", got.Options[0].Price.StringFixed(2))
	assert.Equal(t, model.StockLow, got.Options[0].StockStatus())
	assert.Equal(t, model.StockOutOfStock, got.Options[1].StockStatus())

	opt, err := repo.GetOption(ctx, coffee.Options[1].ID)
	require.NoError(t, err)
	require.NotNil(t, opt)
	assert.Equal(t, "Yirgacheffe", opt.CoffeeName)
	assert.Equal(t, coffee.ID, opt.CoffeeID)

	missing, err := repo.GetByID(ctx, coffee.ID+1000)
	assert.NoError(t, err)
	assert.Nil(t, missing)

	missingOpt, err := repo.GetOption(ctx, 999999)
	assert.NoError(t, err)
	assert.Nil(t, missingOpt)
}

func TestCoffeeRepository_GetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCoffeeRepository(pool, zerolog.Nop())

	seedCoffee(t, pool, "Sidamo", option(model.Weight250, "8.00", 5))
	seedCoffee(t, pool, "Antigua", option(model.Weight250, "7.00", 5), option(model.Weight1000, "25.00", 5))

	coffees, err := repo.GetAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, coffees, 2)
	assert.Equal(t, "Antigua", coffees[0].Name)
	assert.Len(t, coffees[0].Options, 2)
	assert.Equal(t, "Antigua", coffees[0].Options[1].CoffeeName)
	assert.Equal(t, "Sidamo", coffees[1].Name)

	page, err := repo.GetAll(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Sidamo", page[0].Name)
}

func TestCoffeeRepository_UpdateReplacesOptionSet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCoffeeRepository(pool, zerolog.Nop())

	coffee := seedCoffee(t, pool, "Huila",
		option(model.Weight250, "9.00", 10),
		option(model.Weight500, "16.00", 10),
	)
	keptID := coffee.Options[0].ID

	coffee.Name = "Huila Supremo"
	coffee.Options = []model.PackageOption{
		option(model.Weight250, "9.50", 40),
		option(model.Weight1000, "30.00", 3),
	}

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, tx, coffee))
	require.NoError(t, tx.Commit(ctx))

	got, err := repo.GetByID(ctx, coffee.ID)
	require.NoError(t, err)
	assert.Equal(t, "Huila Supremo", got.Name)
	require.Len(t, got.Options, 2)
	assert.Equal(t, keptID, got.Options[0].ID)
	assert.Equal(t, "9.50", got.Options[0].Price.StringFixed(2))
	assert.Equal(t, 40, got.Options[0].Quantity)
	assert.Equal(t, model.Weight1000, got.Options[1].Weight)

	tx, err = pool.Begin(ctx)
	require.NoError(t, err)
	err = repo.Update(ctx, tx, &model.Coffee{ID: coffee.ID + 1000, Name: "ghost"})
	assert.ErrorIs(t, err, model.ErrCoffeeNotFound)
	require.NoError(t, tx.Rollback(ctx))
}

func TestCoffeeRepository_Delete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCoffeeRepository(pool, zerolog.Nop())
	coffee := seedCoffee(t, pool, "Kona", option(model.Weight250, "20.00", 1))

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	deleted, err := repo.Delete(ctx, tx, coffee.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	again, err := repo.Delete(ctx, tx, coffee.ID)
	require.NoError(t, err)
	assert.False(t, again)
	require.NoError(t, tx.Commit(ctx))

	opt, err := repo.GetOption(ctx, coffee.Options[0].ID)
	assert.NoError(t, err)
	assert.Nil(t, opt)
}

func TestCoffeeRepository_PendingOrderBlocksOptionRemoval(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCoffeeRepository(pool, zerolog.Nop())
	orders := NewOrderRepository(pool, zerolog.Nop())

	coffee := seedCoffee(t, pool, "Bourbon",
		option(model.Weight250, "9.00", 10),
		option(model.Weight500, "16.00", 10),
	)
	reservedID := coffee.Options[1].ID

	order := newTestOrder(uuid.New())
	order.Items = order.Items[:1]
	order.Items[0].OptionID = reservedID
	createTestOrder(t, pool, orders, order)

	withTx := func(fn func(tx pgx.Tx) error) error {
		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		if err := fn(tx); err != nil {
			require.NoError(t, tx.Rollback(ctx))
			return err
		}
		return tx.Commit(ctx)
	}

	// dropping the reserved 500g option
	coffee.Options = []model.PackageOption{option(model.Weight250, "9.50", 10)}
	err := withTx(func(tx pgx.Tx) error { return repo.Update(ctx, tx, coffee) })
	assert.ErrorIs(t, err, model.ErrOptionReserved)

	err = withTx(func(tx pgx.Tx) error {
		_, err := repo.Delete(ctx, tx, coffee.ID)
		return err
	})
	assert.ErrorIs(t, err, model.ErrOptionReserved)

	opt, err := repo.GetOption(ctx, reservedID)
	require.NoError(t, err)
	require.NotNil(t, opt)

	// unreserved options can still be edited away
	coffee.Options = []model.PackageOption{
		option(model.Weight500, "16.00", 10),
		option(model.Weight1000, "28.00", 5),
	}
	require.NoError(t, withTx(func(tx pgx.Tx) error { return repo.Update(ctx, tx, coffee) }))

	require.NoError(t, withTx(func(tx pgx.Tx) error {
		_, err := orders.UpdateStatusIf(ctx, tx, order.ID, model.OrderPending, model.OrderPaymentFailed)
		return err
	}))

	var deleted bool
	require.NoError(t, withTx(func(tx pgx.Tx) error {
		var err error
		deleted, err = repo.Delete(ctx, tx, coffee.ID)
		return err
	}))
	assert.True(t, deleted)
}

func TestCoffeeRepository_LockOptionsAndUpdateQuantity(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCoffeeRepository(pool, zerolog.Nop())

	coffee := seedCoffee(t, pool, "Java",
		option(model.Weight250, "9.00", 10),
		option(model.Weight500, "16.00", 20),
		option(model.Weight1000, "28.00", 30),
	)
	a, b, c := coffee.Options[0].ID, coffee.Options[1].ID, coffee.Options[2].ID

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)

	locked, err := repo.LockOptions(ctx, tx, []int64{c, a, b})
	require.NoError(t, err)
	require.Len(t, locked, 3)
	assert.Equal(t, []int64{a, b, c}, []int64{locked[0].ID, locked[1].ID, locked[2].ID})
	assert.Equal(t, "Java", locked[0].CoffeeName)

	require.NoError(t, repo.UpdateOptionQuantity(ctx, tx, a, 7))
	assert.ErrorIs(t, repo.UpdateOptionQuantity(ctx, tx, 999999, 1), model.ErrOptionNotFound)
	require.NoError(t, tx.Commit(ctx))

	opt, err := repo.GetOption(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 7, opt.Quantity)

	tx, err = pool.Begin(ctx)
	require.NoError(t, err)
	empty, err := repo.LockOptions(ctx, tx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	partial, err := repo.LockOptions(ctx, tx, []int64{a, 999999})
	require.NoError(t, err)
	assert.Len(t, partial, 1)
	require.NoError(t, tx.Rollback(ctx))
}

func TestCoffeeRepository_QuantityCheckConstraint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCoffeeRepository(pool, zerolog.Nop())
	coffee := seedCoffee(t, pool, "Bourbon", option(model.Weight250, "9.00", 10))

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	err = repo.UpdateOptionQuantity(ctx, tx, coffee.Options[0].ID, -1)
	assert.Error(t, err)
}

func TestCartRepository_Lifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCartRepository(zerolog.Nop())
	member := seedMember(t, pool, "cart@example.com")
	coffee := seedCoffee(t, pool, "Sumatra",
		option(model.Weight250, "9.90", 10),
		option(model.Weight500, "17.00", 10),
	)

	none, err := repo.GetByMemberID(ctx, pool, member.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	cart := model.NewCart(member.ID)
	require.NoError(t, repo.Create(ctx, pool, cart))
	// a concurrent create is absorbed
	require.NoError(t, repo.Create(ctx, pool, model.NewCart(member.ID)))

	first := coffee.Options[0]
	item, err := cart.AddOrIncrement(&first, coffee.Name, 2)
	require.NoError(t, err)
	require.NoError(t, repo.SaveItem(ctx, pool, &item))

	second := coffee.Options[1]
	item2, err := cart.AddOrIncrement(&second, coffee.Name, 1)
	require.NoError(t, err)
	require.NoError(t, repo.SaveItem(ctx, pool, &item2))

	item, err = cart.AddOrIncrement(&first, coffee.Name, 3)
	require.NoError(t, err)
	require.NoError(t, repo.SaveItem(ctx, pool, &item))

	got, err := repo.GetByMemberID(ctx, pool, member.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cart.ID, got.ID)
	require.Len(t, got.Items, 2)
	assert.Equal(t, first.ID, got.Items[0].OptionID)
	assert.Equal(t, 5, got.Items[0].Quantity)
	assert.Equal(t, "66.50", got.TotalAmount().StringFixed(2))

	require.NoError(t, repo.DeleteItem(ctx, pool, cart.ID, second.ID))
	got, err = repo.GetByMemberID(ctx, pool, member.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	require.NoError(t, repo.ClearItems(ctx, pool, cart.ID))
	got, err = repo.GetByMemberID(ctx, pool, member.ID)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestCartRepository_LockByMemberIDHoldsRowLock(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCartRepository(zerolog.Nop())
	member := seedMember(t, pool, "locked@example.com")
	cart := model.NewCart(member.ID)
	require.NoError(t, repo.Create(ctx, pool, cart))

	holder, err := pool.Begin(ctx)
	require.NoError(t, err)
	locked, err := repo.LockByMemberID(ctx, holder, member.ID)
	require.NoError(t, err)
	require.NotNil(t, locked)
	assert.Equal(t, cart.ID, locked.ID)

	waiter, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = waiter.Rollback(ctx) }()
	_, err = waiter.Exec(ctx, "SET LOCAL lock_timeout = '100ms'")
	require.NoError(t, err)

	_, err = repo.LockByMemberID(ctx, waiter, member.ID)
	assert.Error(t, err)
	require.NoError(t, waiter.Rollback(ctx))

	// plain reads do not wait for the lock
	got, err := repo.GetByMemberID(ctx, pool, member.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, got.ID)

	require.NoError(t, holder.Commit(ctx))

	next, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = next.Rollback(ctx) }()
	relocked, err := repo.LockByMemberID(ctx, next, member.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, relocked.ID)

	missing, err := repo.LockByMemberID(ctx, next, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCartRepository_SaveDetachedItem(t *testing.T) {
	repo := NewCartRepository(zerolog.Nop())

	err := repo.SaveItem(context.Background(), nil, &model.CartItem{OptionID: 1, Quantity: 1})

	assert.Error(t, err)
}
