package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"coffee-shop/internal/config"
	"coffee-shop/internal/database"
	"coffee-shop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the application schema
// and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	// Get connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Create connection pool
	pool, err := database.NewPoolFromURL(ctx, connStr, config.DatabaseConfig{MaxConnections: 10, MinConnections: 1}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	// Cleanup function
	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedMember inserts a member and returns it.
func seedMember(t *testing.T, pool *pgxpool.Pool, email string) *model.Member {
	now := time.Now().UTC()
	m := &model.Member{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Role:         model.RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, NewMemberRepository(pool, zerolog.Nop()).Create(context.Background(), pool, m))
	return m
}

// seedCoffee inserts a coffee with one option per (weight, price, quantity) triple.
func seedCoffee(t *testing.T, pool *pgxpool.Pool, name string, options ...model.PackageOption) *model.Coffee {
	ctx := context.Background()
	coffee := &model.Coffee{Name: name, Origin: "Ethiopia", Options: options}

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, NewCoffeeRepository(pool, zerolog.Nop()).Create(ctx, tx, coffee))
	require.NoError(t, tx.Commit(ctx))
	return coffee
}

func option(weight model.Weight, price string, qty int) model.PackageOption {
	return model.PackageOption{Weight: weight, Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestTxManager_BeginTx(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	tm := NewTxManager(pool, zerolog.Nop())

	tx, err := tm.BeginTx(ctx)

	require.NoError(t, err)
	require.NotNil(t, tx)

	// Rollback to cleanup
	err = tx.Rollback(ctx)
	assert.NoError(t, err)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	err := database.Migrate(context.Background(), pool, zerolog.Nop())

	assert.NoError(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestMemberRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewMemberRepository(pool, zerolog.Nop())
	m := seedMember(t, pool, "ada@example.com")

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, m.ID, byEmail.ID)
	assert.Equal(t, model.RoleMember, byEmail.Role)

	byID, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "ada@example.com", byID.Email)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	dup := *m
	dup.ID = uuid.New()
	err = repo.Create(ctx, pool, &dup)
	assert.ErrorIs(t, err, model.ErrEmailTaken)
}
