package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coffee-shop/internal/auth"
	"coffee-shop/internal/checkout"
	"coffee-shop/internal/config"
	"coffee-shop/internal/coupon"
	"coffee-shop/internal/database"
	"coffee-shop/internal/events"
	"coffee-shop/internal/handler"
	"coffee-shop/internal/inventory"
	"coffee-shop/internal/metrics"
	"coffee-shop/internal/model"
	"coffee-shop/internal/payment"
	"coffee-shop/internal/payment/paymenttest"
	"coffee-shop/internal/repository"
	"coffee-shop/internal/router"
	"coffee-shop/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testAPIKey = "test-api-key"

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the application schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := database.NewPoolFromURL(ctx, connStr, config.DatabaseConfig{MaxConnections: 10, MinConnections: 2}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	tables := []string{
		"outbox", "payments", "order_items", "orders", "cart_items", "carts",
		"coupons", "addresses", "package_options", "coffees", "members",
	}
	for _, table := range tables {
		if _, err := pool.Exec(context.Background(), fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// App is the full HTTP stack wired against a test database and a fake
// payment provider.
type App struct {
	Handler  http.Handler
	Pool     *pgxpool.Pool
	Stripe   *paymenttest.Server
	Tokens   *auth.TokenManager
	Checkout checkout.Service
}

// NewApp wires every layer the way cmd/api does, without Redis and with the
// background workers left to the test.
func NewApp(t *testing.T, testDB *TestDB) *App {
	t.Helper()

	logger := zerolog.Nop()
	pool := testDB.Pool

	stripe := paymenttest.NewServer()
	t.Cleanup(stripe.Close)

	txManager := repository.NewTxManager(pool, logger)
	coffeeRepo := repository.NewCoffeeRepository(pool, logger)
	cartRepo := repository.NewCartRepository(logger)
	addressRepo := repository.NewAddressRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	memberRepo := repository.NewMemberRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	outboxRepo := repository.NewOutboxRepository(pool, logger)

	validator := coupon.NewValidator(couponRepo, logger)
	importer := coupon.NewImporter(coupon.NewLoader(logger, coupon.NewDirSource(t.TempDir())), couponRepo, txManager, logger)
	recorder := events.NewRecorder(outboxRepo, logger)
	tokens := auth.NewTokenManager("integration-secret", "coffee-shop", time.Hour)
	m := metrics.New()

	checkoutService := checkout.NewService(checkout.Dependencies{
		TxManager: txManager,
		Carts:     cartRepo,
		Orders:    orderRepo,
		Payments:  repository.NewPaymentRepository(pool, logger),
		Addresses: addressRepo,
		Members:   memberRepo,
		Inventory: inventory.NewReserver(coffeeRepo, logger),
		Coupons:   validator,
		Provider:  payment.NewStripeProvider(stripe.PaymentConfig(), logger),
		Events:    recorder,
		Metrics:   m,
	}, checkout.Settings{
		Currency:        "EUR",
		ProviderTimeout: 2 * time.Second,
		ReconcileAfter:  time.Millisecond,
	}, logger)

	h := router.New(router.Handlers{
		Health:   handler.NewHealthHandler(pool, logger),
		Catalog:  handler.NewCatalogHandler(service.NewCatalogService(coffeeRepo, txManager, logger), logger),
		Cart:     handler.NewCartHandler(service.NewCartService(cartRepo, coffeeRepo, txManager, pool, logger), logger),
		Address:  handler.NewAddressHandler(service.NewAddressService(addressRepo, txManager, logger), logger),
		Coupon:   handler.NewCouponHandler(service.NewCouponService(couponRepo, cartRepo, validator, importer, pool, logger), logger),
		Member:   handler.NewMemberHandler(service.NewMemberService(memberRepo, txManager, coupon.NewIssuer(couponRepo, logger), recorder, tokens, logger), logger),
		Order:    handler.NewOrderHandler(service.NewOrderService(orderRepo, logger), logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
	}, tokens, m, testAPIKey, logger)

	return &App{
		Handler:  h,
		Pool:     pool,
		Stripe:   stripe,
		Tokens:   tokens,
		Checkout: checkoutService,
	}
}

// Do sends a request through the router. A non-empty token is sent as a
// bearer token.
func (a *App) Do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Handler.ServeHTTP(w, req)
	return w
}

// DoJSON sends a request, asserts the status and decodes the response into out.
func (a *App) DoJSON(t *testing.T, method, path, token string, body interface{}, status int, out interface{}) {
	t.Helper()

	w := a.Do(t, method, path, token, body)
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
	if out != nil {
		require.NoError(t, json.NewDecoder(w.Body).Decode(out))
	}
}

// Register signs up a member through the API and returns its token.
func (a *App) Register(t *testing.T, email string) string {
	t.Helper()

	var resp model.AuthResponse
	a.DoJSON(t, http.MethodPost, "/api/auth/register", "", &model.RegisterRequest{
		Email:     email,
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}, http.StatusCreated, &resp)
	return resp.Token
}

// AdminToken stores an admin member directly and returns a token for it.
func (a *App) AdminToken(t *testing.T) string {
	t.Helper()

	hash, err := auth.HashPassword("admin-password")
	require.NoError(t, err)

	admin := &model.Member{
		ID:           uuid.New(),
		Email:        "admin-" + uuid.NewString()[:8] + "@example.com",
		PasswordHash: hash,
		FirstName:    "Shop",
		LastName:     "Admin",
		Role:         model.RoleAdmin,
	}
	require.NoError(t, repository.NewMemberRepository(a.Pool, zerolog.Nop()).Create(context.Background(), a.Pool, admin))

	token, _, err := a.Tokens.Issue(admin)
	require.NoError(t, err)
	return token
}

// CreateCoffee adds a coffee through the admin API.
func (a *App) CreateCoffee(t *testing.T, adminToken string, req *model.CoffeeRequest) *model.Coffee {
	t.Helper()

	var coffee model.Coffee
	a.DoJSON(t, http.MethodPost, "/api/admin/coffees", adminToken, req, http.StatusCreated, &coffee)
	return &coffee
}

// CreateAddress adds an address for the member and returns its id.
func (a *App) CreateAddress(t *testing.T, token string) int64 {
	t.Helper()

	var address model.Address
	a.DoJSON(t, http.MethodPost, "/api/addresses", token, &model.AddressRequest{
		Street:     "1 Roastery Lane",
		City:       "Berlin",
		PostalCode: "10115",
		Country:    "DE",
		IsDefault:  true,
	}, http.StatusCreated, &address)
	return address.ID
}

// AddToCart adds quantity units of an option to the member's cart.
func (a *App) AddToCart(t *testing.T, token string, optionID int64, quantity int) model.CartResponse {
	t.Helper()

	var cart model.CartResponse
	a.DoJSON(t, http.MethodPost, "/api/cart/items", token,
		&model.AddToCartRequest{OptionID: optionID, Quantity: quantity}, http.StatusOK, &cart)
	return cart
}

// Stock returns the current quantity of an option.
func (a *App) Stock(t *testing.T, coffeeID, optionID int64) int {
	t.Helper()

	var coffee model.Coffee
	a.DoJSON(t, http.MethodGet, fmt.Sprintf("/api/coffees/%d", coffeeID), "", nil, http.StatusOK, &coffee)
	for _, o := range coffee.Options {
		if o.ID == optionID {
			return o.Quantity
		}
	}
	t.Fatalf("option %d not found on coffee %d", optionID, coffeeID)
	return 0
}

// OptionByWeight returns the id of the coffee's option with the given weight.
func OptionByWeight(t *testing.T, coffee *model.Coffee, weight model.Weight) int64 {
	t.Helper()

	for _, o := range coffee.Options {
		if o.Weight == weight {
			return o.ID
		}
	}
	t.Fatalf("coffee %s has no %dg option", coffee.Name, weight)
	return 0
}
