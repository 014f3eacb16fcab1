package router

import (
	"net/http"

	"coffee-shop/internal/auth"
	"coffee-shop/internal/handler"
	"coffee-shop/internal/metrics"
	"coffee-shop/internal/middleware"
	"coffee-shop/internal/model"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Health   *handler.HealthHandler
	Catalog  *handler.CatalogHandler
	Cart     *handler.CartHandler
	Address  *handler.AddressHandler
	Coupon   *handler.CouponHandler
	Member   *handler.MemberHandler
	Order    *handler.OrderHandler
	Checkout *handler.CheckoutHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(
	h Handlers,
	tokens *auth.TokenManager,
	m *metrics.Metrics,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	internal := middleware.APIKeyAuth(apiKey, logger)
	member := middleware.MemberAuth(tokens, logger)
	admin := func(next http.Handler) http.Handler {
		return member(middleware.RequireRole(model.RoleAdmin, logger)(next))
	}

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", h.Health.Check)

	// Operations
	mux.Handle("GET /internal/metrics", internal(m.Handler()))
	mux.Handle("POST /internal/reconcile", internal(http.HandlerFunc(h.Checkout.Reconcile)))

	// Public
	mux.HandleFunc("POST /api/auth/register", h.Member.Register)
	mux.HandleFunc("POST /api/auth/login", h.Member.Login)
	mux.HandleFunc("GET /api/coffees", h.Catalog.GetAll)
	mux.HandleFunc("GET /api/coffees/{id}", h.Catalog.GetByID)

	// Member
	memberRoutes := map[string]http.HandlerFunc{
		"GET /api/members/me":               h.Member.Me,
		"GET /api/cart":                     h.Cart.Get,
		"DELETE /api/cart":                  h.Cart.Clear,
		"POST /api/cart/items":              h.Cart.AddItem,
		"PATCH /api/cart/items/{optionId}":  h.Cart.UpdateItem,
		"DELETE /api/cart/items/{optionId}": h.Cart.RemoveItem,
		"GET /api/addresses":                h.Address.List,
		"POST /api/addresses":               h.Address.Create,
		"PUT /api/addresses/{id}":           h.Address.Update,
		"DELETE /api/addresses/{id}":        h.Address.Delete,
		"GET /api/coupons":                  h.Coupon.ListUsable,
		"POST /api/coupons/validate":        h.Coupon.Preview,
		"GET /api/orders":                   h.Order.List,
		"GET /api/orders/{id}":              h.Order.GetByID,
		"POST /api/checkout/start":          h.Checkout.Start,
		"POST /api/checkout/finalize":       h.Checkout.Finalize,
	}
	for pattern, fn := range memberRoutes {
		mux.Handle(pattern, member(fn))
	}

	// Admin
	adminRoutes := map[string]http.HandlerFunc{
		"POST /api/admin/coffees":        h.Catalog.Create,
		"PUT /api/admin/coffees/{id}":    h.Catalog.Update,
		"DELETE /api/admin/coffees/{id}": h.Catalog.Delete,
		"GET /api/admin/coupons":         h.Coupon.ListAll,
		"POST /api/admin/coupons":        h.Coupon.Create,
		"POST /api/admin/coupons/import": h.Coupon.Import,
	}
	for pattern, fn := range adminRoutes {
		mux.Handle(pattern, admin(fn))
	}

	// Apply middleware in order: Recovery -> RequestID -> Logging -> CORS -> Metrics
	var handler http.Handler = mux
	handler = middleware.Metrics(m)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
