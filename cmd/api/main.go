package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"coffee-shop/internal/auth"
	"coffee-shop/internal/cache"
	"coffee-shop/internal/checkout"
	"coffee-shop/internal/config"
	"coffee-shop/internal/coupon"
	"coffee-shop/internal/database"
	"coffee-shop/internal/events"
	"coffee-shop/internal/handler"
	"coffee-shop/internal/inventory"
	"coffee-shop/internal/metrics"
	"coffee-shop/internal/payment"
	"coffee-shop/internal/repository"
	"coffee-shop/internal/router"
	"coffee-shop/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting coffee-shop API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	m := metrics.New()

	// Initialize repositories
	txManager := repository.NewTxManager(pool, logger)
	coffeeRepo := repository.NewCoffeeRepository(pool, logger)
	cartRepo := repository.NewCartRepository(logger)
	addressRepo := repository.NewAddressRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	memberRepo := repository.NewMemberRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	paymentRepo := repository.NewPaymentRepository(pool, logger)
	outboxRepo := repository.NewOutboxRepository(pool, logger)

	// Coupon code files are read from S3 when enabled, then the local import dir
	var sources []coupon.Source
	if cfg.S3.Enabled {
		s3Source, err := coupon.NewS3Source(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 coupon source, using local files only")
		} else {
			sources = append(sources, s3Source)
		}
	} else {
		logger.Info().Msg("using local file system for coupon files (S3 disabled)")
	}
	sources = append(sources, coupon.NewDirSource(cfg.Coupons.ImportDir))
	couponLoader := coupon.NewLoader(logger, sources...)

	validator := coupon.NewValidator(couponRepo, logger)
	issuer := coupon.NewIssuer(couponRepo, logger)
	importer := coupon.NewImporter(couponLoader, couponRepo, txManager, logger)

	// Idempotency keys need Redis; without it checkout starts are not deduplicated
	var idempotency cache.IdempotencyStore
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close redis client")
			}
		}()
		idempotency = cache.NewRedisIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL, logger)
	}

	publisher, err := events.NewPublisher(cfg.Events, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()
	recorder := events.NewRecorder(outboxRepo, logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTTTL)

	// Initialize services
	catalogService := service.NewCatalogService(coffeeRepo, txManager, logger)
	cartService := service.NewCartService(cartRepo, coffeeRepo, txManager, pool, logger)
	addressService := service.NewAddressService(addressRepo, txManager, logger)
	couponService := service.NewCouponService(couponRepo, cartRepo, validator, importer, pool, logger)
	memberService := service.NewMemberService(memberRepo, txManager, issuer, recorder, tokens, logger)
	orderService := service.NewOrderService(orderRepo, logger)

	checkoutService := checkout.NewService(checkout.Dependencies{
		TxManager:   txManager,
		Carts:       cartRepo,
		Orders:      orderRepo,
		Payments:    paymentRepo,
		Addresses:   addressRepo,
		Members:     memberRepo,
		Inventory:   inventory.NewReserver(coffeeRepo, logger),
		Coupons:     validator,
		Provider:    payment.NewStripeProvider(cfg.Payment, logger),
		Events:      recorder,
		Idempotency: idempotency,
		Metrics:     m,
	}, checkout.Settings{
		Currency:        cfg.Payment.Currency,
		ProviderTimeout: cfg.Payment.Timeout,
		ReconcileAfter:  cfg.Checkout.ReconcileAfter,
	}, logger)

	// Background workers stop when ctx is cancelled
	var workers sync.WaitGroup
	relay := events.NewRelay(outboxRepo, publisher, m, cfg.Events.RelayInterval, cfg.Events.RelayBatchSize, logger)
	reconciler := checkout.NewReconciler(checkoutService, cfg.Checkout.ReconcileInterval, logger)
	workers.Add(2)
	go func() {
		defer workers.Done()
		relay.Run(ctx)
	}()
	go func() {
		defer workers.Done()
		reconciler.Run(ctx)
	}()

	// Initialize router
	mux := router.New(router.Handlers{
		Health:   handler.NewHealthHandler(pool, logger),
		Catalog:  handler.NewCatalogHandler(catalogService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Address:  handler.NewAddressHandler(addressService, logger),
		Coupon:   handler.NewCouponHandler(couponService, logger),
		Member:   handler.NewMemberHandler(memberService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
	}, tokens, m, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + cfg.Payment.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		cancel()
		workers.Wait()
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			cancel()
			workers.Wait()
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		cancel()
		workers.Wait()
		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
