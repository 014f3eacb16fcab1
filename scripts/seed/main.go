package main

import (
	"context"
	"fmt"
	"os"

	"coffee-shop/internal/auth"
	"coffee-shop/internal/config"
	"coffee-shop/internal/database"
	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// seed applies the schema, loads a demo catalogue when the catalogue is empty,
// and creates an admin account from SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	coffeeRepo := repository.NewCoffeeRepository(pool, logger)
	existing, err := coffeeRepo.GetAll(ctx, 1, 0)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info().Msg("catalogue already seeded")
	} else {
		txManager := repository.NewTxManager(pool, logger)
		tx, err := txManager.BeginTx(ctx)
		if err != nil {
			return err
		}
		for i := range catalogue {
			if err := coffeeRepo.Create(ctx, tx, &catalogue[i]); err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("failed to seed %s: %w", catalogue[i].Name, err)
			}
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit catalogue: %w", err)
		}
		logger.Info().Int("coffees", len(catalogue)).Msg("catalogue seeded")
	}

	email, password := os.Getenv("SEED_ADMIN_EMAIL"), os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Info().Msg("SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set, skipping admin account")
		return nil
	}

	req := model.RegisterRequest{Email: email, Password: password, FirstName: "Shop", LastName: "Admin"}
	if err := req.Validate(); err != nil {
		return err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	err = repository.NewMemberRepository(pool, logger).Create(ctx, pool, &model.Member{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         model.RoleAdmin,
	})
	switch {
	case model.CodeOf(err) == model.ErrCodeConflict:
		logger.Info().Str("email", req.Email).Msg("admin account already exists")
	case err != nil:
		return fmt.Errorf("failed to create admin account: %w", err)
	default:
		logger.Info().Str("email", req.Email).Msg("admin account created")
	}
	return nil
}

func option(weight model.Weight, price string, quantity int) model.PackageOption {
	return model.PackageOption{Weight: weight, Price: decimal.RequireFromString(price), Quantity: quantity}
}

var catalogue = []model.Coffee{
	{
		Name:        "Ethiopia Guji",
		Description: "Washed heirloom varieties with jasmine and bergamot.",
		Origin:      "Ethiopia",
		RoastLevel:  "LIGHT",
		Options: []model.PackageOption{
			option(model.Weight250, "9.90", 120),
			option(model.Weight500, "18.50", 60),
			option(model.Weight1000, "34.00", 15),
		},
	},
	{
		Name:        "Colombia Huila",
		Description: "Caramel sweetness and red apple acidity.",
		Origin:      "Colombia",
		RoastLevel:  "MEDIUM",
		Options: []model.PackageOption{
			option(model.Weight250, "8.90", 200),
			option(model.Weight1000, "31.00", 40),
		},
	},
	{
		Name:        "Sumatra Mandheling",
		Description: "Full body, cedar and dark chocolate.",
		Origin:      "Indonesia",
		RoastLevel:  "DARK",
		Options: []model.PackageOption{
			option(model.Weight250, "5.70", 8),
			option(model.Weight500, "10.90", 0),
		},
	},
}
