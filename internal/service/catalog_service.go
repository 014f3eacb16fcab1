package service

import (
	"context"
	"fmt"

	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// catalogService implements CatalogService.
type catalogService struct {
	coffeeRepo repository.CoffeeRepository
	txManager  repository.TxManager
	logger     zerolog.Logger
}

// NewCatalogService creates a new catalogue service.
func NewCatalogService(coffeeRepo repository.CoffeeRepository, txManager repository.TxManager, logger zerolog.Logger) CatalogService {
	return &catalogService{
		coffeeRepo: coffeeRepo,
		txManager:  txManager,
		logger:     logger.With().Str("service", "catalog").Logger(),
	}
}

// GetAll retrieves coffees with pagination.
func (s *catalogService) GetAll(ctx context.Context, limit, offset int) ([]model.Coffee, error) {
	limit, offset = clampPage(limit, offset)

	coffees, err := s.coffeeRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all coffees")
		return nil, fmt.Errorf("failed to get coffees: %w", err)
	}

	s.logger.Debug().
		Int("count", len(coffees)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved coffees")

	return coffees, nil
}

// GetByID retrieves a single coffee by ID.
func (s *catalogService) GetByID(ctx context.Context, id int64) (*model.Coffee, error) {
	if id <= 0 {
		return nil, model.ErrCoffeeNotFound
	}

	coffee, err := s.coffeeRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("coffee_id", id).Msg("failed to get coffee by ID")
		return nil, fmt.Errorf("failed to get coffee: %w", err)
	}

	if coffee == nil {
		s.logger.Debug().Int64("coffee_id", id).Msg("coffee not found")
		return nil, model.ErrCoffeeNotFound
	}

	return coffee, nil
}

// Create validates and stores a new coffee.
func (s *catalogService) Create(ctx context.Context, req *model.CoffeeRequest) (*model.Coffee, error) {
	coffee, err := req.ToCoffee()
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.coffeeRepo.Create(ctx, tx, coffee)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("coffee_id", coffee.ID).
		Str("name", coffee.Name).
		Int("option_count", len(coffee.Options)).
		Msg("coffee created")

	return coffee, nil
}

// Update replaces a coffee and its option set.
func (s *catalogService) Update(ctx context.Context, id int64, req *model.CoffeeRequest) (*model.Coffee, error) {
	coffee, err := req.ToCoffee()
	if err != nil {
		return nil, err
	}
	coffee.ID = id

	err = s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.coffeeRepo.Update(ctx, tx, coffee)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("coffee_id", id).Msg("coffee updated")

	// reload for the generated option ids
	return s.GetByID(ctx, id)
}

// Delete removes a coffee and, by cascade, its options.
func (s *catalogService) Delete(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		deleted, err := s.coffeeRepo.Delete(ctx, tx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return model.ErrCoffeeNotFound
		}
		s.logger.Info().Int64("coffee_id", id).Msg("coffee deleted")
		return nil
	})
}

func (s *catalogService) inTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return runInTx(ctx, s.txManager, s.logger, fn)
}
