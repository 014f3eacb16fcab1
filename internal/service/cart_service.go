package service

import (
	"context"
	"fmt"

	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	cartRepo   repository.CartRepository
	coffeeRepo repository.CoffeeRepository
	txManager  repository.TxManager
	db         repository.DBTX
	logger     zerolog.Logger
}

// NewCartService creates a new cart service. db serves reads outside a
// transaction.
func NewCartService(
	cartRepo repository.CartRepository,
	coffeeRepo repository.CoffeeRepository,
	txManager repository.TxManager,
	db repository.DBTX,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:   cartRepo,
		coffeeRepo: coffeeRepo,
		txManager:  txManager,
		db:         db,
		logger:     logger.With().Str("service", "cart").Logger(),
	}
}

// Get returns the member's cart, creating it on first access.
func (s *cartService) Get(ctx context.Context, memberID uuid.UUID) (*model.Cart, error) {
	return s.load(ctx, s.db, memberID, func() (*model.Cart, error) {
		return s.cartRepo.GetByMemberID(ctx, s.db, memberID)
	})
}

// AddItem adds quantity units of an option to the cart.
func (s *cartService) AddItem(ctx context.Context, memberID uuid.UUID, req *model.AddToCartRequest) (*model.Cart, error) {
	if req.OptionID <= 0 {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Option id is required")
	}
	if req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	option, err := s.option(ctx, req.OptionID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, memberID, func(ctx context.Context, tx pgx.Tx, cart *model.Cart) error {
		item, err := cart.AddOrIncrement(option, option.CoffeeName, req.Quantity)
		if err != nil {
			s.logger.Debug().
				Err(err).
				Int64("option_id", option.ID).
				Int("quantity", req.Quantity).
				Msg("cart item rejected")
			return err
		}
		return s.cartRepo.SaveItem(ctx, tx, &item)
	})
}

// UpdateItem sets the quantity of an existing line.
func (s *cartService) UpdateItem(ctx context.Context, memberID uuid.UUID, optionID int64, req *model.UpdateCartItemRequest) (*model.Cart, error) {
	if req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	option, err := s.option(ctx, optionID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, memberID, func(ctx context.Context, tx pgx.Tx, cart *model.Cart) error {
		item, err := cart.SetQuantity(option, req.Quantity)
		if err != nil {
			return err
		}
		return s.cartRepo.SaveItem(ctx, tx, &item)
	})
}

// RemoveItem drops a line from the cart. Removing an option the cart does
// not hold leaves it unchanged.
func (s *cartService) RemoveItem(ctx context.Context, memberID uuid.UUID, optionID int64) (*model.Cart, error) {
	return s.mutate(ctx, memberID, func(ctx context.Context, tx pgx.Tx, cart *model.Cart) error {
		if _, ok := cart.RemoveItem(optionID); !ok {
			s.logger.Debug().Int64("option_id", optionID).Msg("option not in cart, nothing to remove")
			return nil
		}
		return s.cartRepo.DeleteItem(ctx, tx, cart.ID, optionID)
	})
}

// Clear empties the cart.
func (s *cartService) Clear(ctx context.Context, memberID uuid.UUID) error {
	_, err := s.mutate(ctx, memberID, func(ctx context.Context, tx pgx.Tx, cart *model.Cart) error {
		removed := cart.Clear()
		s.logger.Debug().Int("item_count", len(removed)).Str("cart_id", cart.ID.String()).Msg("clearing cart")
		return s.cartRepo.ClearItems(ctx, tx, cart.ID)
	})
	return err
}

// mutate runs fn on the member's cart while holding its row lock, so
// concurrent changes to one cart apply one after the other.
func (s *cartService) mutate(ctx context.Context, memberID uuid.UUID, fn func(ctx context.Context, tx pgx.Tx, cart *model.Cart) error) (*model.Cart, error) {
	var cart *model.Cart
	err := runInTx(ctx, s.txManager, s.logger, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		cart, err = s.load(ctx, tx, memberID, func() (*model.Cart, error) {
			return s.cartRepo.LockByMemberID(ctx, tx, memberID)
		})
		if err != nil {
			return err
		}
		return fn(ctx, tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *cartService) load(ctx context.Context, q repository.DBTX, memberID uuid.UUID, fetch func() (*model.Cart, error)) (*model.Cart, error) {
	cart, err := fetch()
	if err != nil {
		s.logger.Error().Err(err).Str("member_id", memberID.String()).Msg("failed to load cart")
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart != nil {
		return cart, nil
	}

	if err := s.cartRepo.Create(ctx, q, model.NewCart(memberID)); err != nil {
		return nil, err
	}

	// reload: a concurrent request may have created the cart first
	cart, err = fetch()
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart == nil {
		return nil, model.NewDomainError(model.ErrCodeIllegalState, "Cart could not be created")
	}

	s.logger.Debug().Str("member_id", memberID.String()).Str("cart_id", cart.ID.String()).Msg("cart created")
	return cart, nil
}

func (s *cartService) option(ctx context.Context, id int64) (*model.PackageOption, error) {
	option, err := s.coffeeRepo.GetOption(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("option_id", id).Msg("failed to get package option")
		return nil, fmt.Errorf("failed to get package option: %w", err)
	}
	if option == nil {
		return nil, model.ErrOptionNotFound
	}
	return option, nil
}
