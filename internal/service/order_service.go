package service

import (
	"context"
	"fmt"

	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orderRepo repository.OrderRepository, logger zerolog.Logger) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// List retrieves the member's orders, newest first.
func (s *orderService) List(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]model.Order, error) {
	limit, offset = clampPage(limit, offset)

	orders, err := s.orderRepo.ListByMember(ctx, memberID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Str("member_id", memberID.String()).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	s.logger.Debug().
		Str("member_id", memberID.String()).
		Int("count", len(orders)).
		Msg("retrieved orders")

	return orders, nil
}

// GetByID retrieves an order by its ID. Orders of other members are reported
// as not found.
func (s *orderService) GetByID(ctx context.Context, memberID, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil || order.MemberID != memberID {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}
