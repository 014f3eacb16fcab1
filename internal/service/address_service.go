package service

import (
	"context"
	"fmt"
	"strings"

	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// addressService implements AddressService.
type addressService struct {
	addressRepo repository.AddressRepository
	txManager   repository.TxManager
	logger      zerolog.Logger
}

// NewAddressService creates a new address book service.
func NewAddressService(addressRepo repository.AddressRepository, txManager repository.TxManager, logger zerolog.Logger) AddressService {
	return &addressService{
		addressRepo: addressRepo,
		txManager:   txManager,
		logger:      logger.With().Str("service", "address").Logger(),
	}
}

func (s *addressService) List(ctx context.Context, memberID uuid.UUID) ([]model.Address, error) {
	addresses, err := s.addressRepo.ListByMember(ctx, memberID)
	if err != nil {
		s.logger.Error().Err(err).Str("member_id", memberID.String()).Msg("failed to list addresses")
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (s *addressService) Create(ctx context.Context, memberID uuid.UUID, req *model.AddressRequest) (*model.Address, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	address := fromRequest(memberID, req)
	err := runInTx(ctx, s.txManager, s.logger, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.addressRepo.Create(ctx, tx, address); err != nil {
			return err
		}
		if address.IsDefault {
			return s.addressRepo.ClearDefault(ctx, tx, memberID, address.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("address_id", address.ID).Str("member_id", memberID.String()).Msg("address created")
	return address, nil
}

func (s *addressService) Update(ctx context.Context, memberID uuid.UUID, id int64, req *model.AddressRequest) (*model.Address, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	address := fromRequest(memberID, req)
	address.ID = id
	err := runInTx(ctx, s.txManager, s.logger, func(ctx context.Context, tx pgx.Tx) error {
		updated, err := s.addressRepo.Update(ctx, tx, address)
		if err != nil {
			return err
		}
		if !updated {
			return model.ErrAddressNotFound
		}
		if address.IsDefault {
			return s.addressRepo.ClearDefault(ctx, tx, memberID, address.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return address, nil
}

func (s *addressService) Delete(ctx context.Context, memberID uuid.UUID, id int64) error {
	deleted, err := s.addressRepo.Delete(ctx, id, memberID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrAddressNotFound
	}
	s.logger.Info().Int64("address_id", id).Str("member_id", memberID.String()).Msg("address deleted")
	return nil
}

func fromRequest(memberID uuid.UUID, req *model.AddressRequest) *model.Address {
	return &model.Address{
		MemberID:   memberID,
		Street:     strings.TrimSpace(req.Street),
		City:       strings.TrimSpace(req.City),
		PostalCode: strings.TrimSpace(req.PostalCode),
		Country:    strings.TrimSpace(req.Country),
		IsDefault:  req.IsDefault,
	}
}
