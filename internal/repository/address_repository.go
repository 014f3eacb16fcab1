package repository

import (
	"context"
	"errors"
	"fmt"

	"coffee-shop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// addressRepository implements the AddressRepository interface using PostgreSQL.
type addressRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool *pgxpool.Pool, logger zerolog.Logger) AddressRepository {
	return &addressRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "address").Logger(),
	}
}

const addressColumns = `id, member_id, street, city, postal_code, country, is_default, created_at, updated_at`

func scanAddress(row pgx.Row, a *model.Address) error {
	return row.Scan(&a.ID, &a.MemberID, &a.Street, &a.City, &a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
}

// ListByMember returns the member's addresses, default first.
func (r *addressRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.Address, error) {
	query := `SELECT ` + addressColumns + `
		FROM addresses
		WHERE member_id = $1
		ORDER BY is_default DESC, id
	`

	rows, err := r.pool.Query(ctx, query, memberID)
	if err != nil {
		r.logger.Error().Err(err).Str("member_id", memberID.String()).Msg("failed to query addresses")
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	addresses := []model.Address{}
	for rows.Next() {
		var a model.Address
		if err := scanAddress(rows, &a); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan address row")
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating address rows")
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}

// GetForMember retrieves an address owned by memberID, or nil.
func (r *addressRepository) GetForMember(ctx context.Context, id int64, memberID uuid.UUID) (*model.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND member_id = $2`

	var a model.Address
	if err := scanAddress(r.pool.QueryRow(ctx, query, id, memberID), &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("address_id", id).Str("member_id", memberID.String()).Msg("address not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("address_id", id).Msg("failed to query address")
		return nil, fmt.Errorf("failed to query address: %w", err)
	}
	return &a, nil
}

// Create inserts an address.
func (r *addressRepository) Create(ctx context.Context, tx pgx.Tx, a *model.Address) error {
	query := `
		INSERT INTO addresses (member_id, street, city, postal_code, country, is_default)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query, a.MemberID, a.Street, a.City, a.PostalCode, a.Country, a.IsDefault).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("member_id", a.MemberID.String()).Msg("failed to create address")
		return fmt.Errorf("failed to create address: %w", err)
	}
	return nil
}

// Update overwrites an address owned by a.MemberID.
func (r *addressRepository) Update(ctx context.Context, tx pgx.Tx, a *model.Address) (bool, error) {
	query := `
		UPDATE addresses
		SET street = $3, city = $4, postal_code = $5, country = $6, is_default = $7, updated_at = NOW()
		WHERE id = $1 AND member_id = $2
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query, a.ID, a.MemberID, a.Street, a.City, a.PostalCode, a.Country, a.IsDefault).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		r.logger.Error().Err(err).Int64("address_id", a.ID).Msg("failed to update address")
		return false, fmt.Errorf("failed to update address: %w", err)
	}
	return true, nil
}

// Delete removes an address owned by memberID.
func (r *addressRepository) Delete(ctx context.Context, id int64, memberID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND member_id = $2`, id, memberID)
	if err != nil {
		r.logger.Error().Err(err).Int64("address_id", id).Msg("failed to delete address")
		return false, fmt.Errorf("failed to delete address: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ClearDefault unsets the default flag on the member's other addresses.
func (r *addressRepository) ClearDefault(ctx context.Context, tx pgx.Tx, memberID uuid.UUID, exceptID int64) error {
	_, err := tx.Exec(ctx, `UPDATE addresses SET is_default = FALSE WHERE member_id = $1 AND id <> $2 AND is_default`, memberID, exceptID)
	if err != nil {
		r.logger.Error().Err(err).Str("member_id", memberID.String()).Msg("failed to clear default address")
		return fmt.Errorf("failed to clear default address: %w", err)
	}
	return nil
}
