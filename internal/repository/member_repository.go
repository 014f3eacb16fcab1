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

// memberRepository implements the MemberRepository interface using PostgreSQL.
type memberRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewMemberRepository creates a new PostgreSQL-backed member repository.
func NewMemberRepository(pool *pgxpool.Pool, logger zerolog.Logger) MemberRepository {
	return &memberRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "member").Logger(),
	}
}

// Create inserts a member.
func (r *memberRepository) Create(ctx context.Context, q DBTX, m *model.Member) error {
	query := `
		INSERT INTO members (id, email, password_hash, first_name, last_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query, m.ID, m.Email, m.PasswordHash, m.FirstName, m.LastName, string(m.Role), m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailTaken
		}
		r.logger.Error().Err(err).Str("member_id", m.ID.String()).Msg("failed to create member")
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// GetByEmail retrieves a member, or nil.
func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*model.Member, error) {
	return r.get(ctx, `WHERE email = $1`, email)
}

// GetByID retrieves a member, or nil.
func (r *memberRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *memberRepository) get(ctx context.Context, where string, arg any) (*model.Member, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, role, created_at, updated_at
		FROM members ` + where

	var m model.Member
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&m.ID, &m.Email, &m.PasswordHash, &m.FirstName, &m.LastName, &m.Role, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Msg("member not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query member")
		return nil, fmt.Errorf("failed to query member: %w", err)
	}
	return &m, nil
}
