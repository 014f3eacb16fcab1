package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coffee-shop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

const couponColumns = `id, code, discount_type, discount_value, min_order_value, max_use, usage_count,
	expires_at, user_mail, active, created_at, updated_at`

func scanCoupon(row pgx.Row, c *model.Coupon) error {
	return row.Scan(
		&c.ID,
		&c.Code,
		&c.DiscountType,
		&c.DiscountValue,
		&c.MinOrderValue,
		&c.MaxUse,
		&c.UsageCount,
		&c.ExpiresAt,
		&c.UserMail,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

// GetByCode retrieves a coupon, or nil if the code is unknown.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return r.getByCode(ctx, r.pool, code, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`)
}

// GetByCodeForUpdate retrieves and row-locks a coupon, or nil.
func (r *couponRepository) GetByCodeForUpdate(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error) {
	return r.getByCode(ctx, tx, code, `SELECT `+couponColumns+` FROM coupons WHERE code = $1 FOR UPDATE`)
}

func (r *couponRepository) getByCode(ctx context.Context, q DBTX, code, query string) (*model.Coupon, error) {
	var c model.Coupon
	if err := scanCoupon(q.QueryRow(ctx, query, code), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("coupon_code", code).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("coupon_code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}
	return &c, nil
}

// Create inserts a coupon.
func (r *couponRepository) Create(ctx context.Context, q DBTX, coupon *model.Coupon) error {
	query := `
		INSERT INTO coupons (code, discount_type, discount_value, min_order_value, max_use, usage_count,
			expires_at, user_mail, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := q.QueryRow(ctx, query,
		coupon.Code,
		string(coupon.DiscountType),
		coupon.DiscountValue,
		coupon.MinOrderValue,
		coupon.MaxUse,
		coupon.UsageCount,
		coupon.ExpiresAt,
		coupon.UserMail,
		coupon.Active,
		coupon.CreatedAt,
		coupon.UpdatedAt,
	).Scan(&coupon.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewDomainError(model.ErrCodeConflict, fmt.Sprintf("Coupon %s already exists", coupon.Code))
		}
		r.logger.Error().Err(err).Str("coupon_code", coupon.Code).Msg("failed to create coupon")
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	r.logger.Debug().Str("coupon_code", coupon.Code).Int64("coupon_id", coupon.ID).Msg("coupon created")

	return nil
}

// Update persists usage count and active flag.
func (r *couponRepository) Update(ctx context.Context, q DBTX, coupon *model.Coupon) error {
	query := `
		UPDATE coupons
		SET usage_count = $2, active = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, coupon.ID, coupon.UsageCount, coupon.Active)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_code", coupon.Code).Msg("failed to update coupon")
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCouponNotFound
	}
	return nil
}

// ListUsableBy returns active, unexpired coupons open to everyone or owned by email.
func (r *couponRepository) ListUsableBy(ctx context.Context, email string, now time.Time) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + `
		FROM coupons
		WHERE active
			AND (expires_at IS NULL OR expires_at > $2)
			AND (user_mail IS NULL OR lower(user_mail) = lower($1))
			AND (max_use IS NULL OR usage_count < max_use)
		ORDER BY created_at DESC, id
	`
	return r.list(ctx, query, email, now)
}

// ListAll returns every coupon, with pagination support.
func (r *couponRepository) ListAll(ctx context.Context, limit, offset int) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + `
		FROM coupons
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`
	return r.list(ctx, query, limit, offset)
}

func (r *couponRepository) list(ctx context.Context, query string, args ...any) ([]model.Coupon, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query coupons")
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		var c model.Coupon
		if err := scanCoupon(rows, &c); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan coupon row")
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating coupon rows")
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

// CreateBatch inserts coupons, skipping codes that already exist.
func (r *couponRepository) CreateBatch(ctx context.Context, tx pgx.Tx, coupons []model.Coupon) (int, error) {
	if len(coupons) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO coupons (code, discount_type, discount_value, min_order_value, max_use, usage_count,
			expires_at, user_mail, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, TRUE, NOW(), NOW())
		ON CONFLICT (code) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, c := range coupons {
		batch.Queue(query, c.Code, string(c.DiscountType), c.DiscountValue, c.MinOrderValue, c.MaxUse, c.ExpiresAt, c.UserMail)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	created := 0
	for i := range coupons {
		tag, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("coupon_code", coupons[i].Code).
				Msg("failed to insert coupon")
			return created, fmt.Errorf("failed to insert coupon %s: %w", coupons[i].Code, err)
		}
		created += int(tag.RowsAffected())
	}

	return created, nil
}
