package repository

import (
	"context"
	"errors"
	"fmt"

	"coffee-shop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// coffeeRepository implements the CoffeeRepository interface using PostgreSQL.
type coffeeRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCoffeeRepository creates a new PostgreSQL-backed coffee repository.
func NewCoffeeRepository(pool *pgxpool.Pool, logger zerolog.Logger) CoffeeRepository {
	return &coffeeRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coffee").Logger(),
	}
}

const coffeeColumns = `id, name, description, origin, roast_level, image_url, created_at, updated_at`

func scanCoffee(row pgx.Row, c *model.Coffee) error {
	return row.Scan(&c.ID, &c.Name, &c.Description, &c.Origin, &c.RoastLevel, &c.ImageURL, &c.CreatedAt, &c.UpdatedAt)
}

// GetAll retrieves coffees with their options, with pagination support.
func (r *coffeeRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Coffee, error) {
	query := `SELECT ` + coffeeColumns + `
		FROM coffees
		ORDER BY name, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query coffees")
		return nil, fmt.Errorf("failed to query coffees: %w", err)
	}
	defer rows.Close()

	coffees := []model.Coffee{}
	for rows.Next() {
		var c model.Coffee
		if err := scanCoffee(rows, &c); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan coffee row")
			return nil, fmt.Errorf("failed to scan coffee: %w", err)
		}
		c.Options = []model.PackageOption{}
		coffees = append(coffees, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating coffee rows")
		return nil, fmt.Errorf("error iterating coffees: %w", err)
	}

	if len(coffees) == 0 {
		return coffees, nil
	}

	ids := make([]int64, len(coffees))
	index := make(map[int64]int, len(coffees))
	for i, c := range coffees {
		ids[i] = c.ID
		index[c.ID] = i
	}

	options, err := r.optionsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range options {
		i := index[o.CoffeeID]
		o.CoffeeName = coffees[i].Name
		coffees[i].Options = append(coffees[i].Options, o)
	}

	return coffees, nil
}

// GetByID retrieves a single coffee with its options.
func (r *coffeeRepository) GetByID(ctx context.Context, id int64) (*model.Coffee, error) {
	query := `SELECT ` + coffeeColumns + ` FROM coffees WHERE id = $1`

	var c model.Coffee
	if err := scanCoffee(r.pool.QueryRow(ctx, query, id), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("coffee_id", id).Msg("coffee not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("coffee_id", id).Msg("failed to query coffee")
		return nil, fmt.Errorf("failed to query coffee: %w", err)
	}

	options, err := r.optionsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	c.Options = make([]model.PackageOption, 0, len(options))
	for _, o := range options {
		o.CoffeeName = c.Name
		c.Options = append(c.Options, o)
	}

	return &c, nil
}

func (r *coffeeRepository) optionsFor(ctx context.Context, coffeeIDs []int64) ([]model.PackageOption, error) {
	query := `
		SELECT id, coffee_id, weight, price, quantity
		FROM package_options
		WHERE coffee_id = ANY($1)
		ORDER BY coffee_id, weight
	`

	rows, err := r.pool.Query(ctx, query, coffeeIDs)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(coffeeIDs)).Msg("failed to query package options")
		return nil, fmt.Errorf("failed to query package options: %w", err)
	}
	defer rows.Close()

	var options []model.PackageOption
	for rows.Next() {
		var o model.PackageOption
		if err := rows.Scan(&o.ID, &o.CoffeeID, &o.Weight, &o.Price, &o.Quantity); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan package option row")
			return nil, fmt.Errorf("failed to scan package option: %w", err)
		}
		options = append(options, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating package option rows")
		return nil, fmt.Errorf("error iterating package options: %w", err)
	}

	return options, nil
}

// GetOption retrieves a package option together with its coffee name.
func (r *coffeeRepository) GetOption(ctx context.Context, id int64) (*model.PackageOption, error) {
	query := `
		SELECT o.id, o.coffee_id, c.name, o.weight, o.price, o.quantity
		FROM package_options o
		JOIN coffees c ON c.id = o.coffee_id
		WHERE o.id = $1
	`

	var o model.PackageOption
	err := r.pool.QueryRow(ctx, query, id).Scan(&o.ID, &o.CoffeeID, &o.CoffeeName, &o.Weight, &o.Price, &o.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("option_id", id).Msg("package option not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("option_id", id).Msg("failed to query package option")
		return nil, fmt.Errorf("failed to query package option: %w", err)
	}

	return &o, nil
}

// Create inserts a coffee and its options, filling in generated ids.
func (r *coffeeRepository) Create(ctx context.Context, tx pgx.Tx, coffee *model.Coffee) error {
	query := `
		INSERT INTO coffees (name, description, origin, roast_level, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query, coffee.Name, coffee.Description, coffee.Origin, coffee.RoastLevel, coffee.ImageURL).
		Scan(&coffee.ID, &coffee.CreatedAt, &coffee.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("name", coffee.Name).Msg("failed to create coffee")
		return fmt.Errorf("failed to create coffee: %w", err)
	}

	if err := r.upsertOptions(ctx, tx, coffee); err != nil {
		return err
	}

	r.logger.Debug().
		Int64("coffee_id", coffee.ID).
		Int("options", len(coffee.Options)).
		Msg("coffee created successfully")

	return nil
}

// Update replaces a coffee's fields and option set.
func (r *coffeeRepository) Update(ctx context.Context, tx pgx.Tx, coffee *model.Coffee) error {
	query := `
		UPDATE coffees
		SET name = $2, description = $3, origin = $4, roast_level = $5, image_url = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query, coffee.ID, coffee.Name, coffee.Description, coffee.Origin, coffee.RoastLevel, coffee.ImageURL).
		Scan(&coffee.CreatedAt, &coffee.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrCoffeeNotFound
		}
		r.logger.Error().Err(err).Int64("coffee_id", coffee.ID).Msg("failed to update coffee")
		return fmt.Errorf("failed to update coffee: %w", err)
	}

	weights := make([]int, len(coffee.Options))
	for i, o := range coffee.Options {
		weights[i] = int(o.Weight)
	}

	if err := r.ensureUnreserved(ctx, tx, coffee.ID, weights); err != nil {
		return err
	}

	// cart lines for removed options cascade with them
	_, err = tx.Exec(ctx, `DELETE FROM package_options WHERE coffee_id = $1 AND NOT (weight = ANY($2))`, coffee.ID, weights)
	if err != nil {
		r.logger.Error().Err(err).Int64("coffee_id", coffee.ID).Msg("failed to remove package options")
		return fmt.Errorf("failed to remove package options: %w", err)
	}

	if err := r.upsertOptions(ctx, tx, coffee); err != nil {
		return err
	}

	r.logger.Debug().Int64("coffee_id", coffee.ID).Msg("coffee updated successfully")

	return nil
}

func (r *coffeeRepository) upsertOptions(ctx context.Context, tx pgx.Tx, coffee *model.Coffee) error {
	if len(coffee.Options) == 0 {
		return nil
	}

	query := `
		INSERT INTO package_options (coffee_id, weight, price, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (coffee_id, weight) DO UPDATE
		SET price = EXCLUDED.price, quantity = EXCLUDED.quantity
		RETURNING id
	`

	batch := &pgx.Batch{}
	for _, o := range coffee.Options {
		batch.Queue(query, coffee.ID, int(o.Weight), o.Price, o.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range coffee.Options {
		opt := &coffee.Options[i]
		if err := results.QueryRow().Scan(&opt.ID); err != nil {
			r.logger.Error().
				Err(err).
				Int64("coffee_id", coffee.ID).
				Int("weight", int(opt.Weight)).
				Msg("failed to save package option")
			return fmt.Errorf("failed to save package option: %w", err)
		}
		opt.CoffeeID = coffee.ID
		opt.CoffeeName = coffee.Name
	}

	return nil
}

// Delete removes a coffee and, by cascade, its options and any cart lines
// referencing them.
func (r *coffeeRepository) Delete(ctx context.Context, tx pgx.Tx, id int64) (bool, error) {
	if err := r.ensureUnreserved(ctx, tx, id, []int{}); err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM coffees WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("coffee_id", id).Msg("failed to delete coffee")
		return false, fmt.Errorf("failed to delete coffee: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ensureUnreserved locks the coffee's options outside keep and returns
// ErrOptionReserved if a pending order still holds stock of any of them.
func (r *coffeeRepository) ensureUnreserved(ctx context.Context, tx pgx.Tx, coffeeID int64, keep []int) error {
	// checkout locks the same rows before writing its order lines
	_, err := tx.Exec(ctx, `
		SELECT id FROM package_options
		WHERE coffee_id = $1 AND NOT (weight = ANY($2))
		ORDER BY id
		FOR UPDATE
	`, coffeeID, keep)
	if err != nil {
		r.logger.Error().Err(err).Int64("coffee_id", coffeeID).Msg("failed to lock package options")
		return fmt.Errorf("failed to lock package options: %w", err)
	}

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM order_items i
			JOIN orders o ON o.id = i.order_id
			JOIN package_options p ON p.id = i.option_id
			WHERE o.status = $3 AND p.coffee_id = $1 AND NOT (p.weight = ANY($2))
		)
	`

	var reserved bool
	if err := tx.QueryRow(ctx, query, coffeeID, keep, model.OrderPending).Scan(&reserved); err != nil {
		r.logger.Error().Err(err).Int64("coffee_id", coffeeID).Msg("failed to check pending reservations")
		return fmt.Errorf("failed to check pending reservations: %w", err)
	}
	if reserved {
		r.logger.Warn().Int64("coffee_id", coffeeID).Msg("package option removal blocked by pending order")
		return model.ErrOptionReserved
	}
	return nil
}

// LockOptions takes row locks on the given options in ascending id order.
func (r *coffeeRepository) LockOptions(ctx context.Context, tx pgx.Tx, ids []int64) ([]model.PackageOption, error) {
	if len(ids) == 0 {
		return []model.PackageOption{}, nil
	}

	query := `
		SELECT o.id, o.coffee_id, c.name, o.weight, o.price, o.quantity
		FROM package_options o
		JOIN coffees c ON c.id = o.coffee_id
		WHERE o.id = ANY($1)
		ORDER BY o.id
		FOR UPDATE OF o
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to lock package options")
		return nil, fmt.Errorf("failed to lock package options: %w", err)
	}
	defer rows.Close()

	var options []model.PackageOption
	for rows.Next() {
		var o model.PackageOption
		if err := rows.Scan(&o.ID, &o.CoffeeID, &o.CoffeeName, &o.Weight, &o.Price, &o.Quantity); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan locked package option row")
			return nil, fmt.Errorf("failed to scan package option: %w", err)
		}
		options = append(options, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating locked package option rows")
		return nil, fmt.Errorf("error iterating package options: %w", err)
	}

	return options, nil
}

// UpdateOptionQuantity writes a new stock level for a locked option.
func (r *coffeeRepository) UpdateOptionQuantity(ctx context.Context, tx pgx.Tx, optionID int64, quantity int) error {
	tag, err := tx.Exec(ctx, `UPDATE package_options SET quantity = $2 WHERE id = $1`, optionID, quantity)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("option_id", optionID).
			Int("quantity", quantity).
			Msg("failed to update package option quantity")
		return fmt.Errorf("failed to update package option quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOptionNotFound
	}
	return nil
}
