// Package inventory reserves and releases package option stock inside a
// caller-owned transaction.
package inventory

import (
	"context"
	"fmt"
	"slices"

	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Line is a quantity of one package option.
type Line struct {
	OptionID int64
	Quantity int
}

// Reserver locks options and moves their stock.
type Reserver interface {
	// Lock takes exclusive row locks on the given options in ascending id
	// order and returns them keyed by id. Every id must exist.
	Lock(ctx context.Context, tx pgx.Tx, optionIDs []int64) (map[int64]*model.PackageOption, error)

	// Decrement reduces stock for each line. Options must have been locked by
	// Lock in the same transaction.
	Decrement(ctx context.Context, tx pgx.Tx, locked map[int64]*model.PackageOption, lines []Line) error

	// Restore puts stock back for each line. Options must have been locked by
	// Lock in the same transaction.
	Restore(ctx context.Context, tx pgx.Tx, locked map[int64]*model.PackageOption, lines []Line) error
}

type reserver struct {
	coffeeRepo repository.CoffeeRepository
	logger     zerolog.Logger
}

// NewReserver creates a Reserver backed by the catalogue repository.
func NewReserver(coffeeRepo repository.CoffeeRepository, logger zerolog.Logger) Reserver {
	return &reserver{
		coffeeRepo: coffeeRepo,
		logger:     logger.With().Str("component", "inventory").Logger(),
	}
}

// Lock takes exclusive row locks on the given options in ascending id order.
func (r *reserver) Lock(ctx context.Context, tx pgx.Tx, optionIDs []int64) (map[int64]*model.PackageOption, error) {
	ids := slices.Clone(optionIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	if len(ids) == 0 {
		return nil, model.NewDomainError(model.ErrCodeNotFound, "No package options to lock")
	}

	options, err := r.coffeeRepo.LockOptions(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock package options: %w", err)
	}

	if len(options) != len(ids) {
		r.logger.Warn().
			Int("requested", len(ids)).
			Int("found", len(options)).
			Msg("package options missing while locking")
		return nil, model.NewDomainError(model.ErrCodeNotFound, "One or more package options no longer exist")
	}

	locked := make(map[int64]*model.PackageOption, len(options))
	for i := range options {
		locked[options[i].ID] = &options[i]
	}

	r.logger.Debug().Ints64("option_ids", ids).Msg("package options locked")

	return locked, nil
}

// Decrement reduces stock for each line.
func (r *reserver) Decrement(ctx context.Context, tx pgx.Tx, locked map[int64]*model.PackageOption, lines []Line) error {
	return r.apply(ctx, tx, locked, lines, (*model.PackageOption).Decrease)
}

// Restore puts stock back for each line.
func (r *reserver) Restore(ctx context.Context, tx pgx.Tx, locked map[int64]*model.PackageOption, lines []Line) error {
	return r.apply(ctx, tx, locked, lines, (*model.PackageOption).Increase)
}

func (r *reserver) apply(
	ctx context.Context,
	tx pgx.Tx,
	locked map[int64]*model.PackageOption,
	lines []Line,
	change func(*model.PackageOption, int) error,
) error {
	for _, line := range lines {
		option, ok := locked[line.OptionID]
		if !ok {
			r.logger.Error().Int64("option_id", line.OptionID).Msg("order line refers to an unlocked option")
			return model.NewDomainError(model.ErrCodeIllegalState,
				fmt.Sprintf("Package option %d was not locked", line.OptionID))
		}

		if err := change(option, line.Quantity); err != nil {
			r.logger.Warn().
				Err(err).
				Int64("option_id", line.OptionID).
				Int("quantity", line.Quantity).
				Int("available", option.Quantity).
				Msg("stock change rejected")
			return err
		}

		if err := r.coffeeRepo.UpdateOptionQuantity(ctx, tx, option.ID, option.Quantity); err != nil {
			return fmt.Errorf("failed to persist stock for option %d: %w", option.ID, err)
		}
	}

	return nil
}

// LinesFromCart converts cart items into inventory lines.
func LinesFromCart(items []model.CartItem) []Line {
	lines := make([]Line, len(items))
	for i, item := range items {
		lines[i] = Line{OptionID: item.OptionID, Quantity: item.Quantity}
	}
	return lines
}

// LinesFromOrder converts order items into inventory lines.
func LinesFromOrder(items []model.OrderItem) []Line {
	lines := make([]Line, len(items))
	for i, item := range items {
		lines[i] = Line{OptionID: item.OptionID, Quantity: item.Quantity}
	}
	return lines
}

// OptionIDs returns the option ids referenced by lines.
func OptionIDs(lines []Line) []int64 {
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.OptionID
	}
	return ids
}
