package coupon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/rs/zerolog"
)

// importBatchSize caps the number of rows sent in one batch.
const importBatchSize = 1000

// Importer creates coupons in bulk from code files.
type Importer interface {
	// Import loads every source, builds a coupon per distinct code from the
	// request template and inserts them, skipping codes that already exist.
	Import(ctx context.Context, req *model.CouponImportRequest) (*model.CouponImportResponse, error)
}

type importer struct {
	loader     Loader
	couponRepo repository.CouponRepository
	txManager  repository.TxManager
	logger     zerolog.Logger
}

// NewImporter creates a bulk coupon importer.
func NewImporter(loader Loader, couponRepo repository.CouponRepository, txManager repository.TxManager, logger zerolog.Logger) Importer {
	return &importer{
		loader:     loader,
		couponRepo: couponRepo,
		txManager:  txManager,
		logger:     logger.With().Str("component", "coupon-importer").Logger(),
	}
}

// Import loads every source and inserts the codes it finds.
func (im *importer) Import(ctx context.Context, req *model.CouponImportRequest) (resp *model.CouponImportResponse, err error) {
	started := time.Now()

	if len(req.Sources) == 0 {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "At least one source is required")
	}
	template := req.CouponRequest.ToCoupon()
	template.Code = "TEMPLATE"
	if err := template.Validate(); err != nil {
		return nil, err
	}
	for _, source := range req.Sources {
		if err := validSourceName(source); err != nil {
			return nil, err
		}
	}

	sets, err := im.loadAll(ctx, req.Sources)
	if err != nil {
		return nil, err
	}
	codes := Merge(sets...).Codes()

	tx, err := im.txManager.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to import coupons: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				im.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	created := 0
	for start := 0; start < len(codes); start += importBatchSize {
		end := min(start+importBatchSize, len(codes))

		batch := make([]model.Coupon, 0, end-start)
		for _, code := range codes[start:end] {
			c := *template
			c.Code = code
			batch = append(batch, c)
		}

		n, batchErr := im.couponRepo.CreateBatch(ctx, tx, batch)
		if batchErr != nil {
			err = fmt.Errorf("failed to import coupons: %w", batchErr)
			return nil, err
		}
		created += n
	}

	if err = tx.Commit(ctx); err != nil {
		im.logger.Error().Err(err).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to import coupons: %w", err)
	}

	resp = &model.CouponImportResponse{
		Sources:  req.Sources,
		Read:     len(codes),
		Created:  created,
		Skipped:  len(codes) - created,
		Duration: time.Since(started).Round(time.Millisecond).String(),
	}

	im.logger.Info().
		Strs("sources", req.Sources).
		Int("read", resp.Read).
		Int("created", resp.Created).
		Int("skipped", resp.Skipped).
		Msg("coupon import finished")

	return resp, nil
}

// loadAll loads every source concurrently and returns the sets in source order.
func (im *importer) loadAll(ctx context.Context, sources []string) ([]CouponSet, error) {
	type loadResult struct {
		index int
		set   CouponSet
		err   error
	}

	resultChan := make(chan loadResult, len(sources))
	var wg sync.WaitGroup

	for i, source := range sources {
		wg.Add(1)
		go func(index int, name string) {
			defer wg.Done()

			set, err := im.loader.Load(ctx, name)
			resultChan <- loadResult{index: index, set: set, err: err}
		}(i, source)
	}

	// Wait for all loads to complete
	wg.Wait()
	close(resultChan)

	// Collect results in order
	results := make([]loadResult, len(sources))
	for result := range resultChan {
		results[result.index] = result
	}

	sets := make([]CouponSet, 0, len(sources))
	for i, result := range results {
		if result.err != nil {
			im.logger.Error().
				Err(result.err).
				Str("source", sources[i]).
				Msg("failed to load coupon source")
			return nil, model.NewDomainError(model.ErrCodeInvalidArgument,
				fmt.Sprintf("Could not read coupon source %s", sources[i]))
		}
		sets = append(sets, result.set)
	}

	return sets, nil
}
