package coupon

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// MaxCodeLength bounds a single code line.
const MaxCodeLength = 64

// ErrNoSources is returned by a loader built without any source.
var ErrNoSources = errors.New("no coupon sources configured")

// chainLoader reads a code file from the first source that can open it.
type chainLoader struct {
	sources []Source
	logger  zerolog.Logger
}

// NewLoader creates a loader that tries sources in order, e.g. S3 first and
// the local import directory second.
func NewLoader(logger zerolog.Logger, sources ...Source) Loader {
	return &chainLoader{
		sources: sources,
		logger:  logger.With().Str("component", "coupon-loader").Logger(),
	}
}

// Load decodes name from the first source that opens it. A file that opens
// but fails to decode is an error; later sources are not tried.
func (l *chainLoader) Load(ctx context.Context, name string) (CouponSet, error) {
	if err := validSourceName(name); err != nil {
		return nil, err
	}
	if len(l.sources) == 0 {
		return nil, ErrNoSources
	}

	var openErrs []error
	for _, src := range l.sources {
		rc, err := src.Open(ctx, name)
		if err != nil {
			l.logger.Warn().
				Err(err).
				Str("source", src.Describe()).
				Str("name", name).
				Msg("coupon file not available from source")
			openErrs = append(openErrs, err)
			continue
		}

		set, err := readCodes(ctx, rc)
		rc.Close()
		if err != nil {
			l.logger.Error().
				Err(err).
				Str("source", src.Describe()).
				Str("name", name).
				Msg("failed to read coupon file")
			return nil, fmt.Errorf("error reading coupon file %s from %s: %w", name, src.Describe(), err)
		}

		l.logger.Info().
			Str("source", src.Describe()).
			Str("name", name).
			Int("codes", set.Size()).
			Msg("coupon file loaded")
		return set, nil
	}

	return nil, errors.Join(openErrs...)
}

// readCodes decompresses r and collects one code per non-blank line. Codes
// are upper-cased; lines longer than MaxCodeLength are rejected.
func readCodes(ctx context.Context, r io.Reader) (CouponSet, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("not a gzip stream: %w", err)
	}
	defer zr.Close()

	set := NewMapCouponSet(1024).(*mapCouponSet)
	scanner := bufio.NewScanner(zr)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		if lineNo%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		code := normaliseCode(scanner.Text())
		switch {
		case code == "":
			continue
		case len(code) > MaxCodeLength:
			return nil, fmt.Errorf("line %d: code longer than %d characters", lineNo, MaxCodeLength)
		}
		set.Add(code)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}
