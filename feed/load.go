package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rdholakia/kaagaz/broker"
	"github.com/rdholakia/kaagaz/market"
)

// LoadOptions controls how session data is assembled.
type LoadOptions struct {
	Interval market.Interval
	From     time.Time
	To       time.Time

	// SyntheticFallback substitutes generated bars for any symbol whose
	// historical fetch fails or comes back empty. When false, that
	// condition aborts the load.
	SyntheticFallback bool
	SyntheticBars     int
	Seed              int64

	Logger zerolog.Logger
}

// Load fetches one bar series per instrument from source. A nil source
// generates everything synthetically. A symbol that ends up with no bars
// at all aborts the load; a session cannot start on an empty series.
func Load(ctx context.Context, source broker.BarSource, instruments []market.Instrument, opts LoadOptions) (map[string][]market.Bar, error) {
	if len(instruments) == 0 {
		return nil, errors.New("no instruments to load")
	}
	if opts.SyntheticBars <= 0 {
		opts.SyntheticBars = 100
	}

	series := make(map[string][]market.Bar, len(instruments))

	for _, inst := range instruments {
		bars, err := fetch(ctx, source, inst, opts)
		if err != nil {
			return nil, err
		}
		if len(bars) == 0 {
			return nil, fmt.Errorf("no bar data for %s", inst.Symbol)
		}
		if err := market.ValidateSeries(bars); err != nil {
			return nil, fmt.Errorf("bad series for %s: %w", inst.Symbol, err)
		}

		series[inst.Symbol] = bars
	}

	return series, nil
}

func fetch(ctx context.Context, source broker.BarSource, inst market.Instrument, opts LoadOptions) ([]market.Bar, error) {
	if source == nil {
		opts.Logger.Debug().Str("symbol", inst.Symbol).Msg("no bar source, generating synthetic data")
		return market.Synthetic(inst.Symbol, opts.SyntheticBars, opts.From, opts.Seed), nil
	}

	bars, err := source.HistoricalBars(ctx, inst, opts.Interval, opts.From, opts.To)

	switch {
	case err == nil && len(bars) > 0:
		return bars, nil

	case err != nil && !errors.Is(err, broker.ErrDataUnavailable):
		return nil, fmt.Errorf("fetch bars for %s: %w", inst.Symbol, err)
	}

	// Unavailable or empty.
	if !opts.SyntheticFallback {
		if err != nil {
			return nil, fmt.Errorf("fetch bars for %s: %w", inst.Symbol, err)
		}
		return nil, fmt.Errorf("no bar data for %s: %w", inst.Symbol, broker.ErrDataUnavailable)
	}

	opts.Logger.Warn().
		Str("symbol", inst.Symbol).
		Err(err).
		Msg("historical data unavailable, falling back to synthetic bars")

	return market.Synthetic(inst.Symbol, opts.SyntheticBars, opts.From, opts.Seed), nil
}
