package collector

import (
	"context"
	"time"

	"SP500Collector/internal/model"
)

// Window is the time range of a bar request.
type Window struct {
	Start    time.Time
	End      time.Time
	Interval string
	// Adjusted applies split/dividend adjustment to OHLC.
	Adjusted bool
}

// LookbackWindow returns a window covering the last years up to now.
func LookbackWindow(years int, interval string, adjusted bool) Window {
	end := time.Now()
	return Window{
		Start:    end.AddDate(-years, 0, 0),
		End:      end,
		Interval: interval,
		Adjusted: adjusted,
	}
}

// PriceFetcher fetches bar history for one symbol.
type PriceFetcher interface {
	FetchBars(ctx context.Context, symbol string, w Window) ([]model.OHLCV, error)
	Name() string
}

// FundamentalsFetcher fetches company info and quarterly statements for one symbol.
type FundamentalsFetcher interface {
	FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error)
}

// Fetcher is a market-data provider serving both download phases.
type Fetcher interface {
	PriceFetcher
	FundamentalsFetcher
}

// TickerSource discovers the symbols to collect.
type TickerSource interface {
	Tickers(ctx context.Context) ([]string, error)
}
