package collector

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"SP500Collector/internal/model"
)

// ErrNoPriceData is returned when no symbol in a bulk download produced bars.
var ErrNoPriceData = errors.New("no price data returned for any symbol")

// BulkDownloader fetches bars for many symbols in parallel into one table.
type BulkDownloader struct {
	Fetcher PriceFetcher
	Threads int
}

// NewBulkDownloader creates a downloader. threads <= 0 means twice the CPU count.
func NewBulkDownloader(f PriceFetcher, threads int) *BulkDownloader {
	if threads <= 0 {
		threads = 2 * runtime.NumCPU()
	}
	return &BulkDownloader{Fetcher: f, Threads: threads}
}

// Download fetches every symbol over the window. A failed symbol is logged and
// left without bars; only a download where every symbol fails is an error.
func (d *BulkDownloader) Download(ctx context.Context, symbols []string, w Window) (*model.PriceTable, error) {
	table := model.NewPriceTable(symbols)
	var (
		mu     sync.Mutex
		failed int
	)

	var g errgroup.Group
	g.SetLimit(d.Threads)
	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			bars, err := d.Fetcher.FetchBars(ctx, sym, w)
			mu.Lock()
			defer mu.Unlock()
			if err == nil && len(bars) == 0 {
				err = errors.New("empty series")
			}
			if err != nil {
				failed++
				log.Warn().Str("symbol", sym).Err(err).Msg("price download failed")
				return nil
			}
			table.Bars[sym] = bars
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(symbols) > 0 && len(table.Bars) == 0 {
		return nil, ErrNoPriceData
	}
	table.FetchedAt = time.Now()
	log.Info().
		Str("provider", d.Fetcher.Name()).
		Int("symbols", len(symbols)).
		Int("failed", failed).
		Msg("bulk price download complete")
	return table, nil
}
