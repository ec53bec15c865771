package collector

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"SP500Collector/internal/export"
	"SP500Collector/internal/model"
)

// Options controls a collection run.
type Options struct {
	Dir           string
	PricesFile    string
	LookbackYears int
	Interval      string
	Adjusted      bool
	Threads       int // bulk price download parallelism
	Workers       int // concurrent fundamentals fetches
}

// Collector runs ticker discovery, the bulk price download and the per-symbol
// fundamentals download in sequence.
type Collector struct {
	Source  TickerSource
	Fetcher Fetcher
	Opts    Options
	// Out receives one line per symbol during the fundamentals phase.
	Out io.Writer
}

// NewCollector creates a new Collector writing progress lines to stdout.
func NewCollector(src TickerSource, fetcher Fetcher, opts Options) *Collector {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Collector{Source: src, Fetcher: fetcher, Opts: opts, Out: os.Stdout}
}

// Run executes all three phases. Discovery and price download errors end the run
// and are returned; per-symbol fundamentals failures are only reported. The
// returned summary is never nil and covers whatever completed.
func (c *Collector) Run(ctx context.Context) (*model.RunSummary, error) {
	summary := model.NewRunSummary()
	defer func() { summary.FinishedAt = time.Now() }()

	if err := os.MkdirAll(c.Opts.Dir, 0o755); err != nil {
		return summary, fmt.Errorf("create output dir: %w", err)
	}

	tickers, err := c.Source.Tickers(ctx)
	if err != nil {
		return summary, fmt.Errorf("discover tickers: %w", err)
	}
	if len(tickers) == 0 {
		return summary, fmt.Errorf("discover tickers: %w", ErrNoSymbols)
	}
	summary.Tickers = tickers

	path, rows, err := c.DownloadPrices(ctx, tickers)
	if err != nil {
		return summary, fmt.Errorf("download prices: %w", err)
	}
	summary.PricesPath = path
	summary.PriceRows = rows

	summary.Results = c.DownloadFundamentals(ctx, tickers)
	log.Info().
		Str("run_id", summary.ID).
		Int("succeeded", summary.Succeeded()).
		Int("failed", len(summary.Failed())).
		Msg("fundamentals download complete")
	return summary, nil
}

// DownloadPrices fetches bars for all tickers and writes the combined CSV.
func (c *Collector) DownloadPrices(ctx context.Context, tickers []string) (string, int, error) {
	w := LookbackWindow(c.Opts.LookbackYears, c.Opts.Interval, c.Opts.Adjusted)
	table, err := NewBulkDownloader(c.Fetcher, c.Opts.Threads).Download(ctx, tickers, w)
	if err != nil {
		return "", 0, err
	}
	path := filepath.Join(c.Opts.Dir, c.Opts.PricesFile)
	rows, err := export.WritePriceTable(path, table)
	if err != nil {
		return "", 0, err
	}
	log.Info().Str("path", path).Int("rows", rows).Msg("price table written")
	return path, rows, nil
}

// DownloadFundamentals saves one workbook per ticker using at most Workers
// concurrent tasks. Results are reported and returned in completion order.
func (c *Collector) DownloadFundamentals(ctx context.Context, tickers []string) []model.SymbolResult {
	results := make(chan model.SymbolResult)

	go func() {
		var g errgroup.Group
		g.SetLimit(c.Opts.Workers)
		for _, sym := range tickers {
			sym := sym
			g.Go(func() error {
				results <- c.saveFundamentals(ctx, sym)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	out := make([]model.SymbolResult, 0, len(tickers))
	for r := range results {
		if r.OK {
			fmt.Fprintf(c.Out, "✔ %s saved\n", r.Symbol)
		} else {
			fmt.Fprintf(c.Out, "✖ %s failed: %v\n", r.Symbol, r.Err)
		}
		out = append(out, r)
	}
	return out
}

func (c *Collector) saveFundamentals(ctx context.Context, sym string) (res model.SymbolResult) {
	res.Symbol = sym
	defer func() { res.FinishedAt = time.Now() }()

	fund, err := c.Fetcher.FetchFundamentals(ctx, sym)
	if err != nil {
		res.Err = err
		return res
	}
	path := filepath.Join(c.Opts.Dir, sym+".xlsx")
	sheets, err := export.WriteFundamentals(path, fund)
	if err != nil {
		res.Err = err
		return res
	}
	res.OK = true
	res.Path = path
	res.Sheets = sheets
	return res
}
