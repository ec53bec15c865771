package collector_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SP500Collector/internal/collector"
	"SP500Collector/internal/model"
)

// emptyFetcher returns no bars for every symbol in Empty.
type emptyFetcher struct {
	collector.MockFetcher
	Empty map[string]bool
}

func (e *emptyFetcher) FetchBars(ctx context.Context, symbol string, w collector.Window) ([]model.OHLCV, error) {
	if e.Empty[symbol] {
		return nil, nil
	}
	return e.MockFetcher.FetchBars(ctx, symbol, w)
}

func TestBulkDownloader_Download(t *testing.T) {
	t.Parallel()

	f := &emptyFetcher{
		MockFetcher: collector.MockFetcher{
			Price:       10,
			PriceErrors: map[string]error{"ERR": errors.New("boom")},
		},
		Empty: map[string]bool{"NONE": true},
	}
	w := collector.LookbackWindow(1, "1d", true)

	table, err := collector.NewBulkDownloader(f, 0).Download(testContext(t), []string{"AAPL", "ERR", "NONE"}, w)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "ERR", "NONE"}, table.Symbols)
	assert.Contains(t, table.Bars, "AAPL")
	assert.NotContains(t, table.Bars, "ERR")
	assert.NotContains(t, table.Bars, "NONE")
	assert.False(t, table.FetchedAt.IsZero())
}

func TestBulkDownloader_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	_, err := collector.NewBulkDownloader(&collector.MockFetcher{}, 2).
		Download(ctx, []string{"AAPL"}, collector.LookbackWindow(1, "1d", true))
	assert.ErrorIs(t, err, context.Canceled)
}
