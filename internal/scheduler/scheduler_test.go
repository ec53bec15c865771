package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SP500Collector/internal/collector"
	"SP500Collector/internal/recorder"
)

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return f.err
}

type fakeRecorder struct {
	runs    []*recorder.RunEvent
	symbols []*recorder.SymbolEvent
}

func (f *fakeRecorder) RecordRun(evt *recorder.RunEvent) error {
	f.runs = append(f.runs, evt)
	return nil
}

func (f *fakeRecorder) RecordSymbol(evt *recorder.SymbolEvent) error {
	f.symbols = append(f.symbols, evt)
	return nil
}

func (f *fakeRecorder) Close() error { return nil }

type brokenSource struct{}

func (brokenSource) Tickers(context.Context) ([]string, error) {
	return nil, collector.ErrNoTable
}

func newTestScheduler(t *testing.T, src collector.TickerSource, fetcher *collector.MockFetcher) (*Scheduler, *fakeNotifier, *fakeRecorder) {
	t.Helper()
	col := collector.NewCollector(src, fetcher, collector.Options{
		Dir:           t.TempDir(),
		PricesFile:    "prices.csv",
		LookbackYears: 1,
		Interval:      "1d",
		Workers:       4,
	})
	col.Out = &bytes.Buffer{}
	n := &fakeNotifier{}
	rec := &fakeRecorder{}
	return NewScheduler(testContext(t), col, n, rec), n, rec
}

func TestScheduler_RunOnce(t *testing.T) {
	t.Parallel()

	fetcher := &collector.MockFetcher{
		Price:      20,
		FundErrors: map[string]error{"BAD": errors.New("yahoo: status 404")},
	}
	s, n, rec := newTestScheduler(t, collector.StaticSource{"AAPL", "BAD"}, fetcher)

	require.NoError(t, s.RunOnce())

	require.Len(t, rec.runs, 1)
	assert.Equal(t, 2, rec.runs[0].Tickers)
	assert.Equal(t, 1, rec.runs[0].Succeeded)
	assert.Equal(t, 1, rec.runs[0].Failed)
	assert.Empty(t, rec.runs[0].Error)
	assert.Len(t, rec.symbols, 2)

	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "Failed: BAD")
}

func TestScheduler_RunOnceFailure(t *testing.T) {
	t.Parallel()

	s, n, rec := newTestScheduler(t, brokenSource{}, &collector.MockFetcher{})

	err := s.RunOnce()
	require.ErrorIs(t, err, collector.ErrNoTable)

	require.Len(t, rec.runs, 1)
	assert.Contains(t, rec.runs[0].Error, "discover tickers")
	assert.Empty(t, rec.symbols)
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "Run aborted")
}

func TestScheduler_NotificationErrorIsNotRunError(t *testing.T) {
	t.Parallel()

	s, n, _ := newTestScheduler(t, collector.StaticSource{"AAPL"}, &collector.MockFetcher{Price: 1})
	n.err = errors.New("telegram down")
	assert.NoError(t, s.RunOnce())
}

func TestScheduler_WithoutNotifier(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestScheduler(t, collector.StaticSource{"AAPL"}, &collector.MockFetcher{Price: 1})
	s.Notifier = nil
	assert.NoError(t, s.RunOnce())
}

func TestScheduler_Register(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestScheduler(t, collector.StaticSource{"AAPL"}, &collector.MockFetcher{})
	require.NoError(t, s.Register("0 30 6 * * 2-6"))
	assert.Len(t, s.Cron.Entries(), 1)

	assert.Error(t, s.Register("not a cron"))
	assert.Error(t, s.Register("30 6 * * *"), "five-field expressions need a seconds field")
}

func TestScheduler_RunInProgress(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestScheduler(t, collector.StaticSource{"AAPL"}, &collector.MockFetcher{})
	s.running.Lock()
	defer s.running.Unlock()
	assert.ErrorIs(t, s.RunOnce(), ErrRunInProgress)
}
