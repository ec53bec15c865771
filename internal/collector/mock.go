package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SP500Collector/internal/model"
)

// StaticSource returns a fixed ticker list.
type StaticSource []string

func (s StaticSource) Tickers(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price        float64
	PriceErrors  map[string]error
	FundErrors   map[string]error
	Fundamentals map[string]*model.Fundamentals
	// Delay is spent inside each FetchFundamentals call.
	Delay time.Duration

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, symbol string, w Window) ([]model.OHLCV, error) {
	if err := m.PriceErrors[symbol]; err != nil {
		return nil, err
	}
	days := int(w.End.Sub(w.Start).Hours() / 24)
	return generateMockBars(m.Price, w.End, days), nil
}

func (m *MockFetcher) FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if err := m.FundErrors[symbol]; err != nil {
		return nil, err
	}
	if f, ok := m.Fundamentals[symbol]; ok {
		return f, nil
	}
	return mockFundamentals(symbol), nil
}

// MaxInFlight reports the highest number of concurrent FetchFundamentals calls seen.
func (m *MockFetcher) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

func generateMockBars(basePrice float64, end time.Time, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - i)).UTC(),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

func mockFundamentals(symbol string) *model.Fundamentals {
	quarters := []string{"2024-06-30", "2024-03-31"}
	return &model.Fundamentals{
		Symbol: symbol,
		Info: &model.Table{
			Name:    model.SheetInfo,
			Columns: []string{"value"},
			Rows: []model.Row{
				{Label: "symbol", Cells: []any{symbol}},
				{Label: "longName", Cells: []any{fmt.Sprintf("%s Inc.", symbol)}},
			},
		},
		Financials: &model.Table{
			Name:    model.SheetQuarterlyFinancials,
			Columns: quarters,
			Rows:    []model.Row{{Label: "totalRevenue", Cells: []any{1.2e9, 1.1e9}}},
		},
		BalanceSheet: &model.Table{
			Name:    model.SheetQuarterlyBalanceSheet,
			Columns: quarters,
			Rows:    []model.Row{{Label: "totalAssets", Cells: []any{5.0e9, 4.8e9}}},
		},
		CashFlow: &model.Table{Name: model.SheetQuarterlyCashflow, Columns: quarters},
	}
}
