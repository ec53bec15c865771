package notifier

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SP500Collector/internal/model"
)

func TestTelegramNotifier_Send(t *testing.T) {
	t.Parallel()

	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	require.NoError(t, n.Send(testContext(t), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"ok":false}`, http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	require.NoError(t, n.SendWithRetry(testContext(t), "hello", 1))
	assert.EqualValues(t, 2, calls.Load())
}

func TestTelegramNotifier_SendWithRetryExhausted(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	err := n.SendWithRetry(testContext(t), "hello", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 attempts failed")
	assert.Contains(t, err.Error(), "status 401")
}

func TestFormatRunSummary(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 10, 1, 6, 30, 0, 0, time.UTC)
	s := &model.RunSummary{
		ID:         "run",
		StartedAt:  start,
		FinishedAt: start.Add(12*time.Minute + 3*time.Second),
		Tickers:    make([]string, 1503),
		PricesPath: "data/sp500_ohlcv.csv",
		PriceRows:  1254,
		Results: []model.SymbolResult{
			{Symbol: "AAPL", OK: true},
			{Symbol: "BF.B", Err: errors.New("timeout")},
			{Symbol: "MSFT", OK: true},
		},
	}

	msg := FormatRunSummary(s, nil)
	assert.True(t, strings.HasPrefix(msg, "✅"))
	assert.Contains(t, msg, "2026-10-01 06:30")
	assert.Contains(t, msg, "Tickers: 1,503")
	assert.Contains(t, msg, "Price rows: 1,254 (data/sp500_ohlcv.csv)")
	assert.Contains(t, msg, "Fundamentals: 2 saved, 1 failed")
	assert.Contains(t, msg, "Failed: BF.B\n")
	assert.Contains(t, msg, "Duration: 12m3s")
}

func TestFormatRunSummary_Failure(t *testing.T) {
	t.Parallel()

	s := &model.RunSummary{StartedAt: time.Now(), FinishedAt: time.Now()}
	msg := FormatRunSummary(s, errors.New("discover tickers: <no table>"))
	assert.True(t, strings.HasPrefix(msg, "❌"))
	assert.Contains(t, msg, "Run aborted: discover tickers: &lt;no table&gt;")
	assert.NotContains(t, msg, "Fundamentals:")
}

func TestFormatRunSummary_TruncatesFailures(t *testing.T) {
	t.Parallel()

	s := &model.RunSummary{StartedAt: time.Now(), FinishedAt: time.Now()}
	for i := 0; i < maxListedFailures+5; i++ {
		s.Results = append(s.Results, model.SymbolResult{Symbol: "X", Err: errors.New("x")})
	}
	assert.Contains(t, FormatRunSummary(s, nil), " and 5 more\n")
}
