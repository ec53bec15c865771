package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"SP500Collector/internal/model"
)

const (
	defaultChartURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultSummaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"
	defaultCookieURL  = "https://fc.yahoo.com"
	defaultCrumbURL   = "https://query2.finance.yahoo.com/v1/test/getcrumb"
	browserUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// YahooFetcher implements Fetcher using the Yahoo Finance public APIs.
type YahooFetcher struct {
	Client     HTTPClient
	SymbolMap  map[string]string // maps listing symbol to Yahoo ticker
	UserAgent  string
	chartURL   string
	summaryURL string
	cookieURL  string
	crumbURL   string
	session    session
}

// YahooOption configures a YahooFetcher.
type YahooOption func(*YahooFetcher)

// WithHTTPClient sets the HTTP client used for all requests.
func WithHTTPClient(c HTTPClient) YahooOption {
	return func(f *YahooFetcher) { f.Client = c }
}

// WithBaseURL points every endpoint at one host, for tests and mirrors.
func WithBaseURL(base string) YahooOption {
	base = strings.TrimRight(base, "/")
	return func(f *YahooFetcher) {
		f.chartURL = base + "/v8/finance/chart"
		f.summaryURL = base + "/v10/finance/quoteSummary"
		f.cookieURL = base + "/cookie"
		f.crumbURL = base + "/v1/test/getcrumb"
	}
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(opts ...YahooOption) *YahooFetcher {
	f := &YahooFetcher{
		Client:     NewHTTPClient("", 30*time.Second),
		SymbolMap:  map[string]string{},
		UserAgent:  browserUserAgent,
		chartURL:   defaultChartURL,
		summaryURL: defaultSummaryURL,
		cookieURL:  defaultCookieURL,
		crumbURL:   defaultCrumbURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooSymbol maps a listing symbol to Yahoo's form; share classes use a dash (BRK.B -> BRK-B).
func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return strings.ReplaceAll(symbol, ".", "-")
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// at returns the i-th value of a nullable series.
func at(series []*float64, i int) (float64, bool) {
	if i >= len(series) || series[i] == nil {
		return 0, false
	}
	return *series[i], true
}

// FetchBars downloads bars for one symbol over the window.
func (f *YahooFetcher) FetchBars(ctx context.Context, symbol string, w Window) ([]model.OHLCV, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(w.Start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(w.End.Unix(), 10))
	params.Set("interval", w.Interval)
	params.Set("events", "div,splits")
	params.Set("includeAdjustedClose", "true")
	u := fmt.Sprintf("%s/%s?%s", f.chartURL, url.PathEscape(f.yahooSymbol(symbol)), params.Encode())

	body, err := f.get(ctx, u, "")
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned for %s", symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, okO := at(quote.Open, i)
		h, okH := at(quote.High, i)
		l, okL := at(quote.Low, i)
		c, okC := at(quote.Close, i)
		if !okO && !okH && !okL && !okC {
			continue // skip null bars (holidays, halts)
		}
		v, okV := at(quote.Volume, i)

		var missing model.Field
		if !okO {
			missing |= model.FieldOpen
		}
		if !okH {
			missing |= model.FieldHigh
		}
		if !okL {
			missing |= model.FieldLow
		}
		if !okC {
			missing |= model.FieldClose
		}
		if !okV {
			missing |= model.FieldVolume
		}

		if w.Adjusted {
			if a, ok := at(adj, i); ok && okC && c != 0 {
				ratio := a / c
				o, h, l, c = o*ratio, h*ratio, l*ratio, a
			} else {
				// No ratio, so no adjusted price.
				o, h, l, c = 0, 0, 0, 0
				missing |= model.FieldOpen | model.FieldHigh | model.FieldLow | model.FieldClose
			}
		}

		bar := model.OHLCV{
			// Shift by the exchange offset so the UTC calendar date is the trading date.
			Time:    time.Unix(ts+result.Meta.GMTOffset, 0).UTC(),
			Open:    o,
			High:    h,
			Low:     l,
			Close:   c,
			Volume:  v,
			Missing: missing,
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// get performs a GET and returns the body of a 200 response.
func (f *YahooFetcher) get(ctx context.Context, u, cookie string) ([]byte, error) {
	resp, err := f.do(ctx, u, cookie)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{Code: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

func (f *YahooFetcher) do(ctx context.Context, u, cookie string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "application/json")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	return resp, nil
}

// statusError is returned for non-200 provider responses.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("yahoo: status %d, body: %s", e.Code, e.Body)
}

func snippet(b []byte) string {
	const maxSnippet = 2 << 10
	if len(b) > maxSnippet {
		b = b[:maxSnippet]
	}
	return strings.TrimSpace(string(b))
}
