package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/phuslu/log"
)

var (
	ErrNoTable        = errors.New("no table found")
	ErrNoSymbolColumn = errors.New("symbol column not found")
	ErrNoSymbols      = errors.New("no symbols found")
)

// WikipediaSource discovers tickers from the symbol column of the first table on a page.
type WikipediaSource struct {
	URL       string
	Column    string
	Client    HTTPClient
	UserAgent string
}

// NewWikipediaSource creates a source for the given page and column header.
func NewWikipediaSource(pageURL, column string, client HTTPClient) *WikipediaSource {
	return &WikipediaSource{
		URL:    pageURL,
		Column: column,
		Client: client,
		// Wikipedia rejects requests without a descriptive User-Agent.
		UserAgent: "SP500Collector/1.0 (batch constituent download)",
	}
}

// Tickers fetches the page and returns the symbols in table order.
func (s *WikipediaSource) Tickers(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch constituents page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch constituents page: status %d, body: %s", resp.StatusCode, string(body))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse constituents page: %w", err)
	}
	symbols, err := ParseSymbols(doc, s.Column)
	if err != nil {
		return nil, err
	}
	log.Info().Str("url", s.URL).Int("symbols", len(symbols)).Msg("constituents discovered")
	return symbols, nil
}

// ParseSymbols extracts the named column from the first wikitable in doc
// (the first table when none is marked). Blank and repeated symbols are dropped.
func ParseSymbols(doc *goquery.Document, column string) ([]string, error) {
	table := doc.Find("table.wikitable").First()
	if table.Length() == 0 {
		table = doc.Find("table").First()
	}
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	rows := table.Find("tr")
	col := -1
	rows.First().Find("th, td").EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(cell.Text()), column) {
			col = i
			return false
		}
		return true
	})
	if col < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoSymbolColumn, column)
	}

	seen := make(map[string]bool)
	var symbols []string
	rows.Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() <= col {
			return
		}
		sym := strings.TrimSpace(cells.Eq(col).Text())
		if sym == "" || seen[sym] {
			return
		}
		seen[sym] = true
		symbols = append(symbols, sym)
	})
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	return symbols, nil
}
