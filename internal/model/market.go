package model

import (
	"sort"
	"time"
)

// Field identifies one value of a bar.
type Field uint8

const (
	FieldOpen Field = 1 << iota
	FieldHigh
	FieldLow
	FieldClose
	FieldVolume
)

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	// Missing marks values the provider did not report. Their numeric field is zero.
	Missing Field
}

// Has reports whether the bar carries a value for f.
func (b OHLCV) Has(f Field) bool {
	return b.Missing&f == 0
}

// Date returns the bar's calendar date formatted as YYYY-MM-DD.
func (b OHLCV) Date() string {
	return b.Time.Format("2006-01-02")
}

// PriceTable is the combined result of a bulk price download.
// Symbols keeps the requested order; a symbol whose download failed has no entry in Bars.
type PriceTable struct {
	Symbols   []string
	Bars      map[string][]OHLCV
	FetchedAt time.Time
}

// NewPriceTable creates an empty table for the given symbols.
func NewPriceTable(symbols []string) *PriceTable {
	return &PriceTable{
		Symbols: symbols,
		Bars:    make(map[string][]OHLCV, len(symbols)),
	}
}

// Dates returns the sorted union of bar dates across all symbols.
func (t *PriceTable) Dates() []string {
	seen := make(map[string]struct{})
	var dates []string
	for _, bars := range t.Bars {
		for _, b := range bars {
			d := b.Date()
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)
	return dates
}
