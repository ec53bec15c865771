package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"SP500Collector/internal/model"
)

var priceFields = []struct {
	name  string
	field model.Field
	value func(model.OHLCV) float64
}{
	{"Open", model.FieldOpen, func(b model.OHLCV) float64 { return b.Open }},
	{"High", model.FieldHigh, func(b model.OHLCV) float64 { return b.High }},
	{"Low", model.FieldLow, func(b model.OHLCV) float64 { return b.Low }},
	{"Close", model.FieldClose, func(b model.OHLCV) float64 { return b.Close }},
	{"Volume", model.FieldVolume, func(b model.OHLCV) float64 { return b.Volume }},
}

// WritePriceTable writes the table as a wide CSV grouped by ticker and returns
// the number of date rows written. Three header rows name the ticker, the price
// field and the index column; a missing value or a symbol without a bar on a
// date gets empty cells. On failure an existing file at path is left as it was.
func WritePriceTable(path string, t *model.PriceTable) (int, error) {
	var rows int
	err := writeFile(path, func(out io.Writer) error {
		n, err := writePriceRows(out, t)
		rows = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return rows, nil
}

func writePriceRows(out io.Writer, t *model.PriceTable) (int, error) {
	w := csv.NewWriter(out)
	width := 1 + len(t.Symbols)*len(priceFields)

	tickers := make([]string, 0, width)
	fields := make([]string, 0, width)
	index := make([]string, width)
	tickers = append(tickers, "Ticker")
	fields = append(fields, "Price")
	index[0] = "Date"
	for _, sym := range t.Symbols {
		for _, pf := range priceFields {
			tickers = append(tickers, sym)
			fields = append(fields, pf.name)
		}
	}
	if err := w.WriteAll([][]string{tickers, fields, index}); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	byDate := make(map[string]map[string]model.OHLCV, len(t.Symbols))
	for sym, bars := range t.Bars {
		m := make(map[string]model.OHLCV, len(bars))
		for _, b := range bars {
			m[b.Date()] = b
		}
		byDate[sym] = m
	}

	dates := t.Dates()
	for _, d := range dates {
		row := make([]string, 0, width)
		row = append(row, d)
		for _, sym := range t.Symbols {
			b, ok := byDate[sym][d]
			for _, pf := range priceFields {
				if !ok || !b.Has(pf.field) {
					row = append(row, "")
					continue
				}
				row = append(row, num(pf.value(b)))
			}
		}
		if err := w.Write(row); err != nil {
			return 0, fmt.Errorf("write row %s: %w", d, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush: %w", err)
	}
	return len(dates), nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
