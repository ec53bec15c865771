package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SP500Collector/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestWritePriceTable(t *testing.T) {
	t.Parallel()

	table := model.NewPriceTable([]string{"MSFT", "AAPL"})
	table.Bars["AAPL"] = []model.OHLCV{
		{Time: day(2), Open: 1.5, High: 2, Low: 1, Close: 1.75, Volume: 100},
		{Time: day(3), Open: 2, High: 3, Low: 1.5, Close: 2.5, Volume: 200},
	}
	table.Bars["MSFT"] = []model.OHLCV{
		{Time: day(3), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 5000},
	}

	path := filepath.Join(t.TempDir(), "prices.csv")
	rows, err := WritePriceTable(path, table)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"Ticker", "MSFT", "MSFT", "MSFT", "MSFT", "MSFT", "AAPL", "AAPL", "AAPL", "AAPL", "AAPL"},
		{"Price", "Open", "High", "Low", "Close", "Volume", "Open", "High", "Low", "Close", "Volume"},
		{"Date", "", "", "", "", "", "", "", "", "", ""},
		{"2024-01-02", "", "", "", "", "", "1.5", "2", "1", "1.75", "100"},
		{"2024-01-03", "10", "11", "9", "10.5", "5000", "2", "3", "1.5", "2.5", "200"},
	}, records)
}

func TestWritePriceTable_BadPath(t *testing.T) {
	t.Parallel()

	_, err := WritePriceTable(filepath.Join(t.TempDir(), "missing", "prices.csv"), model.NewPriceTable(nil))
	assert.Error(t, err)
}

func TestWritePriceTable_MissingValuesAreEmpty(t *testing.T) {
	t.Parallel()

	table := model.NewPriceTable([]string{"AAPL"})
	table.Bars["AAPL"] = []model.OHLCV{
		{Time: day(2), High: 94.5, Low: 85.5, Close: 90, Volume: 1000, Missing: model.FieldOpen},
		{Time: day(3), Volume: 700, Missing: model.FieldOpen | model.FieldHigh | model.FieldLow | model.FieldClose},
	}

	path := filepath.Join(t.TempDir(), "prices.csv")
	_, err := WritePriceTable(path, table)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"2024-01-02", "", "94.5", "85.5", "90", "1000"}, records[3])
	assert.Equal(t, []string{"2024-01-03", "", "", "", "", "700"}, records[4])
}
