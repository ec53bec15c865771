package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"SP500Collector/internal/model"
)

// Modules flattened into the info sheet, in precedence order.
var infoModules = []string{
	"quoteType",
	"assetProfile",
	"summaryDetail",
	"defaultKeyStatistics",
	"financialData",
}

// statementModules maps each quarterly sheet to its quoteSummary module and list key.
var statementModules = []struct {
	sheet   string
	module  string
	listKey string
}{
	{model.SheetQuarterlyFinancials, "incomeStatementHistoryQuarterly", "incomeStatementHistory"},
	{model.SheetQuarterlyBalanceSheet, "balanceSheetHistoryQuarterly", "balanceSheetStatements"},
	{model.SheetQuarterlyCashflow, "cashflowStatementHistoryQuarterly", "cashflowStatements"},
}

// quoteSummaryResponse is the envelope of the quoteSummary API.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// FetchFundamentals downloads company info and the three quarterly statements in one call.
func (f *YahooFetcher) FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	modules := append([]string{}, infoModules...)
	for _, m := range statementModules {
		modules = append(modules, m.module)
	}

	result, err := f.quoteSummary(ctx, symbol, modules)
	if err != nil {
		return nil, err
	}

	info, err := infoTable(result)
	if err != nil {
		return nil, err
	}
	fund := &model.Fundamentals{Symbol: symbol, Info: info}
	for _, m := range statementModules {
		t, err := statementTable(m.sheet, result[m.module], m.listKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.module, err)
		}
		switch m.sheet {
		case model.SheetQuarterlyFinancials:
			fund.Financials = t
		case model.SheetQuarterlyBalanceSheet:
			fund.BalanceSheet = t
		case model.SheetQuarterlyCashflow:
			fund.CashFlow = t
		}
	}
	return fund, nil
}

func (f *YahooFetcher) quoteSummary(ctx context.Context, symbol string, modules []string) (map[string]json.RawMessage, error) {
	var body []byte
	var stale string
	for attempt := 0; attempt < 2; attempt++ {
		cookie, crumb, err := f.credentials(ctx, stale)
		if err != nil {
			return nil, err
		}
		params := url.Values{}
		params.Set("modules", strings.Join(modules, ","))
		params.Set("crumb", crumb)
		u := fmt.Sprintf("%s/%s?%s", f.summaryURL, url.PathEscape(f.yahooSymbol(symbol)), params.Encode())

		body, err = f.get(ctx, u, cookie)
		var se *statusError
		if errors.As(err, &se) && se.Code == http.StatusUnauthorized && attempt == 0 {
			stale = crumb
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	var resp quoteSummaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no summary data for %s", symbol)
	}
	return resp.QuoteSummary.Result[0], nil
}

// infoTable flattens the info modules into a key/value table. The first module
// that defines a key wins.
func infoTable(result map[string]json.RawMessage) (*model.Table, error) {
	t := &model.Table{Name: model.SheetInfo, Columns: []string{"value"}}
	seen := make(map[string]bool)
	for _, m := range infoModules {
		raw, ok := result[m]
		if !ok || len(raw) == 0 {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decode %s: %w", m, err)
		}
		for _, k := range sortedKeys(fields) {
			if k == "maxAge" || seen[k] {
				continue
			}
			v, ok := scalar(fields[k])
			if !ok {
				continue
			}
			seen[k] = true
			t.Rows = append(t.Rows, model.Row{Label: k, Cells: []any{v}})
		}
	}
	return t, nil
}

// statementTable turns a list of period statements into a table with one row per
// line item and one column per period end date, newest first.
func statementTable(name string, raw json.RawMessage, listKey string) (*model.Table, error) {
	t := &model.Table{Name: name}
	if len(raw) == 0 {
		return t, nil
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	var periods []map[string]json.RawMessage
	if list, ok := wrapper[listKey]; ok {
		if err := json.Unmarshal(list, &periods); err != nil {
			return nil, fmt.Errorf("decode %s: %w", listKey, err)
		}
	}

	type period struct {
		end    int64
		values map[string]json.RawMessage
	}
	ps := make([]period, 0, len(periods))
	for _, p := range periods {
		var end struct {
			Raw int64 `json:"raw"`
		}
		if err := json.Unmarshal(p["endDate"], &end); err != nil || end.Raw == 0 {
			continue
		}
		ps = append(ps, period{end: end.Raw, values: p})
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].end > ps[j].end })

	items := make(map[string]bool)
	for _, p := range ps {
		t.Columns = append(t.Columns, time.Unix(p.end, 0).UTC().Format("2006-01-02"))
		for k := range p.values {
			if k != "maxAge" && k != "endDate" {
				items[k] = true
			}
		}
	}

	for _, item := range sortedKeys(items) {
		row := model.Row{Label: item, Cells: make([]any, len(ps))}
		present := false
		for i, p := range ps {
			if v, ok := scalar(p.values[item]); ok {
				row.Cells[i] = v
				present = true
			}
		}
		if present {
			t.Rows = append(t.Rows, row)
		}
	}
	return t, nil
}

// scalar extracts a cell value from a quoteSummary field. Formatted numbers
// ({"raw": 1.5, "fmt": "1.50"}) yield the raw value; empty objects, arrays and
// nulls yield nothing.
func scalar(raw json.RawMessage) (any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	switch x := v.(type) {
	case float64, string, bool:
		return x, true
	case map[string]any:
		if r, ok := x["raw"]; ok && r != nil {
			return r, true
		}
	}
	return nil, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
