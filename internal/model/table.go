package model

// Sheet names used in fundamentals workbooks.
const (
	SheetInfo                  = "info"
	SheetQuarterlyFinancials   = "quarterly_financials"
	SheetQuarterlyBalanceSheet = "quarterly_balance_sheet"
	SheetQuarterlyCashflow     = "quarterly_cashflow"
)

// Row is a labelled table row. Cells hold float64, string or nil (missing).
type Row struct {
	Label string
	Cells []any
}

// Table is a small labelled 2-D table, the unit written to one spreadsheet sheet.
type Table struct {
	Name    string
	Index   string   // header of the label column
	Columns []string // headers of the value columns
	Rows    []Row
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// Fundamentals is the per-symbol bundle of company info and quarterly statements.
type Fundamentals struct {
	Symbol       string
	Info         *Table
	Financials   *Table
	BalanceSheet *Table
	CashFlow     *Table
}

// Sheets returns the non-empty tables in workbook order.
func (f *Fundamentals) Sheets() []*Table {
	var out []*Table
	for _, t := range []*Table{f.Info, f.Financials, f.BalanceSheet, f.CashFlow} {
		if !t.Empty() {
			out = append(out, t)
		}
	}
	return out
}
