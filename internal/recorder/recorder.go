package recorder

import (
	"strings"
	"time"

	"SP500Collector/internal/model"
)

// RunEvent holds the outcome of one collection run.
type RunEvent struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Tickers    int
	PriceRows  int
	Succeeded  int
	Failed     int
	Error      string // empty for a completed run
}

// SymbolEvent holds the fundamentals outcome for one symbol.
type SymbolEvent struct {
	RunID  string
	Symbol string
	OK     bool
	Path   string
	Sheets string // comma-separated sheet names
	Error  string
	At     time.Time
}

// NewRunEvent builds a RunEvent from a run summary and the run error, if any.
func NewRunEvent(s *model.RunSummary, runErr error) *RunEvent {
	evt := &RunEvent{
		RunID:      s.ID,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Tickers:    len(s.Tickers),
		PriceRows:  s.PriceRows,
		Succeeded:  s.Succeeded(),
		Failed:     len(s.Failed()),
	}
	if runErr != nil {
		evt.Error = runErr.Error()
	}
	return evt
}

// NewSymbolEvent builds a SymbolEvent from one fundamentals result.
func NewSymbolEvent(runID string, r model.SymbolResult) *SymbolEvent {
	evt := &SymbolEvent{
		RunID:  runID,
		Symbol: r.Symbol,
		OK:     r.OK,
		Path:   r.Path,
		Sheets: strings.Join(r.Sheets, ","),
		At:     r.FinishedAt,
	}
	if r.Err != nil {
		evt.Error = r.Err.Error()
	}
	return evt
}

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordRun(evt *RunEvent) error
	RecordSymbol(evt *SymbolEvent) error
	Close() error
}
