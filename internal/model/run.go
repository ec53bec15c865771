package model

import (
	"time"

	"github.com/google/uuid"
)

// SymbolResult is the outcome of the fundamentals download for one symbol.
type SymbolResult struct {
	Symbol     string
	OK         bool
	Err        error
	Path       string
	Sheets     []string
	FinishedAt time.Time
}

// RunSummary describes one collection run.
type RunSummary struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Tickers    []string
	PricesPath string
	PriceRows  int
	Results    []SymbolResult
}

// NewRunSummary starts a summary with a fresh run ID.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Succeeded returns the number of symbols whose workbook was written.
func (s *RunSummary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.OK {
			n++
		}
	}
	return n
}

// Failed returns the symbols whose fundamentals download failed, in completion order.
func (s *RunSummary) Failed() []string {
	var out []string
	for _, r := range s.Results {
		if !r.OK {
			out = append(out, r.Symbol)
		}
	}
	return out
}

// Duration returns the wall time of the run.
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
