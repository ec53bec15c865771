package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"SP500Collector/internal/model"
)

// maxListedFailures bounds how many failed symbols a summary names.
const maxListedFailures = 20

// FormatRunSummary formats a collection run into a Telegram message.
func FormatRunSummary(s *model.RunSummary, runErr error) string {
	var b strings.Builder

	status := "✅"
	if runErr != nil {
		status = "❌"
	}
	b.WriteString(fmt.Sprintf("%s <b>S&amp;P 500 collection</b> | %s\n\n", status, s.StartedAt.Format("2006-01-02 15:04")))

	if runErr != nil {
		b.WriteString(fmt.Sprintf("Run aborted: %s\n", html.EscapeString(runErr.Error())))
	}

	b.WriteString(fmt.Sprintf("Tickers: %s\n", humanize.Comma(int64(len(s.Tickers)))))
	if s.PricesPath != "" {
		b.WriteString(fmt.Sprintf("Price rows: %s (%s)\n", humanize.Comma(int64(s.PriceRows)), html.EscapeString(s.PricesPath)))
	}
	if len(s.Results) > 0 {
		failed := s.Failed()
		b.WriteString(fmt.Sprintf("Fundamentals: %d saved, %d failed\n", s.Succeeded(), len(failed)))
		if len(failed) > 0 {
			listed := failed
			if len(listed) > maxListedFailures {
				listed = listed[:maxListedFailures]
			}
			b.WriteString("Failed: " + html.EscapeString(strings.Join(listed, ", ")))
			if extra := len(failed) - len(listed); extra > 0 {
				b.WriteString(fmt.Sprintf(" and %d more", extra))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString(fmt.Sprintf("Duration: %s\n", s.Duration().Round(time.Second)))
	return b.String()
}
