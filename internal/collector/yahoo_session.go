package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/phuslu/log"
)

// session is the cookie and crumb pair quoteSummary requires. All workers share one.
type session struct {
	mu     sync.Mutex
	cookie string
	crumb  string
}

// credentials returns the current cookie and crumb, fetching them on first use
// or when stale is still the crumb in use. A crumb another worker already
// replaced is returned as is.
func (f *YahooFetcher) credentials(ctx context.Context, stale string) (cookie, crumb string, err error) {
	s := &f.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.crumb != "" && s.crumb != stale {
		return s.cookie, s.crumb, nil
	}

	// The cookie host answers 404 but still sets the session cookie.
	resp, err := f.do(ctx, f.cookieURL, "")
	if err != nil {
		return "", "", fmt.Errorf("yahoo cookie: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	parts := make([]string, 0, len(resp.Cookies()))
	for _, c := range resp.Cookies() {
		parts = append(parts, c.Name+"="+c.Value)
	}
	cookie = strings.Join(parts, "; ")

	body, err := f.get(ctx, f.crumbURL, cookie)
	if err != nil {
		return "", "", fmt.Errorf("yahoo crumb: %w", err)
	}
	crumb = strings.TrimSpace(string(body))
	if crumb == "" || strings.Contains(crumb, "<") {
		return "", "", errors.New("yahoo crumb: empty or malformed response")
	}

	s.cookie, s.crumb = cookie, crumb
	log.Debug().Bool("refresh", stale != "").Msg("yahoo session established")
	return cookie, crumb, nil
}
