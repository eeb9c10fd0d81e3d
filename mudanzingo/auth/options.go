package auth

import (
	"log/slog"
	"net/http"
	"time"
)

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient sets the client used for token and userInfo requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.client = c
	}
}

// WithClock replaces the clock used to decide token expiry.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}
