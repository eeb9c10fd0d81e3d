package products

import (
	"log/slog"
	"net/http"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken attaches a bearer token to every request when fn yields one.
func WithToken(fn TokenFunc) Option {
	return func(c *Client) {
		c.token = fn
	}
}

// WithIDFunc replaces the id generator of the placeholder catalog.
func WithIDFunc(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}
