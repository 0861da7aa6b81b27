package fleetapi

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithTimeout sets the HTTP request timeout. Default: 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom http.Client. Useful for testing or custom
// transport configuration. Overrides WithTimeout's effect on the default
// client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithListCacheTTL sets the vehicle list cache TTL. Zero or negative
// restores the default.
func WithListCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = newListCache(ttl)
	}
}

// WithLogger sets the client logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used for backend call spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}
