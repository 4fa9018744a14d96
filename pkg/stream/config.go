package stream

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vango-dev/vpatch/pkg/protocol"
	"github.com/vango-dev/vpatch/pkg/updater"
)

// Config holds the transport settings of a Handler.
type Config struct {
	ReadBufferSize  int
	WriteBufferSize int

	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration

	// MaxMessageSize bounds frames read from the client.
	MaxMessageSize int64

	// CheckOrigin validates the Origin header of upgrade requests.
	// Default: same-origin only, as in websocket.Upgrader.
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns the default transport settings.
func DefaultConfig() Config {
	return Config{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		WriteTimeout:    10 * time.Second,
		MaxMessageSize:  64 * 1024,
	}
}

// Option configures a Handler.
type Option func(*Handler)

// WithConfig sets the transport settings.
func WithConfig(config Config) Option {
	return func(h *Handler) {
		h.config = config
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMetrics records every session's mirror cycles in m.
func WithMetrics(m *updater.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the client's logger. Default: slog.Default().
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithLimits sets the decoding limits applied to frames from the server.
func WithLimits(limits protocol.Limits) ClientOption {
	return func(c *Client) {
		c.limits = limits
	}
}
