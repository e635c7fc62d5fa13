package httpserver

import (
	"net/http"
	"time"
)

// Defaults sized for a registry API: requests are small JSON bodies, so slow
// writers get cut off early while idle keep-alives stay cheap.
const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultWriteTimeout      = 35 * time.Second
	defaultIdleTimeout       = 2 * time.Minute
)

// Option overrides one of the server timeouts.
type Option func(*http.Server)

// WithWriteTimeout overrides the write timeout. Keep it above the longest
// handler timeout in the middleware chain or responses get truncated.
func WithWriteTimeout(d time.Duration) Option {
	return func(srv *http.Server) {
		srv.WriteTimeout = d
	}
}

// WithIdleTimeout overrides the keep-alive idle timeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(srv *http.Server) {
		srv.IdleTimeout = d
	}
}

// New builds an HTTP server with this project's timeouts applied.
func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}
