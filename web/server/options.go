package server

import (
	"context"
	"log/slog"
	"time"
)

// Option configures a Server.
type Option func(*options)

type options struct {
	host            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	shutdownFuncs   []shutdownFunc
}

type shutdownFunc func(ctx context.Context) error

// WithHost sets the address the server listens on. Default is ":8000".
func WithHost(host string) Option {
	return Option(func(opts *options) {
		opts.host = host
	})
}

// WithReadTimeout sets the maximum duration for reading the entire
// request, including the body. Default is 5s.
func WithReadTimeout(d time.Duration) Option {
	return Option(func(opts *options) {
		if d > 0 {
			opts.readTimeout = d
		}
	})
}

// WithWriteTimeout sets the maximum duration before timing out
// writes of the response. Default is 10m.
func WithWriteTimeout(d time.Duration) Option {
	return Option(func(opts *options) {
		if d > 0 {
			opts.writeTimeout = d
		}
	})
}

// WithIdleTimeout sets the maximum amount of time to wait for the
// next request when keep-alives are enabled. Default is 120s.
func WithIdleTimeout(d time.Duration) Option {
	return Option(func(opts *options) {
		if d > 0 {
			opts.idleTimeout = d
		}
	})
}

// WithShutdownTimeout bounds how long [Server.Run] waits for in-flight
// requests after a shutdown signal. Default is 20s.
func WithShutdownTimeout(d time.Duration) Option {
	return Option(func(opts *options) {
		if d > 0 {
			opts.shutdownTimeout = d
		}
	})
}

// WithLogger sets the logger used for server lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return Option(func(opts *options) {
		if log != nil {
			opts.logger = log
		}
	})
}

// WithShutdownFunc registers a function to call during graceful shutdown,
// after in-flight requests have drained. Functions run in the order they
// were registered.
func WithShutdownFunc(fn func(ctx context.Context) error) Option {
	return Option(func(opts *options) {
		opts.shutdownFuncs = append(opts.shutdownFuncs, fn)
	})
}
