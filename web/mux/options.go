package mux

import (
	"log/slog"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type Option func(*options)

// options represents optional parameters.
type options struct {
	tracer trace.Tracer
	logger *slog.Logger
	mw     []Middleware
}

type ordered struct {
	priority int
	fn       Middleware
}

// WithMiddleware orders the given middleware by function name so the
// result does not depend on argument order: Logger wraps Errors, which
// wraps any custom middleware, with Panics innermost.
func WithMiddleware(mw ...Middleware) Option {
	mwOrdered := make([]ordered, 0, len(mw))

	for _, m := range mw {
		switch name(m) {
		case "Logger":
			mwOrdered = append(mwOrdered, ordered{priority: 1, fn: m})
		case "Errors":
			mwOrdered = append(mwOrdered, ordered{priority: 2, fn: m})
		case "Panics":
			mwOrdered = append(mwOrdered, ordered{priority: 100, fn: m})
		default:
			mwOrdered = append(mwOrdered, ordered{priority: 3, fn: m})
		}
	}

	slices.SortStableFunc(mwOrdered, func(a, b ordered) int {
		return a.priority - b.priority
	})

	mwSorted := make([]Middleware, len(mwOrdered))
	for i, v := range mwOrdered {
		mwSorted[i] = v.fn
	}

	return Option(func(opts *options) {
		opts.mw = mwSorted
	})
}

// WithTracer injects the given tracer into the App.
func WithTracer(tracer trace.Tracer) Option {
	return Option(func(opts *options) {
		opts.tracer = tracer
	})
}

// WithLogger sets the logger used by the App for internal errors.
func WithLogger(log *slog.Logger) Option {
	return Option(func(opts *options) {
		opts.logger = log
	})
}

func name(mw Middleware) string {
	return constructorName(runtime.FuncForPC(reflect.ValueOf(mw).Pointer()).Name())
}

// constructorName returns the function that built a closure, skipping the
// compiler's funcN suffixes. When the constructor was inlined its name sits
// after the caller's:
//
//	".../web/middleware.Logger.func1"        -> "Logger"
//	".../api.Routes.Panics.func1"            -> "Panics"
func constructorName(fnName string) string {
	if i := strings.LastIndex(fnName, "/"); i >= 0 {
		fnName = fnName[i+1:]
	}

	parts := strings.Split(fnName, ".")
	for len(parts) > 1 && closureSuffix(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}

	return parts[len(parts)-1]
}

// closureSuffix matches the "func1" and nested "2" segments the compiler
// appends to closure names.
func closureSuffix(s string) bool {
	s = strings.TrimPrefix(s, "func")
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
