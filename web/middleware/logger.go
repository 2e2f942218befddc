// Package middleware holds the handler wrappers every route runs through.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamwoolhether/fetchguard/web/mux"
)

// Logger logs each request once it has been handled, with the status the
// handler chain recorded and the elapsed time.
func Logger(log *slog.Logger) mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v := mux.GetValues(ctx)

			reqLog := log.With(
				"trace_id", v.TraceID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			if r.URL.RawQuery != "" {
				reqLog = reqLog.With("query", r.URL.RawQuery)
			}

			reqLog.Debug("request started")

			err := handler(ctx, w, r)

			reqLog.Info("request completed", "status", v.StatusCode, "since", time.Since(v.Now).String())

			return err
		}

		return h
	}

	return m
}
