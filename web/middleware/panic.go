package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/adamwoolhether/fetchguard/web/errs"
	"github.com/adamwoolhether/fetchguard/web/mux"
)

// Panics recovers from panics if they occur and hands them to the Errors
// middleware as internal errors.
func Panics() mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = errs.NewInternal(fmt.Errorf("PANIC [%v] TRACE[%s]", rec, debug.Stack()))
				}
			}()

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
