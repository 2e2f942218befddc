package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"

	"github.com/adamwoolhether/fetchguard/web"
	"github.com/adamwoolhether/fetchguard/web/errs"
	"github.com/adamwoolhether/fetchguard/web/mux"
)

// Errors handles errors coming out of the call chain.
func Errors(log *slog.Logger) mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			var fieldErr errs.FieldErrors
			if errors.As(err, &fieldErr) {
				return web.RespondJSON(ctx, w, http.StatusUnprocessableEntity, struct {
					Code   int              `json:"code"`
					Fields errs.FieldErrors `json:"fields"`
				}{http.StatusUnprocessableEntity, fieldErr})
			}

			var appErr *errs.Error
			if !errors.As(err, &appErr) { // to catch errs that may have escaped, obscure them from public view.
				appErr = errs.NewInternal(err)
			}

			reqLog := log.With("trace_id", mux.GetValues(ctx).TraceID)
			reqLog.Error(err.Error(), "kind", appErr.Kind, "source_err_file", path.Base(appErr.FileName), "source_err_func", path.Base(appErr.FuncName))

			if appErr.InnerErr { // after logging, obscure the internal error from public view.
				appErr.Message = http.StatusText(appErr.Code)
			}

			return web.RespondError(ctx, w, appErr)
		}

		return h
	}

	return m
}
