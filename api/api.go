// Package api serves the download tools over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/adamwoolhether/fetchguard/fetch"
	"github.com/adamwoolhether/fetchguard/tools"
	"github.com/adamwoolhether/fetchguard/web"
	"github.com/adamwoolhether/fetchguard/web/errs"
	"github.com/adamwoolhether/fetchguard/web/middleware"
	"github.com/adamwoolhether/fetchguard/web/mux"
)

// Config holds what the routes need.
type Config struct {
	Service *tools.Service
	Metrics http.Handler
	Logger  *slog.Logger
}

// Routes builds the handler for every endpoint:
//
//	POST /v1/downloads   download_files
//	GET  /v1/files/info  get_file_info
//	GET  /healthz        liveness
//	GET  /metrics        Prometheus scrape, when Metrics is set
func Routes(cfg Config) *mux.App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := mux.New(
		mux.WithLogger(logger),
		mux.WithMiddleware(
			middleware.Logger(logger),
			middleware.Errors(logger),
			middleware.Panics(),
		),
	)

	h := handlers{svc: cfg.Service}

	v1 := app.Mount("v1")
	v1.Post("/downloads", h.download)
	v1.Get("/files/info", h.fileInfo)

	app.HandleNoMiddleware(http.MethodGet, "/healthz", http.HandlerFunc(health))
	if cfg.Metrics != nil {
		app.HandleNoMiddleware(http.MethodGet, "/metrics", cfg.Metrics)
	}

	return app
}

type handlers struct {
	svc *tools.Service
}

func (h handlers) download(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var p tools.DownloadFilesParams
	if err := web.Decode(r, &p); err != nil {
		return requestError(err)
	}

	res, err := h.svc.DownloadFiles(ctx, p)
	if err != nil {
		return toWebError(err)
	}

	return web.RespondJSON(ctx, w, http.StatusOK, res)
}

func (h handlers) fileInfo(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	p := tools.GetFileInfoParams{URL: r.URL.Query().Get("url")}

	if r.URL.Query().Has("timeout") {
		timeout, err := web.QueryInt(r, "timeout")
		if err != nil {
			return errs.NewFieldsError("timeout", err)
		}
		p.Timeout = &timeout
	}

	if r.URL.Query().Has("image_details") {
		details, err := web.QueryBool(r, "image_details")
		if err != nil {
			return errs.NewFieldsError("image_details", err)
		}
		p.GetImageDetails = details
	}

	info, err := h.svc.GetFileInfo(ctx, p)
	if err != nil {
		return toWebError(err)
	}

	return web.RespondJSON(ctx, w, http.StatusOK, info)
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// requestError passes validation failures through and reports anything
// else from decoding as a bad request.
func requestError(err error) error {
	if errs.IsFieldErrors(err) {
		return err
	}

	return errs.New(http.StatusBadRequest, err)
}

// toWebError maps a service failure onto an HTTP status. Input problems
// are the caller's fault, anything that went wrong at the origin is a bad
// gateway.
func toWebError(err error) error {
	if errs.IsFieldErrors(err) {
		return err
	}

	var fe *fetch.Error
	if !errors.As(err, &fe) {
		return errs.NewInternal(err)
	}

	return errs.NewKind(statusFor(fe.Kind), string(fe.Kind), err)
}

func statusFor(kind fetch.ErrorKind) int {
	switch kind {
	case fetch.ArityMismatch:
		return http.StatusUnprocessableEntity
	case fetch.InvalidURL, fetch.InvalidPath:
		return http.StatusBadRequest
	case fetch.UnsafeFileType:
		return http.StatusUnsupportedMediaType
	case fetch.FileTooLarge:
		return http.StatusRequestEntityTooLarge
	case fetch.IOError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
