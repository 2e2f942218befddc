// Package fetchguard assembles the download service from a Config: the
// guarded HTTP client, the downloader, its metrics and the HTTP routes.
package fetchguard

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/adamwoolhether/fetchguard/api"
	"github.com/adamwoolhether/fetchguard/client"
	"github.com/adamwoolhether/fetchguard/config"
	"github.com/adamwoolhether/fetchguard/fetch"
	"github.com/adamwoolhether/fetchguard/guard"
	"github.com/adamwoolhether/fetchguard/metrics"
	"github.com/adamwoolhether/fetchguard/tools"
)

// Service is a fully wired instance.
type Service struct {
	Tools   *tools.Service
	Metrics *metrics.Metrics
	Handler http.Handler
}

// New builds a Service from cfg. The Config is validated first.
func New(cfg config.Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	clientOpts := []client.Option{
		client.WithRedirectCheck(guard.CheckRedirect(cfg.Policy())),
		client.WithUserAgent(cfg.UserAgent),
		client.WithLogger(logger),
	}
	if cfg.RateLimitRPS > 0 {
		clientOpts = append(clientOpts, client.WithThrottle(cfg.RateLimitRPS, cfg.RateLimitRPS))
	}

	c, err := client.Build(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("building client: %w", err)
	}

	m := metrics.New()

	fetchOpts := []fetch.Option{
		fetch.WithPolicy(cfg.Policy()),
		fetch.WithLogger(logger),
		fetch.WithRecorder(m),
	}
	if bps := cfg.BytesPerSec(); bps > 0 {
		fetchOpts = append(fetchOpts, fetch.WithBandwidth(bps))
	}

	dl, err := fetch.New(c, fetchOpts...)
	if err != nil {
		return nil, fmt.Errorf("building downloader: %w", err)
	}

	svc := tools.NewService(dl, tools.Defaults{
		Timeout:          cfg.Timeout(),
		MaxFileSizeBytes: cfg.MaxFileSizeBytes(),
		RetryCount:       cfg.RetryCount,
		MaxConcurrent:    cfg.MaxConcurrent,
	}, logger)

	return &Service{
		Tools:   svc,
		Metrics: m,
		Handler: api.Routes(api.Config{Service: svc, Metrics: m.Handler(), Logger: logger}),
	}, nil
}
