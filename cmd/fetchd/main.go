// Command fetchd serves the download tools over HTTP. Settings come from
// the environment, optionally seeded from a .env file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adamwoolhether/fetchguard"
	"github.com/adamwoolhether/fetchguard/config"
	"github.com/adamwoolhether/fetchguard/web/server"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	flag.Parse()

	if err := run(context.Background(), *envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("starting",
		"addr", cfg.Addr(),
		"max_file_size_mb", cfg.MaxFileSizeMB,
		"retry_count", cfg.RetryCount,
		"allow_localhost", cfg.AllowLocalhost,
		"allow_private_ips", cfg.AllowPrivateIPs,
	)

	svc, err := fetchguard.New(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(svc.Handler,
		server.WithHost(cfg.Addr()),
		server.WithLogger(logger),
	)

	return srv.Run(ctx)
}

// newLogger writes JSON logs to stderr and, when LOG_FILE is set, to that
// file as well.
func newLogger(cfg config.Config) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closeFn := func() {}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log dir: %w", err)
		}

		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}

		w = io.MultiWriter(os.Stderr, f)
		closeFn = func() { f.Close() }
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level()}))

	return logger, closeFn, nil
}
