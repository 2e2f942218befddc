package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adamwoolhether/fetchguard/config"
	"github.com/adamwoolhether/fetchguard/guard"
	"github.com/google/go-cmp/cmp"
)

var keys = []string{
	"LOG_LEVEL", "LOG_FILE", "MAX_FILE_SIZE", "MAX_CONCURRENT", "DEFAULT_TIMEOUT",
	"RETRY_COUNT", "ALLOW_LOCALHOST", "ALLOW_PRIVATE_IPS", "RATE_LIMIT_MB_PER_SEC",
	"RATE_LIMIT_RPS", "USER_AGENT", "SERVER_HOST", "SERVER_PORT",
}

// clearEnv blanks every variable Load reads. t.Setenv restores them.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := config.Config{
		LogLevel:       "INFO",
		MaxFileSizeMB:  100,
		MaxConcurrent:  5,
		DefaultTimeout: 30,
		RetryCount:     2,
		UserAgent:      "fetchguard/1.0",
		ServerHost:     "localhost",
		ServerPort:     8000,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	if got := cfg.MaxFileSizeBytes(); got != 100<<20 {
		t.Errorf("expected %d bytes, got %d", 100<<20, got)
	}
	if got := cfg.Timeout(); got != 30*time.Second {
		t.Errorf("expected 30s, got %s", got)
	}
	if got := cfg.Addr(); got != "localhost:8000" {
		t.Errorf("expected localhost:8000, got %s", got)
	}
	if got := cfg.Policy(); got != (guard.Policy{}) {
		t.Errorf("expected restrictive policy, got %+v", got)
	}
	if got := cfg.BytesPerSec(); got != 0 {
		t.Errorf("expected unlimited bandwidth, got %d", got)
	}
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("MAX_FILE_SIZE", "5")
	t.Setenv("ALLOW_LOCALHOST", "true")
	t.Setenv("ALLOW_PRIVATE_IPS", "1")
	t.Setenv("RATE_LIMIT_MB_PER_SEC", "0.5")
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Level() != slog.LevelWarn {
		t.Errorf("expected warn level, got %s", cfg.Level())
	}
	if cfg.MaxFileSizeBytes() != 5<<20 {
		t.Errorf("expected 5MB cap, got %d", cfg.MaxFileSizeBytes())
	}
	if want := (guard.Policy{AllowLocalhost: true, AllowPrivateIPs: true}); cfg.Policy() != want {
		t.Errorf("expected %+v, got %+v", want, cfg.Policy())
	}
	if cfg.BytesPerSec() != 512<<10 {
		t.Errorf("expected %d bytes/s, got %d", 512<<10, cfg.BytesPerSec())
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("expected 0.0.0.0:9090, got %s", cfg.Addr())
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is present, even if empty.
	os.Unsetenv("MAX_CONCURRENT")

	path := filepath.Join(t.TempDir(), ".env")
	content := "MAX_CONCURRENT=7\nSERVER_PORT=7000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing env file: %v", err)
	}
	t.Setenv("SERVER_PORT", "7100")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.MaxConcurrent != 7 {
		t.Errorf("expected MAX_CONCURRENT from file, got %d", cfg.MaxConcurrent)
	}
	if cfg.ServerPort != 7100 {
		t.Errorf("expected environment to win over file, got %d", cfg.ServerPort)
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	clearEnv(t)

	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"malformed int":  {"MAX_FILE_SIZE": "lots"},
		"malformed bool": {"ALLOW_LOCALHOST": "sometimes"},
		"zero size":      {"MAX_FILE_SIZE": "0"},
		"size overflow":  {"MAX_FILE_SIZE": "17592186044416"},
		"port range":     {"SERVER_PORT": "70000"},
		"unknown level":  {"LOG_LEVEL": "TRACE"},
		"negative rate":  {"RATE_LIMIT_MB_PER_SEC": "-1"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}

			if _, err := config.Load(""); err == nil {
				t.Error("expected error")
			}
		})
	}
}
