// Package config reads the service settings from the environment once at
// startup. The resulting Config is passed explicitly to the components
// that need it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/adamwoolhether/fetchguard/guard"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the service. Sizes are in megabytes and
// timeouts in seconds, matching the environment variables.
type Config struct {
	LogLevel          string  `json:"log_level" validate:"oneof=DEBUG INFO WARN ERROR"`
	LogFile           string  `json:"log_file,omitempty"`
	MaxFileSizeMB     int     `json:"max_file_size" validate:"min=1,max=1048576"`
	MaxConcurrent     int     `json:"max_concurrent" validate:"min=1"`
	DefaultTimeout    int     `json:"default_timeout" validate:"min=1"`
	RetryCount        int     `json:"retry_count" validate:"min=0,max=10"`
	AllowLocalhost    bool    `json:"allow_localhost"`
	AllowPrivateIPs   bool    `json:"allow_private_ips"`
	RateLimitMBPerSec float64 `json:"rate_limit" validate:"gte=0"`
	RateLimitRPS      int     `json:"rate_limit_rps" validate:"gte=0"`
	UserAgent         string  `json:"user_agent"`
	ServerHost        string  `json:"server_host" validate:"required"`
	ServerPort        int     `json:"server_port" validate:"min=1,max=65535"`
}

// Load reads envFile, when it exists, into the process environment and
// builds a Config from it. Variables already set in the environment take
// precedence over the file. An empty envFile skips the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var p parser
	cfg := Config{
		LogLevel:          strings.ToUpper(p.getString("LOG_LEVEL", "INFO")),
		LogFile:           p.getString("LOG_FILE", ""),
		MaxFileSizeMB:     p.getInt("MAX_FILE_SIZE", 100),
		MaxConcurrent:     p.getInt("MAX_CONCURRENT", 5),
		DefaultTimeout:    p.getInt("DEFAULT_TIMEOUT", 30),
		RetryCount:        p.getInt("RETRY_COUNT", 2),
		AllowLocalhost:    p.getBool("ALLOW_LOCALHOST", false),
		AllowPrivateIPs:   p.getBool("ALLOW_PRIVATE_IPS", false),
		RateLimitMBPerSec: p.getFloat("RATE_LIMIT_MB_PER_SEC", 0),
		RateLimitRPS:      p.getInt("RATE_LIMIT_RPS", 0),
		UserAgent:         p.getString("USER_AGENT", "fetchguard/1.0"),
		ServerHost:        p.getString("SERVER_HOST", "localhost"),
		ServerPort:        p.getInt("SERVER_PORT", 8000),
	}
	if cfg.LogLevel == "WARNING" {
		cfg.LogLevel = "WARN"
	}

	if err := p.err(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// Policy returns the URL policy derived from the allow flags.
func (c Config) Policy() guard.Policy {
	return guard.Policy{
		AllowLocalhost:  c.AllowLocalhost,
		AllowPrivateIPs: c.AllowPrivateIPs,
	}
}

// MaxFileSizeBytes converts the size cap to bytes.
func (c Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

// Timeout returns the default per-file timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.DefaultTimeout) * time.Second
}

// BytesPerSec converts the bandwidth limit, zero meaning unlimited.
func (c Config) BytesPerSec() int {
	return int(c.RateLimitMBPerSec * (1 << 20))
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.ServerHost, strconv.Itoa(c.ServerPort))
}

// Level maps LogLevel onto a slog level.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}

	return l
}
