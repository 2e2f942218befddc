package fetch

import (
	"errors"
	"log/slog"
	"time"

	"github.com/adamwoolhether/fetchguard/guard"
	"github.com/adamwoolhether/fetchguard/inspect"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a [Downloader] via [New].
type Option func(*options) error

type options struct {
	policy      guard.Policy
	logger      *slog.Logger
	tracer      trace.Tracer
	recorder    Recorder
	safeTypes   inspect.SafeTypes
	baseDelay   time.Duration
	maxDelay    time.Duration
	bytesPerSec int
	progress    bool
}

// WithPolicy sets which internal destinations may be fetched.
func WithPolicy(p guard.Policy) Option {
	return func(o *options) error {
		o.policy = p
		return nil
	}
}

// WithLogger injects a custom [slog.Logger].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithTracer overrides the tracer obtained from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithRecorder reports outcomes and retries to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) error {
		if r == nil {
			return errors.New("recorder must not be nil")
		}
		o.recorder = r
		return nil
	}
}

// WithSafeTypes replaces the default content type allow-list.
func WithSafeTypes(types inspect.SafeTypes) Option {
	return func(o *options) error {
		if len(types) == 0 {
			return errors.New("safe types must not be empty")
		}
		o.safeTypes = types
		return nil
	}
}

// WithBackoff sets the delay before the first retry and its ceiling.
// The delay doubles after every attempt.
func WithBackoff(base, ceiling time.Duration) Option {
	return func(o *options) error {
		if base < 0 || ceiling < base {
			return errors.New("backoff requires 0 <= base <= ceiling")
		}
		o.baseDelay = base
		o.maxDelay = ceiling
		return nil
	}
}

// WithBandwidth caps each body download at bytesPerSec.
func WithBandwidth(bytesPerSec int) Option {
	return func(o *options) error {
		if bytesPerSec <= 0 {
			return errors.New("bandwidth must be greater than zero")
		}
		o.bytesPerSec = bytesPerSec
		return nil
	}
}

// WithProgress logs transfer progress at debug level.
func WithProgress() Option {
	return func(o *options) error {
		o.progress = true
		return nil
	}
}
