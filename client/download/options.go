package download

import (
	"errors"
	"hash"
	"net/http"
	"os"
)

// Option defines optional settings for [Handle].
type Option func(*options) error

// VerifyFunc inspects the fully written temp file before it is renamed
// into place. h holds the response headers when known. A non-nil error
// aborts the download.
type VerifyFunc func(f *os.File, h http.Header) error

type options struct {
	checksum    *checksumVerifier
	progress    bool
	maxBytes    int64
	bytesPerSec int
	verifiers   []VerifyFunc
	header      http.Header
}

// WithChecksum enables checksum validation of the downloaded file.
// h is a hash.Hash instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

// WithHash feeds every written byte into h without validating the
// result. Read the digest from h once Handle returns.
func WithHash(h hash.Hash) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		opts.checksum = &checksumVerifier{hash: h}
		return nil
	}
}

// WithProgress enables periodic download progress logging via the
// logger supplied to Handle.
func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}

// WithMaxBytes rejects bodies larger than n bytes. A declared
// Content-Length above n fails before anything is written; otherwise the
// copy stops as soon as the limit is crossed.
func WithMaxBytes(n int64) Option {
	return func(opts *options) error {
		if n <= 0 {
			return errors.New("max bytes must be greater than zero")
		}

		opts.maxBytes = n
		return nil
	}
}

// WithBandwidth caps the read rate of the body in bytes per second.
func WithBandwidth(bytesPerSec int) Option {
	return func(opts *options) error {
		if bytesPerSec <= 0 {
			return errors.New("bandwidth must be greater than zero")
		}

		opts.bytesPerSec = bytesPerSec
		return nil
	}
}

// WithVerify registers fn to run against the complete temp file.
// Verifiers run in the order given, each starting at offset zero.
func WithVerify(fn VerifyFunc) Option {
	return func(opts *options) error {
		if fn == nil {
			return errors.New("verify func must not be nil")
		}

		opts.verifiers = append(opts.verifiers, fn)
		return nil
	}
}

// WithHeader makes the response headers available to verifiers.
func WithHeader(h http.Header) Option {
	return func(opts *options) error {
		opts.header = h
		return nil
	}
}
