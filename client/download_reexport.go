package client

import (
	"hash"

	"github.com/adamwoolhether/fetchguard/client/download"
)

// --------------------------------------------------------------------
// Type aliases - re-export user-facing types from [download].
// --------------------------------------------------------------------

type (
	// DownloadOption configures [Client.Download].
	DownloadOption = download.Option

	// DownloadError wraps a sentinel error with additional detail.
	DownloadError = download.Error

	// VerifyFunc inspects a completed download before it is renamed into place.
	VerifyFunc = download.VerifyFunc
)

// --------------------------------------------------------------------
// Sentinel errors
// --------------------------------------------------------------------

var (
	// ErrContentLengthMismatch indicates the byte count did not match Content-Length.
	ErrContentLengthMismatch = download.ErrContentLengthMismatch

	// ErrChecksumMismatch indicates the file checksum did not match the expected value.
	ErrChecksumMismatch = download.ErrChecksumMismatch

	// ErrDownloadCancelled indicates the download was cancelled via context.
	ErrDownloadCancelled = download.ErrDownloadCancelled

	// ErrTooLarge indicates the body exceeded the configured size limit.
	ErrTooLarge = download.ErrTooLarge

	// ErrVerifyFailed indicates a verifier rejected the downloaded file.
	ErrVerifyFailed = download.ErrVerifyFailed
)

// --------------------------------------------------------------------
// Download option forwarding functions
// --------------------------------------------------------------------

// WithChecksum enables checksum validation of the downloaded file.
// h is a [hash.Hash] instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) DownloadOption {
	return download.WithChecksum(h, expected)
}

// WithHash feeds the downloaded bytes into h without validating them.
func WithHash(h hash.Hash) DownloadOption { return download.WithHash(h) }

// WithProgress enables periodic download progress logging.
func WithProgress() DownloadOption { return download.WithProgress() }

// WithMaxBytes rejects bodies larger than n bytes.
func WithMaxBytes(n int64) DownloadOption { return download.WithMaxBytes(n) }

// WithBandwidth caps the download rate in bytes per second.
func WithBandwidth(bytesPerSec int) DownloadOption { return download.WithBandwidth(bytesPerSec) }

// WithVerify registers fn to inspect the complete file before it is
// renamed into place.
func WithVerify(fn VerifyFunc) DownloadOption { return download.WithVerify(fn) }
