package download

import (
	"errors"
	"fmt"
)

var (
	ErrContentLengthMismatch = errors.New("content length mismatch")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrDownloadCancelled     = errors.New("download cancelled")
	ErrTooLarge              = errors.New("file exceeds size limit")
	ErrVerifyFailed          = errors.New("verification failed")
)

// Error wraps one of the package sentinels with detail. When a
// verification hook fails, its error is kept as well so callers can
// match on it with errors.Is.
type Error struct {
	Detail string
	Err    error
	cause  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Err}
	}

	return []error{e.Err, e.cause}
}
