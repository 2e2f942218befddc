package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adamwoolhether/fetchguard/client/throttle"
)

// tempPattern marks in-flight files so they are easy to spot and clean up.
const tempPattern = ".fetchguard-*.part"

// Handle streams body to a temp file in the same directory as destPath,
// runs any verification hooks against it and then renames it into place.
// On any error the temp file is removed and destPath is left untouched.
// It returns the number of bytes written.
func Handle(ctx context.Context, body io.Reader, contentLength int64, destPath string, logger *slog.Logger, optFns ...Option) (int64, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return 0, fmt.Errorf("applying option: %w", err)
		}
	}

	if opts.maxBytes > 0 && contentLength > opts.maxBytes {
		return 0, &Error{
			Err:    ErrTooLarge,
			Detail: fmt.Sprintf("declared %d bytes, limit %d", contentLength, opts.maxBytes),
		}
	}

	body = &contextReader{ctx: ctx, r: body}

	if opts.bytesPerSec > 0 {
		limited, err := throttle.NewReader(ctx, body, opts.bytesPerSec)
		if err != nil {
			return 0, fmt.Errorf("configuring bandwidth limit: %w", err)
		}
		body = limited
	}

	file, err := os.CreateTemp(filepath.Dir(destPath), tempPattern)
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error("defer closing temp file", "error", err)
		}
		if !successful {
			if err := os.Remove(file.Name()); err != nil {
				logger.Error("failed to remove temp file", "error", err)
			}
		}
	}()

	var writer io.Writer = file
	if opts.checksum != nil {
		writer = io.MultiWriter(writer, opts.checksum)
	}

	if opts.maxBytes > 0 {
		writer = &limitWriter{w: writer, remaining: opts.maxBytes}
	}

	if opts.progress {
		writer = &progressWriter{
			w:         writer,
			logger:    logger,
			total:     contentLength,
			startTime: time.Now(),
		}
	}

	n, err := io.Copy(writer, body)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return n, fmt.Errorf("%w: %w", ErrDownloadCancelled, err)
		}

		return n, fmt.Errorf("copying file body: %w", err)
	}

	if contentLength >= 0 && n != contentLength {
		return n, &Error{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", contentLength, n),
		}
	}

	if err := opts.checksum.Verify(); err != nil {
		return n, err
	}

	if err := file.Sync(); err != nil {
		return n, fmt.Errorf("syncing temp file: %w", err)
	}

	for _, verify := range opts.verifiers {
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return n, fmt.Errorf("rewinding temp file: %w", err)
		}
		if err := verify(file, opts.header); err != nil {
			return n, &Error{Err: ErrVerifyFailed, Detail: err.Error(), cause: err}
		}
	}

	if err := file.Close(); err != nil {
		return n, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(file.Name(), destPath); err != nil {
		return n, fmt.Errorf("renaming temp file: %w", err)
	}

	successful = true

	return n, nil
}

// contextReader aborts reads once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}

// limitWriter fails the copy as soon as more than remaining bytes arrive.
type limitWriter struct {
	w         io.Writer
	remaining int64
	written   int64
}

func (lw *limitWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > lw.remaining {
		return 0, &Error{
			Err:    ErrTooLarge,
			Detail: fmt.Sprintf("exceeded limit after %d bytes", lw.written+int64(len(p))),
		}
	}

	n, err := lw.w.Write(p)
	lw.remaining -= int64(n)
	lw.written += int64(n)

	return n, err
}
