package fetch

import (
	"context"
	"time"
)

// DownloadWithRetry runs Download and repeats it up to retryCount more
// times while the failure is transient (NetworkError or ServerError).
// Attempts are spaced by an exponential backoff that ends early when ctx
// is done. The last outcome is returned with Attempts set.
func (d *Downloader) DownloadWithRetry(ctx context.Context, req Request, retryCount int) Outcome {
	start := time.Now()

	var o Outcome
	for attempt := 0; ; attempt++ {
		o = d.Download(ctx, req)
		o.Attempts = attempt + 1

		if o.Status != StatusFailed || !o.Kind.Retryable() || attempt >= retryCount || ctx.Err() != nil {
			break
		}

		delay := d.backoff(attempt)
		d.recorder.Retry(o.Kind)
		d.logger.Warn("retrying download", "url", req.URL, "attempt", attempt+1, "kind", o.Kind, "delay", delay.String())

		if !sleep(ctx, delay) {
			break
		}
	}

	d.recorder.Observe(o, time.Since(start))

	return o
}

func (d *Downloader) backoff(attempt int) time.Duration {
	delay := d.baseDelay
	for range attempt {
		delay *= 2
		if delay >= d.maxDelay {
			return d.maxDelay
		}
	}

	return delay
}

// sleep waits for d or until ctx is done, reporting whether the full
// delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
