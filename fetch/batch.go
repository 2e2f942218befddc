package fetch

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Batch downloads every URL in order, pairing it with the filename at
// the same position. Mismatched lengths fail before anything is fetched.
// A failing item never stops the batch; once ctx is done the remaining
// items are reported as failed without being attempted.
func (d *Downloader) Batch(ctx context.Context, br BatchRequest) (*BatchReport, error) {
	if len(br.URLs) != len(br.Filenames) {
		arity := &ArityError{URLs: len(br.URLs), Filenames: len(br.Filenames)}
		return nil, &Error{Kind: ArityMismatch, Detail: arity.Error(), Err: arity}
	}

	report := newReport(len(br.URLs))

	ctx, span := d.tracer.Start(ctx, "fetch.batch", trace.WithAttributes(
		attribute.String("batch_id", report.ID.String()),
		attribute.Int("items", len(br.URLs)),
	))
	defer span.End()

	if br.MaxConcurrent > 1 {
		d.logger.Debug("batch items run sequentially", "max_concurrent", br.MaxConcurrent)
	}

	start := time.Now()

	for i, rawURL := range br.URLs {
		req := br.Template
		req.URL = rawURL
		req.Filename = br.Filenames[i]
		req.Index = i + 1

		if err := ctx.Err(); err != nil {
			report.add(Failed(rawURL, NetworkError, fmt.Sprintf("batch cancelled: %v", err)))
			continue
		}

		report.add(d.DownloadWithRetry(ctx, req, br.RetryCount))
	}

	report.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("success", report.Success),
		attribute.Int("failed", report.Failed),
		attribute.Int("skipped", report.Skipped),
	)

	d.logger.Info("batch complete",
		"batch_id", report.ID.String(),
		"total", report.Total,
		"success", report.Success,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"duration", report.Duration.Round(time.Millisecond).String(),
		"files_per_second", fmt.Sprintf("%.2f", report.Rate()),
	)

	return report, nil
}
