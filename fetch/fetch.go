// Package fetch downloads remote files into a local directory under a
// URL policy, a size cap and optional content checks, and reports one
// structured Outcome per URL.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adamwoolhether/fetchguard/client"
	"github.com/adamwoolhether/fetchguard/guard"
	"github.com/adamwoolhether/fetchguard/inspect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/adamwoolhether/fetchguard/fetch"

// Recorder observes the final outcome of each logical download and
// every retry.
type Recorder interface {
	Observe(o Outcome, elapsed time.Duration)
	Retry(kind ErrorKind)
}

type nopRecorder struct{}

func (nopRecorder) Observe(Outcome, time.Duration) {}
func (nopRecorder) Retry(ErrorKind)                {}

// Downloader runs downloads one at a time. It holds no per-request
// state and is safe for concurrent use.
type Downloader struct {
	client      *client.Client
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

// New builds a Downloader around c. When c is nil a client is built that
// applies the Policy to every redirect hop.
func New(c *client.Client, optFns ...Option) (*Downloader, error) {
	opts := options{
		logger:    slog.Default(),
		recorder:  nopRecorder{},
		safeTypes: inspect.DefaultSafeTypes,
		baseDelay: 500 * time.Millisecond,
		maxDelay:  5 * time.Second,
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying fetch option: %w", err)
		}
	}

	if opts.tracer == nil {
		opts.tracer = otel.Tracer(tracerName)
	}

	if c == nil {
		var err error
		c, err = client.Build(
			client.WithRedirectCheck(guard.CheckRedirect(opts.policy)),
			client.WithLogger(opts.logger),
		)
		if err != nil {
			return nil, fmt.Errorf("building client: %w", err)
		}
	}

	return &Downloader{
		client:      c,
		policy:      opts.policy,
		logger:      opts.logger,
		tracer:      opts.tracer,
		recorder:    opts.recorder,
		safeTypes:   opts.safeTypes,
		baseDelay:   opts.baseDelay,
		maxDelay:    opts.maxDelay,
		bytesPerSec: opts.bytesPerSec,
		progress:    opts.progress,
	}, nil
}

// Policy returns the URL policy the Downloader enforces.
func (d *Downloader) Policy() guard.Policy {
	return d.policy
}

// Download makes a single attempt at req. The destination is only
// written once the whole body passed every check; a failed attempt leaves
// no file behind.
func (d *Downloader) Download(ctx context.Context, req Request) Outcome {
	ctx, span := d.tracer.Start(ctx, "fetch.download", trace.WithAttributes(attribute.String("url", req.URL)))
	defer span.End()

	o := d.download(ctx, req)
	o.Attempts = 1

	span.SetAttributes(attribute.String("status", string(o.Status)))
	if o.Status == StatusFailed {
		span.SetStatus(codes.Error, string(o.Kind))
	}

	return o
}

func (d *Downloader) download(ctx context.Context, req Request) Outcome {
	if req.OutputDir == "" {
		return Failed(req.URL, InvalidPath, "output directory is required")
	}

	name := req.Filename
	if name == "" {
		name = guard.FilenameFromURL(req.URL, req.Index)
	}

	// Joined by hand so a ".." in name survives to EnsureSafePath.
	dest, err := guard.EnsureSafePath(req.OutputDir+string(filepath.Separator)+name, req.OutputDir)
	if err != nil {
		return Failed(req.URL, InvalidPath, err.Error())
	}
	if base, _ := filepath.Abs(req.OutputDir); dest == base {
		return Failed(req.URL, InvalidPath, "filename resolves to the output directory")
	}

	if !req.Overwrite {
		if _, err := os.Stat(dest); err == nil {
			d.logger.Info("skipping existing file", "url", req.URL, "path", dest)
			return Skipped(req.URL, dest, "file already exists")
		}
	}

	if !guard.ValidateURL(req.URL, d.policy) {
		return Failed(req.URL, InvalidURL, "url is not allowed")
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return Failed(req.URL, InvalidURL, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Failed(req.URL, IOError, fmt.Sprintf("creating directory: %v", err))
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := client.Request(ctx, u, http.MethodGet)
	if err != nil {
		return Failed(req.URL, InvalidURL, err.Error())
	}

	var contentType string
	h := sha256.New()
	dlOpts := []client.DownloadOption{
		client.WithHash(h),
		client.WithVerify(d.verifier(req, &contentType)),
	}
	if req.MaxFileSizeBytes > 0 {
		dlOpts = append(dlOpts, client.WithMaxBytes(req.MaxFileSizeBytes))
	}
	if d.bytesPerSec > 0 {
		dlOpts = append(dlOpts, client.WithBandwidth(d.bytesPerSec))
	}
	if d.progress {
		dlOpts = append(dlOpts, client.WithProgress())
	}

	n, err := d.client.Download(httpReq, 0, dest, dlOpts...)
	if err != nil {
		kind := classify(err)
		d.logger.Warn("download failed", "url", req.URL, "kind", kind, "error", err)
		return Failed(req.URL, kind, err.Error())
	}

	d.logger.Info("download complete", "url", req.URL, "path", dest, "bytes", n, "content_type", contentType)

	return Succeeded(req.URL, dest, contentType, n, hex.EncodeToString(h.Sum(nil)))
}

// verifier resolves the content type of the finished temp file and
// applies the checks req asks for.
func (d *Downloader) verifier(req Request, contentType *string) client.VerifyFunc {
	return func(f *os.File, h http.Header) error {
		head := make([]byte, inspect.SniffLen)
		n, err := io.ReadFull(f, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading file head: %w", err)
		}

		ct := inspect.ContentType(h, head[:n])
		*contentType = ct

		if req.CheckFileType && !inspect.IsImage(ct) && !d.safeTypes.Allows(ct) {
			return &Error{Kind: UnsafeFileType, Detail: fmt.Sprintf("content type %q is not allowed", ct)}
		}

		if req.ValidateImage && inspect.IsImage(ct) {
			if err := inspect.VerifyImage(f, ct); err != nil {
				return &Error{Kind: CorruptImage, Detail: err.Error(), Err: err}
			}
		}

		return nil
	}
}
