// Package tools exposes the two operations of the service, download_files
// and get_file_info, over plain Go values. Transports decode requests into
// the params types and render the results.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adamwoolhether/fetchguard/fetch"
	"github.com/adamwoolhether/fetchguard/web"
	"github.com/adamwoolhether/fetchguard/web/errs"
)

// Defaults fill in parameters a caller left out.
type Defaults struct {
	Timeout          time.Duration
	MaxFileSizeBytes int64
	RetryCount       int
	MaxConcurrent    int
}

// Service dispatches tool calls to a [fetch.Downloader].
type Service struct {
	dl       *fetch.Downloader
	defaults Defaults
	logger   *slog.Logger
}

// NewService wires dl with the given defaults.
func NewService(dl *fetch.Downloader, defaults Defaults, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		dl:       dl,
		defaults: defaults,
		logger:   logger,
	}
}

// DownloadFiles downloads one file when urls and filenames are both
// strings, or a batch when both are arrays of the same length. Any other
// combination fails with an ArityMismatch *fetch.Error before a request
// is made. Invalid parameters are reported as [errs.FieldErrors].
func (s *Service) DownloadFiles(ctx context.Context, p DownloadFilesParams) (*DownloadResult, error) {
	if err := validateDownload(p); err != nil {
		return nil, err
	}

	if p.URLs.IsList() != p.Filenames.IsList() || p.URLs.Len() != p.Filenames.Len() {
		arity := &fetch.ArityError{URLs: p.URLs.Len(), Filenames: p.Filenames.Len()}
		return nil, &fetch.Error{Kind: fetch.ArityMismatch, Detail: arity.Error(), Err: arity}
	}

	tmpl := s.template(p)
	retries := s.defaults.RetryCount
	if p.RetryCount != nil {
		retries = *p.RetryCount
	}

	if !p.URLs.IsList() {
		tmpl.URL = p.URLs.Values()[0]
		tmpl.Filename = p.Filenames.Values()[0]
		tmpl.Index = 1

		o := s.dl.DownloadWithRetry(ctx, tmpl, retries)
		return &DownloadResult{Mode: ModeSingle, Outcome: &o}, nil
	}

	maxConcurrent := s.defaults.MaxConcurrent
	if p.MaxConcurrent != nil {
		maxConcurrent = *p.MaxConcurrent
	}

	report, err := s.dl.Batch(ctx, fetch.BatchRequest{
		URLs:          p.URLs.Values(),
		Filenames:     p.Filenames.Values(),
		Template:      tmpl,
		RetryCount:    retries,
		MaxConcurrent: maxConcurrent,
	})
	if err != nil {
		return nil, err
	}

	return &DownloadResult{Mode: ModeBatch, Report: report}, nil
}

// GetFileInfo probes a URL without downloading its body. Failures are
// returned as *fetch.Error.
func (s *Service) GetFileInfo(ctx context.Context, p GetFileInfoParams) (*FileInfo, error) {
	if err := web.Validate(p); err != nil {
		return nil, err
	}

	timeout := s.defaults.Timeout
	if p.Timeout != nil {
		timeout = time.Duration(*p.Timeout) * time.Second
	}

	info, err := s.dl.FileInfo(ctx, p.URL, timeout, p.GetImageDetails)
	if err != nil {
		return nil, err
	}

	return &info, nil
}

func (s *Service) template(p DownloadFilesParams) fetch.Request {
	req := fetch.Request{
		OutputDir:        p.OutputDir,
		Overwrite:        p.Overwrite,
		Timeout:          s.defaults.Timeout,
		MaxFileSizeBytes: s.defaults.MaxFileSizeBytes,
		CheckFileType:    true,
		ValidateImage:    p.ValidateImage,
	}

	if p.Timeout != nil {
		req.Timeout = time.Duration(*p.Timeout) * time.Second
	}
	if p.MaxFileSizeMB != nil {
		req.MaxFileSizeBytes = int64(*p.MaxFileSizeMB) << 20
	}
	if p.CheckFileType != nil {
		req.CheckFileType = *p.CheckFileType
	}

	return req
}

func validateDownload(p DownloadFilesParams) error {
	var fields errs.FieldErrors
	if err := web.Validate(p); err != nil {
		if !errors.As(err, &fields) {
			return fmt.Errorf("validating params: %w", err)
		}
	}

	if !p.URLs.IsSet() {
		fields = append(fields, errs.FieldError{Field: "urls", Err: "This field is required"})
	}
	if !p.Filenames.IsSet() {
		fields = append(fields, errs.FieldError{Field: "filenames", Err: "This field is required"})
	}

	if len(fields) > 0 {
		return fields
	}

	return nil
}
