package fetch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrorKind classifies why a download failed.
type ErrorKind string

const (
	InvalidURL       ErrorKind = "InvalidURL"
	InvalidPath      ErrorKind = "InvalidPath"
	FileTooLarge     ErrorKind = "FileTooLarge"
	UnsafeFileType   ErrorKind = "UnsafeFileType"
	CorruptImage     ErrorKind = "CorruptImage"
	NetworkError     ErrorKind = "NetworkError"
	ServerError      ErrorKind = "ServerError"
	UnexpectedStatus ErrorKind = "UnexpectedStatus"
	IOError          ErrorKind = "IOError"
	ArityMismatch    ErrorKind = "ArityMismatch"
)

// Retryable reports whether another attempt could succeed.
func (k ErrorKind) Retryable() bool {
	return k == NetworkError || k == ServerError
}

// Error carries a failure kind with detail. Two Errors match under
// errors.Is when their kinds are equal.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Detail {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// ArityError reports mismatched batch inputs.
type ArityError struct {
	URLs      int `json:"urls_count"`
	Filenames int `json:"filenames_count"`
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("got %d urls and %d filenames", e.URLs, e.Filenames)
}

// Status is the terminal state of one download.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is the result of downloading one URL. Only the fields that
// belong to Status are populated; build values with Succeeded, Skipped
// or Failed.
type Outcome struct {
	Status      Status    `json:"status"`
	URL         string    `json:"url"`
	Filepath    string    `json:"filepath,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	SizeBytes   int64     `json:"size"`
	SHA256      string    `json:"sha256,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Kind        ErrorKind `json:"error_kind,omitempty"`
	Message     string    `json:"error,omitempty"`
	Attempts    int       `json:"attempts,omitempty"`
}

// Succeeded describes a file that was written to path.
func Succeeded(url, path, contentType string, size int64, sum string) Outcome {
	return Outcome{
		Status:      StatusSuccess,
		URL:         url,
		Filepath:    path,
		ContentType: contentType,
		SizeBytes:   size,
		SHA256:      sum,
	}
}

// Skipped describes a download that was not attempted.
func Skipped(url, path, reason string) Outcome {
	return Outcome{
		Status:   StatusSkipped,
		URL:      url,
		Filepath: path,
		Reason:   reason,
	}
}

// Failed describes a download that did not produce a file.
func Failed(url string, kind ErrorKind, msg string) Outcome {
	return Outcome{
		Status:  StatusFailed,
		URL:     url,
		Kind:    kind,
		Message: msg,
	}
}

// Err returns the failure as an *Error, or nil when o did not fail.
func (o Outcome) Err() error {
	if o.Status != StatusFailed {
		return nil
	}

	return &Error{Kind: o.Kind, Detail: o.Message}
}

// Request describes one download. Zero Timeout and MaxFileSizeBytes
// mean no limit. An empty Filename is derived from the URL and Index.
type Request struct {
	URL              string
	Filename         string
	OutputDir        string
	Overwrite        bool
	Timeout          time.Duration
	MaxFileSizeBytes int64
	CheckFileType    bool
	ValidateImage    bool
	Index            int
}

// BatchRequest pairs URLs with Filenames by position. Every item is
// downloaded with the settings of Template.
type BatchRequest struct {
	URLs          []string
	Filenames     []string
	Template      Request
	RetryCount    int
	MaxConcurrent int
}

// BatchReport summarizes a batch. Total always equals
// Success+Failed+Skipped and len(Details).
type BatchReport struct {
	ID       uuid.UUID
	Total    int
	Success  int
	Failed   int
	Skipped  int
	Duration time.Duration
	Details  []Outcome
}

func newReport(capacity int) *BatchReport {
	return &BatchReport{
		ID:      uuid.New(),
		Details: make([]Outcome, 0, capacity),
	}
}

func (r *BatchReport) add(o Outcome) {
	r.Total++
	switch o.Status {
	case StatusSuccess:
		r.Success++
	case StatusSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
	r.Details = append(r.Details, o)
}

// DurationSeconds returns the wall-clock time of the batch in seconds.
func (r *BatchReport) DurationSeconds() float64 {
	return r.Duration.Seconds()
}

// Rate returns successful files per second.
func (r *BatchReport) Rate() float64 {
	if r.Duration <= 0 {
		return 0
	}

	return float64(r.Success) / r.Duration.Seconds()
}

func (r *BatchReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID              string    `json:"id"`
		Total           int       `json:"total"`
		Success         int       `json:"success"`
		Failed          int       `json:"failed"`
		Skipped         int       `json:"skipped"`
		DurationSeconds float64   `json:"duration_seconds"`
		FilesPerSecond  float64   `json:"files_per_second"`
		Details         []Outcome `json:"details"`
	}{
		ID:              r.ID.String(),
		Total:           r.Total,
		Success:         r.Success,
		Failed:          r.Failed,
		Skipped:         r.Skipped,
		DurationSeconds: r.DurationSeconds(),
		FilesPerSecond:  r.Rate(),
		Details:         r.Details,
	})
}
