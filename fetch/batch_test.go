package fetch_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adamwoolhether/fetchguard/fetch"
)

func TestBatch_PartialFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "fast")
	}))
	defer ts.Close()

	dir := t.TempDir()
	d := newDownloader(t)

	report, err := d.Batch(t.Context(), fetch.BatchRequest{
		URLs:       []string{ts.URL + "/ok", ts.URL + "/slow"},
		Filenames:  []string{"f1", "f2"},
		Template:   fetch.Request{OutputDir: dir, Timeout: 100 * time.Millisecond},
		RetryCount: 1,
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	if report.Total != 2 || report.Success != 1 || report.Failed != 1 || report.Skipped != 0 {
		t.Fatalf("unexpected counts: total=%d success=%d failed=%d skipped=%d",
			report.Total, report.Success, report.Failed, report.Skipped)
	}
	if len(report.Details) != report.Total {
		t.Fatalf("expected %d details, got %d", report.Total, len(report.Details))
	}

	first, second := report.Details[0], report.Details[1]
	if first.Status != fetch.StatusSuccess || first.Filepath != filepath.Join(dir, "f1") {
		t.Errorf("expected first item to succeed into f1, got %+v", first)
	}
	if second.Status != fetch.StatusFailed || second.Kind != fetch.NetworkError {
		t.Errorf("expected second item to fail with NetworkError, got %+v", second)
	}
	if second.Attempts != 2 {
		t.Errorf("expected slow item to be attempted twice, got %d", second.Attempts)
	}
	if _, err := os.Stat(filepath.Join(dir, "f2")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected no file for failed item, stat error: %v", err)
	}
}

func TestBatch_ArityMismatch(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	dir := t.TempDir()
	d := newDownloader(t)

	report, err := d.Batch(t.Context(), fetch.BatchRequest{
		URLs:      []string{ts.URL + "/a"},
		Filenames: []string{"x", "y"},
		Template:  fetch.Request{OutputDir: dir},
	})
	if report != nil {
		t.Errorf("expected no report, got %+v", report)
	}
	if !errors.Is(err, &fetch.Error{Kind: fetch.ArityMismatch}) {
		t.Fatalf("expected ArityMismatch, got %v", err)
	}

	var arity *fetch.ArityError
	if !errors.As(err, &arity) {
		t.Fatalf("expected *ArityError in chain, got %T", err)
	}
	if arity.URLs != 1 || arity.Filenames != 2 {
		t.Errorf("unexpected arity counts: %+v", arity)
	}

	if n := hits.Load(); n != 0 {
		t.Errorf("expected no network calls, got %d", n)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no filesystem writes, found %d entries", len(entries))
	}
}

func TestBatch_CountInvariant(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		default:
			w.Header().Set("Content-Type", "text/plain")
			io.WriteString(w, r.URL.Path)
		}
	}))
	defer ts.Close()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "exists.txt"), []byte("old"), 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	d := newDownloader(t)
	report, err := d.Batch(t.Context(), fetch.BatchRequest{
		URLs: []string{
			ts.URL + "/one",
			ts.URL + "/missing",
			ts.URL + "/exists",
			"http://192.168.0.10/x",
			ts.URL + "/two",
		},
		Filenames:     []string{"one.txt", "missing.txt", "exists.txt", "private.txt", "two.txt"},
		Template:      fetch.Request{OutputDir: dir},
		RetryCount:    2,
		MaxConcurrent: 20,
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	if report.Total != 5 || report.Success+report.Failed+report.Skipped != report.Total || len(report.Details) != report.Total {
		t.Fatalf("count invariant broken: %+v", report)
	}
	if report.Success != 2 || report.Failed != 2 || report.Skipped != 1 {
		t.Errorf("unexpected counts: success=%d failed=%d skipped=%d", report.Success, report.Failed, report.Skipped)
	}

	wantStatus := []fetch.Status{fetch.StatusSuccess, fetch.StatusFailed, fetch.StatusSkipped, fetch.StatusFailed, fetch.StatusSuccess}
	for i, o := range report.Details {
		if o.Status != wantStatus[i] {
			t.Errorf("item %d: expected %s, got %s", i, wantStatus[i], o.Status)
		}
	}

	old, err := os.ReadFile(filepath.Join(dir, "exists.txt"))
	if err != nil {
		t.Fatalf("reading existing file: %v", err)
	}
	if string(old) != "old" {
		t.Errorf("existing file was overwritten: %q", old)
	}
}

func TestBatch_Cancelled(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	d := newDownloader(t)
	report, err := d.Batch(ctx, fetch.BatchRequest{
		URLs:      []string{ts.URL + "/a", ts.URL + "/b"},
		Filenames: []string{"a", "b"},
		Template:  fetch.Request{OutputDir: t.TempDir()},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	if report.Failed != 2 {
		t.Errorf("expected both items to fail, got %+v", report)
	}
	for _, o := range report.Details {
		if o.Kind != fetch.NetworkError {
			t.Errorf("expected NetworkError, got %s", o.Kind)
		}
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("expected no requests after cancellation, got %d", n)
	}
}

func TestBatchReport_MarshalJSON(t *testing.T) {
	ts := httptest.NewServer(serve("text/plain", []byte("x")))
	defer ts.Close()

	d := newDownloader(t)
	report, err := d.Batch(t.Context(), fetch.BatchRequest{
		URLs:      []string{ts.URL + "/a"},
		Filenames: []string{"a.txt"},
		Template:  fetch.Request{OutputDir: t.TempDir()},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	b, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"id", "total", "success", "failed", "skipped", "duration_seconds", "files_per_second", "details"} {
		if _, ok := got[key]; !ok {
			t.Errorf("expected key %q in %s", key, b)
		}
	}
	if got["id"] != report.ID.String() {
		t.Errorf("expected id %s, got %v", report.ID, got["id"])
	}
}
