//go:build integration

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/adamwoolhether/fetchguard"
	"github.com/adamwoolhether/fetchguard/client"
	"github.com/adamwoolhether/fetchguard/config"
	"github.com/adamwoolhether/fetchguard/fetch"
	"github.com/adamwoolhether/fetchguard/inspect"
)

// -------------------------------------------------------------------------
// Types
// -------------------------------------------------------------------------

type downloadReq struct {
	URLs      any    `json:"urls"`
	Filenames any    `json:"filenames"`
	OutputDir string `json:"output_dir"`
	Overwrite bool   `json:"overwrite,omitempty"`
}

type downloadResp struct {
	Mode    string         `json:"mode"`
	Outcome *fetch.Outcome `json:"outcome"`
	Report  *struct {
		Total   int             `json:"total"`
		Success int             `json:"success"`
		Failed  int             `json:"failed"`
		Skipped int             `json:"skipped"`
		Details []fetch.Outcome `json:"details"`
	} `json:"report"`
}

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

func newTestService(t *testing.T) string {
	t.Helper()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	cfg := config.Config{
		LogLevel:       "ERROR",
		MaxFileSizeMB:  1,
		MaxConcurrent:  2,
		DefaultTimeout: 5,
		RetryCount:     1,
		AllowLocalhost: true,
		UserAgent:      "fetchguard-e2e",
		ServerHost:     "localhost",
		ServerPort:     8000,
	}

	svc, err := fetchguard.New(cfg, log)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}

	srv := httptest.NewServer(svc.Handler)
	t.Cleanup(srv.Close)

	return srv.URL
}

func newOrigin(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	img.Set(1, 1, color.White)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	pic := buf.Bytes()

	mux := http.NewServeMux()
	mux.HandleFunc("/photo.png", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "fetchguard-e2e" {
			http.Error(w, "unknown agent", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(pic)))
		w.Write(pic)
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>nope</body></html>"))
	})
	mux.HandleFunc("/huge", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(2<<20))
		w.Write(make([]byte, 2<<20))
	})
	mux.HandleFunc("/escape", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://10.0.0.1/internal", http.StatusFound)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv.URL
}

func newClient(t *testing.T) *client.Client {
	t.Helper()

	c, err := client.Build()
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	return c
}

func mustParseURL(t *testing.T, base, path string) *url.URL {
	t.Helper()

	u, err := url.Parse(base + path)
	if err != nil {
		t.Fatalf("parsing URL %s%s: %v", base, path, err)
	}

	return u
}

func download(t *testing.T, baseURL string, body downloadReq) downloadResp {
	t.Helper()

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("encoding request: %v", err)
	}

	resp, err := http.Post(baseURL+"/v1/downloads", "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("executing request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got downloadResp
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	return got
}

// -------------------------------------------------------------------------
// Tests
// -------------------------------------------------------------------------

func TestE2E_SingleDownload(t *testing.T) {
	baseURL, origin := newTestService(t), newOrigin(t)
	dir := t.TempDir()

	got := download(t, baseURL, downloadReq{
		URLs:      origin + "/photo.png",
		Filenames: "photo.png",
		OutputDir: dir,
	})

	if got.Mode != "single" || got.Outcome == nil {
		t.Fatalf("expected a single outcome, got %+v", got)
	}
	if got.Outcome.Status != fetch.StatusSuccess {
		t.Fatalf("expected success, got %+v", got.Outcome)
	}

	onDisk, err := os.ReadFile(filepath.Join(dir, "photo.png"))
	if err != nil {
		t.Fatalf("reading download: %v", err)
	}
	if int64(len(onDisk)) != got.Outcome.SizeBytes {
		t.Errorf("reported %d bytes, wrote %d", got.Outcome.SizeBytes, len(onDisk))
	}

	again := download(t, baseURL, downloadReq{
		URLs:      origin + "/photo.png",
		Filenames: "photo.png",
		OutputDir: dir,
	})
	if again.Outcome.Status != fetch.StatusSkipped {
		t.Errorf("expected second download to be skipped, got %s", again.Outcome.Status)
	}
}

func TestE2E_BatchGuards(t *testing.T) {
	baseURL, origin := newTestService(t), newOrigin(t)
	dir := t.TempDir()

	got := download(t, baseURL, downloadReq{
		URLs: []string{
			origin + "/photo.png",
			origin + "/page.html",
			origin + "/huge",
			origin + "/escape",
			origin + "/photo.png",
		},
		Filenames: []string{"a.png", "b.html", "c.bin", "d", "../e.png"},
		OutputDir: dir,
	})

	if got.Report == nil {
		t.Fatalf("expected a batch report, got %+v", got)
	}

	want := []fetch.ErrorKind{"", fetch.UnsafeFileType, fetch.FileTooLarge, fetch.InvalidURL, fetch.InvalidPath}
	if len(got.Report.Details) != len(want) {
		t.Fatalf("expected %d details, got %d", len(want), len(got.Report.Details))
	}
	for i, o := range got.Report.Details {
		if o.Kind != want[i] {
			t.Errorf("item %d: expected kind %q, got %q (%s)", i, want[i], o.Kind, o.Message)
		}
	}

	if got.Report.Success != 1 || got.Report.Failed != 4 {
		t.Errorf("unexpected counts: %+v", got.Report)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading output dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "a.png" {
		t.Errorf("expected only a.png in output dir, got %v", entries)
	}
}

func TestE2E_FileInfo(t *testing.T) {
	baseURL, origin := newTestService(t), newOrigin(t)
	c := newClient(t)

	u := mustParseURL(t, baseURL, "/v1/files/info")
	u.RawQuery = url.Values{"url": {origin + "/photo.png"}, "image_details": {"true"}}.Encode()

	req, err := c.Request(context.Background(), u, http.MethodGet)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	var body []byte
	if err := c.Do(req, http.StatusOK, client.WithBodyPrefix(&body, 1<<16)); err != nil {
		t.Fatalf("executing request: %v", err)
	}

	var got inspect.FileInfo
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if !got.IsImage || got.Format != "PNG" || got.Width != 8 || got.Height != 6 {
		t.Errorf("unexpected image details: %+v", got)
	}
}

func TestE2E_ErrorStatus(t *testing.T) {
	baseURL := newTestService(t)
	c := newClient(t)

	u := mustParseURL(t, baseURL, "/v1/files/info")
	u.RawQuery = url.Values{"url": {"http://192.168.1.1/router"}}.Encode()

	req, err := c.Request(context.Background(), u, http.MethodGet)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	err = c.Do(req, http.StatusOK)

	var statusErr *client.UnexpectedStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *UnexpectedStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", statusErr.StatusCode)
	}
}
