package client_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adamwoolhether/fetchguard/client"
)

func ExampleBuild() {
	c, err := client.Build(
		client.WithTimeout(10*time.Second),
		client.WithUserAgent("example/1.0"),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	_ = c
	fmt.Println("client built")
	// Output: client built
}

func ExampleURL() {
	u := client.URL("https", "example.com", "/api/v1",
		client.WithPort(8443),
		client.WithQueryStrings(map[string]string{"key": "value"}),
	)

	fmt.Println(u.String())
	// Output: https://example.com:8443/api/v1?key=value
}

func ExampleClient_Do() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok"}`)
	}))
	defer ts.Close()

	c, _ := client.Build()
	u, _ := url.Parse(ts.URL)
	req, _ := client.Request(context.Background(), u, http.MethodGet)

	var head []byte
	if err := c.Do(req, http.StatusOK, client.WithBodyPrefix(&head, 6)); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(string(head))
	// Output: {"stat
}

func ExampleClient_Download() {
	body := []byte("file contents")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}))
	defer ts.Close()

	dir, _ := os.MkdirTemp("", "example")
	defer os.RemoveAll(dir)

	c, _ := client.Build()
	u, _ := url.Parse(ts.URL)
	req, _ := client.Request(context.Background(), u, http.MethodGet)

	h := sha256.New()
	n, err := c.Download(req, 0, filepath.Join(dir, "file.txt"),
		client.WithMaxBytes(1<<20),
		client.WithHash(h),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(n, hex.EncodeToString(h.Sum(nil))[:8])
	// Output: 13 7bb6f9f7
}

func ExampleWithResponseHeader() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
	}))
	defer ts.Close()

	c, _ := client.Build()
	u, _ := url.Parse(ts.URL)
	req, _ := client.Request(context.Background(), u, http.MethodHead)

	var hdr http.Header
	if err := c.Do(req, http.StatusOK, client.WithResponseHeader(&hdr)); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(hdr.Get("Content-Type"))
	// Output: image/png
}
