package fetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/adamwoolhether/fetchguard/client"
	"github.com/adamwoolhether/fetchguard/guard"
	"github.com/adamwoolhether/fetchguard/inspect"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxProbeBytes bounds the body read to decode image dimensions.
const maxProbeBytes = 1 << 20

// FileInfo describes rawURL from its headers, falling back to a short
// ranged GET when the origin refuses HEAD. With imageDetails set and an
// image behind the URL, format and dimensions are decoded from the start
// of the body. Failures are returned as *Error.
func (d *Downloader) FileInfo(ctx context.Context, rawURL string, timeout time.Duration, imageDetails bool) (inspect.FileInfo, error) {
	ctx, span := d.tracer.Start(ctx, "fetch.fileinfo", trace.WithAttributes(attribute.String("url", rawURL)))
	defer span.End()

	info, err := d.fileInfo(ctx, rawURL, timeout, imageDetails)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		d.logger.Warn("file info failed", "url", rawURL, "error", err)
		return inspect.FileInfo{}, err
	}

	return info, nil
}

func (d *Downloader) fileInfo(ctx context.Context, rawURL string, timeout time.Duration, imageDetails bool) (inspect.FileInfo, error) {
	if !guard.ValidateURL(rawURL, d.policy) {
		return inspect.FileInfo{}, &Error{Kind: InvalidURL, Detail: "url is not allowed"}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return inspect.FileInfo{}, &Error{Kind: InvalidURL, Detail: err.Error(), Err: err}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	hdr, head, err := d.probe(ctx, u)
	if err != nil {
		return inspect.FileInfo{}, &Error{Kind: classify(err), Detail: err.Error(), Err: err}
	}

	info := inspect.InspectWith(rawURL, hdr, head, d.safeTypes)

	if !imageDetails || !info.IsImage {
		return info, nil
	}

	req, err := client.Request(ctx, u, http.MethodGet)
	if err != nil {
		return inspect.FileInfo{}, &Error{Kind: InvalidURL, Detail: err.Error(), Err: err}
	}

	var body []byte
	var bodyHdr http.Header
	if err := d.client.Do(req, 0, client.WithResponseHeader(&bodyHdr), client.WithBodyPrefix(&body, maxProbeBytes)); err != nil {
		return inspect.FileInfo{}, &Error{Kind: classify(err), Detail: err.Error(), Err: err}
	}

	details, err := inspect.DecodeImage(bytes.NewReader(body))
	switch {
	case errors.Is(err, inspect.ErrUnsupportedImage):
		if err := inspect.ImageSignature(body); err != nil {
			return inspect.FileInfo{}, &Error{Kind: CorruptImage, Detail: err.Error(), Err: err}
		}
		d.logger.Debug("no decoder for image", "url", rawURL, "content_type", info.ContentType)
	case err != nil:
		return inspect.FileInfo{}, &Error{Kind: CorruptImage, Detail: err.Error(), Err: err}
	default:
		info.Apply(details)
	}

	if info.FileSizeBytes == nil {
		if n, err := strconv.ParseInt(bodyHdr.Get("Content-Length"), 10, 64); err == nil && n >= 0 {
			info.SetSize(n)
		}
	}

	return info, nil
}

// probe fetches response headers with HEAD. Origins answering 405 or 501
// get a ranged GET instead, whose first bytes double as a sniffing sample.
func (d *Downloader) probe(ctx context.Context, u *url.URL) (http.Header, []byte, error) {
	req, err := client.Request(ctx, u, http.MethodHead)
	if err != nil {
		return nil, nil, err
	}

	var hdr http.Header
	err = d.client.Do(req, 0, client.WithResponseHeader(&hdr))
	if err == nil {
		return hdr, nil, nil
	}

	var statusErr *client.UnexpectedStatusError
	if !errors.As(err, &statusErr) || (statusErr.StatusCode != http.StatusMethodNotAllowed && statusErr.StatusCode != http.StatusNotImplemented) {
		return nil, nil, err
	}

	req, err = client.Request(ctx, u, http.MethodGet,
		client.WithHeaders(map[string][]string{"Range": {"bytes=0-" + strconv.Itoa(inspect.SniffLen-1)}}),
	)
	if err != nil {
		return nil, nil, err
	}

	var head []byte
	if err := d.client.Do(req, 0, client.WithResponseHeader(&hdr), client.WithBodyPrefix(&head, inspect.SniffLen)); err != nil {
		return nil, nil, err
	}

	// A 206 carries the partial length; the full size is in Content-Range.
	if total, ok := rangeTotal(hdr.Get("Content-Range")); ok {
		hdr.Set("Content-Length", strconv.FormatInt(total, 10))
	} else if hdr.Get("Content-Range") != "" {
		hdr.Del("Content-Length")
	}

	return hdr, head, nil
}

// rangeTotal extracts the complete length from "bytes 0-99/1234".
func rangeTotal(v string) (int64, bool) {
	_, total, ok := strings.Cut(v, "/")
	if !ok || total == "*" {
		return 0, false
	}

	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}

	return n, true
}
