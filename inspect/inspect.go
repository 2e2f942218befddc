// Package inspect classifies remote content from response metadata and the
// leading bytes of the body, and checks the integrity of image payloads.
package inspect

import (
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/adamwoolhether/fetchguard/guard"
	"github.com/gabriel-vasile/mimetype"
)

// SniffLen is how many leading bytes Inspect needs to sniff a type.
const SniffLen = 3072

const octetStream = "application/octet-stream"

// FileInfo describes remote content without downloading all of it.
type FileInfo struct {
	URL           string   `json:"url"`
	ContentType   string   `json:"content_type"`
	FileExtension string   `json:"file_extension,omitempty"`
	IsImage       bool     `json:"is_image"`
	IsSafeType    bool     `json:"is_safe_type"`
	Format        string   `json:"format,omitempty"`
	Width         int      `json:"width,omitempty"`
	Height        int      `json:"height,omitempty"`
	FileSizeBytes *int64   `json:"file_size_bytes,omitempty"`
	FileSizeMB    *float64 `json:"file_size_mb,omitempty"`
	SizeLabel     string   `json:"size_label,omitempty"`
}

// Inspect builds a FileInfo from the response headers of rawURL. head
// holds the first bytes of the body, if any were read, and is used to
// sniff the type when the server does not declare a useful one.
func Inspect(rawURL string, h http.Header, head []byte) FileInfo {
	return InspectWith(rawURL, h, head, DefaultSafeTypes)
}

// InspectWith is Inspect with a caller supplied allow-list.
func InspectWith(rawURL string, h http.Header, head []byte, safe SafeTypes) FileInfo {
	ct := ContentType(h, head)

	info := FileInfo{
		URL:         rawURL,
		ContentType: ct,
		IsImage:     IsImage(ct),
		IsSafeType:  safe.Allows(ct),
	}

	if m := mimetype.Lookup(ct); m != nil && m.Extension() != "" {
		info.FileExtension = m.Extension()
	} else if info.IsImage {
		info.FileExtension = guard.ExtensionFromURL(rawURL)
	}

	if n, err := strconv.ParseInt(h.Get("Content-Length"), 10, 64); err == nil && n >= 0 {
		info.SetSize(n)
	}

	return info
}

// SetSize records a known body size on info.
func (info *FileInfo) SetSize(n int64) {
	mb := math.Round(float64(n)/(1<<20)*100) / 100
	info.FileSizeBytes = &n
	info.FileSizeMB = &mb
	info.SizeLabel = FormatSize(n)
}

// Apply copies decoded image details onto info.
func (info *FileInfo) Apply(d ImageDetails) {
	info.Format = d.Format
	info.Width = d.Width
	info.Height = d.Height
}

// ContentType resolves the media type of a response. The declared
// Content-Type wins unless it is missing or application/octet-stream, in
// which case head is sniffed.
func ContentType(h http.Header, head []byte) string {
	ct := mediaType(h.Get("Content-Type"))
	if (ct == "" || ct == octetStream) && len(head) > 0 {
		if sniffed := mediaType(mimetype.Detect(head).String()); sniffed != "" {
			ct = sniffed
		}
	}

	if ct == "" {
		return octetStream
	}

	return ct
}

// IsImage reports whether ct is an image media type.
func IsImage(ct string) bool {
	return strings.HasPrefix(ct, "image/")
}

func mediaType(v string) string {
	if v == "" {
		return ""
	}

	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		mt, _, _ = strings.Cut(v, ";")
	}

	return strings.ToLower(strings.TrimSpace(mt))
}
