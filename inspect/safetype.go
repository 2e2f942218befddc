package inspect

import "strings"

// SafeTypes is an allow-list of media types. Entries ending in "/" or "."
// match by prefix, all others must match exactly.
type SafeTypes []string

// DefaultSafeTypes covers media, plain documents and common archives.
// Markup that browsers execute (text/html, javascript) and opaque binaries
// are left out.
var DefaultSafeTypes = SafeTypes{
	"image/",
	"audio/",
	"video/",
	"font/",
	"text/plain",
	"text/csv",
	"text/markdown",
	"text/xml",
	"application/pdf",
	"application/json",
	"application/xml",
	"application/rtf",
	"application/zip",
	"application/gzip",
	"application/x-gzip",
	"application/x-tar",
	"application/x-7z-compressed",
	"application/msword",
	"application/vnd.ms-excel",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.",
	"application/vnd.oasis.opendocument.",
	"application/epub+zip",
}

// IsSafeType reports whether ct is on DefaultSafeTypes.
func IsSafeType(ct string) bool {
	return DefaultSafeTypes.Allows(ct)
}

// Allows reports whether ct is on the list.
func (s SafeTypes) Allows(ct string) bool {
	ct = strings.ToLower(ct)
	for _, entry := range s {
		if strings.HasSuffix(entry, "/") || strings.HasSuffix(entry, ".") {
			if strings.HasPrefix(ct, entry) {
				return true
			}
			continue
		}

		if ct == entry {
			return true
		}
	}

	return false
}
