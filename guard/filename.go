package guard

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"
)

const (
	maxFilenameLen = 100
	maxStemLen     = 95
	defaultExt     = ".jpg"
)

var filenameReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	`"`, "_",
	"/", "_",
	`\`, "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// SanitizeFilename replaces characters that are unsafe in filenames with
// underscores. Names longer than 100 characters keep their extension and
// have the stem cut to 95 characters.
func SanitizeFilename(name string) string {
	name = filenameReplacer.Replace(name)

	if utf8.RuneCountInString(name) <= maxFilenameLen {
		return name
	}

	ext := path.Ext(name)
	stem := []rune(strings.TrimSuffix(name, ext))
	if len(stem) > maxStemLen {
		stem = stem[:maxStemLen]
	}

	return string(stem) + ext
}

// ExtensionFromURL guesses a file extension from the URL path. Common
// image extensions are normalized, ".unknown" is ignored and ".jpg" is
// the fallback.
func ExtensionFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultExt
	}

	p := strings.ToLower(u.Path)

	switch {
	case strings.HasSuffix(p, ".jpg"), strings.HasSuffix(p, ".jpeg"):
		return ".jpg"
	case strings.HasSuffix(p, ".png"):
		return ".png"
	case strings.HasSuffix(p, ".gif"):
		return ".gif"
	case strings.HasSuffix(p, ".webp"):
		return ".webp"
	}

	if ext := path.Ext(p); ext != "" && ext != "." && ext != ".unknown" {
		return ext
	}

	return defaultExt
}

// FilenameFromURL derives a local filename for rawURL. The last path
// segment is used when it looks like a filename, otherwise a numbered
// name such as "image_0003.png" is generated from index.
func FilenameFromURL(rawURL string, index int) string {
	var base string
	if u, err := url.Parse(rawURL); err == nil {
		base = u.Path[strings.LastIndex(u.Path, "/")+1:]
	}

	if base != "" && strings.Contains(base, ".") && utf8.RuneCountInString(base) < maxFilenameLen {
		return SanitizeFilename(base)
	}

	return fmt.Sprintf("image_%04d%s", index, ExtensionFromURL(rawURL))
}
