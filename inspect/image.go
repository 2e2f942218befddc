package inspect

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrCorruptImage is returned when image data does not decode.
	ErrCorruptImage = errors.New("corrupt image")
	// ErrUnsupportedImage is returned for image formats without a registered decoder.
	ErrUnsupportedImage = errors.New("unsupported image format")
)

const svgType = "image/svg+xml"

// ImageDetails holds the header level properties of an image.
type ImageDetails struct {
	Format string
	Width  int
	Height int
}

// DecodeImage reads just enough of r to report format and dimensions.
func DecodeImage(r io.Reader) (ImageDetails, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return ImageDetails{}, ErrUnsupportedImage
		}
		return ImageDetails{}, fmt.Errorf("%w: %w", ErrCorruptImage, err)
	}

	return ImageDetails{
		Format: strings.ToUpper(format),
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// ImageSignature reports ErrCorruptImage unless the signature of b
// identifies an image. It is the fallback when no decoder recognises b.
func ImageSignature(b []byte) error {
	m := mimetype.Detect(b)
	if !IsImage(mediaType(m.String())) {
		return fmt.Errorf("%w: content is %s", ErrCorruptImage, m.String())
	}

	return nil
}

// VerifyImage fully decodes the image in rs. SVG documents are checked by
// signature only. Formats the process cannot decode pass when their
// signature still identifies them as an image.
func VerifyImage(rs io.ReadSeeker, contentType string) error {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding: %w", err)
	}

	if contentType == svgType {
		m, err := mimetype.DetectReader(rs)
		if err != nil {
			return fmt.Errorf("sniffing svg: %w", err)
		}
		if !m.Is(svgType) {
			return fmt.Errorf("%w: content is %s", ErrCorruptImage, m.String())
		}
		return nil
	}

	_, _, err := image.Decode(rs)
	if err == nil {
		return nil
	}

	if !errors.Is(err, image.ErrFormat) {
		return fmt.Errorf("%w: %w", ErrCorruptImage, err)
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding: %w", err)
	}

	m, err := mimetype.DetectReader(rs)
	if err != nil {
		return fmt.Errorf("sniffing image: %w", err)
	}
	if !IsImage(mediaType(m.String())) {
		return fmt.Errorf("%w: content is %s", ErrCorruptImage, m.String())
	}

	return nil
}

// FormatSize renders n bytes for humans.
func FormatSize(n int64) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	}
}
