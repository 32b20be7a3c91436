package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"mime"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

var (
	// ErrEmptyPayload is returned when there is nothing to decode.
	ErrEmptyPayload = errors.New("payload is empty")
	// ErrNotImage is returned when the decoded bytes are not a supported raster format.
	ErrNotImage = errors.New("payload is not a supported image")
	// ErrImageTooLarge is returned when the header declares more pixels than MaxDecodePixels.
	ErrImageTooLarge = errors.New("image exceeds decode limit")
)

// MaxDecodePixels caps width*height of images that are fully decoded. The
// pixel buffer is sized from the header, so a few hundred bytes can claim
// gigabytes.
const MaxDecodePixels = 25_000_000

// Decode turns a base64 payload into raw bytes. A data URL prefix
// ("data:image/png;base64,") is accepted and dropped, and so is missing padding.
func Decode(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	if s == "" {
		return nil, ErrEmptyPayload
	}

	b, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return b, nil
	}
	if b, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
		return b, nil
	}
	return nil, fmt.Errorf("decode base64 payload: %w", err)
}

// Dimensions decodes payload as a raster image and describes it as "WxH px".
func Dimensions(payload string) (string, error) {
	b, err := Decode(payload)
	if err != nil {
		return "", err
	}
	return DimensionsOf(b)
}

// DimensionsOf is Dimensions over already decoded bytes. The size comes from
// the image header; pixel data is decoded only for images within
// MaxDecodePixels, so truncated or corrupt files are still rejected.
func DimensionsOf(b []byte) (string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("%w: empty bounds %dx%d", ErrNotImage, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	bounds := img.Bounds()
	return fmt.Sprintf("%dx%d px", bounds.Dx(), bounds.Dy()), nil
}

// ContentType sniffs the MIME type of b and suggests a file extension for it.
func ContentType(b []byte) (contentType, ext string) {
	contentType = http.DetectContentType(b)
	base, _, _ := strings.Cut(contentType, ";")
	switch base {
	case "image/jpeg":
		return base, ".jpg"
	case "application/octet-stream":
		return base, ".bin"
	}
	if exts, err := mime.ExtensionsByType(base); err == nil && len(exts) > 0 {
		return base, exts[0]
	}
	return base, ".bin"
}
