// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging validates uploaded preview images and converts them into
// base64 data URLs that can be stored inline with a workflow.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"net/http"
	"strings"

	_ "golang.org/x/image/webp" // register WebP decoder
)

// MaxImageBytes is the largest accepted preview image (5 MB).
const MaxImageBytes = 5 << 20

// maxImagePixels caps decoded dimensions to refuse decompression bombs.
const maxImagePixels = 50_000_000

var (
	// ErrNotImage is returned when the payload is not an image.
	ErrNotImage = errors.New("imaging: not an image")

	// ErrTooLarge is returned when the payload exceeds MaxImageBytes.
	ErrTooLarge = errors.New("imaging: image too large")

	// ErrEmpty is returned for a zero-length payload.
	ErrEmpty = errors.New("imaging: empty payload")
)

// Info describes an accepted image.
type Info struct {
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// rasterTypes are decoded to confirm the payload really is what its bytes
// claim and to report dimensions.
var rasterTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Inspect sniffs the payload type and checks the size limit. Raster
// formats must also decode their header.
func Inspect(data []byte, filename string) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrEmpty
	}
	if len(data) > MaxImageBytes {
		return Info{}, ErrTooLarge
	}

	ct := http.DetectContentType(data)
	// DetectContentType reports SVG as XML or plain text.
	if strings.HasSuffix(strings.ToLower(filename), ".svg") &&
		(strings.Contains(ct, "xml") || strings.HasPrefix(ct, "text/plain")) {
		ct = "image/svg+xml"
	}
	if !strings.HasPrefix(ct, "image/") {
		return Info{}, fmt.Errorf("%w: detected %s", ErrNotImage, ct)
	}

	info := Info{ContentType: ct, Size: len(data)}
	if !rasterTypes[ct] {
		return info, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if cfg.Width*cfg.Height > maxImagePixels {
		return Info{}, fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrTooLarge, cfg.Width, cfg.Height)
	}
	info.Width = cfg.Width
	info.Height = cfg.Height
	return info, nil
}

// DataURL encodes data as an RFC 2397 base64 data URL.
func DataURL(contentType string, data []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(contentType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(contentType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// IsDataURL reports whether s is an inline data URL rather than a link.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}
