// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

// pngBytes encodes a tiny solid PNG for tests.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestInspect(t *testing.T) {
	t.Run("accepts png and reports dimensions", func(t *testing.T) {
		info, err := Inspect(pngBytes(t, 3, 2), "preview.png")
		if err != nil {
			t.Fatalf("Inspect: %v", err)
		}
		if info.ContentType != "image/png" {
			t.Errorf("ContentType = %q, want image/png", info.ContentType)
		}
		if info.Width != 3 || info.Height != 2 {
			t.Errorf("dimensions = %dx%d, want 3x2", info.Width, info.Height)
		}
	})

	t.Run("rejects text", func(t *testing.T) {
		_, err := Inspect([]byte("hello, this is not an image"), "notes.txt")
		if !errors.Is(err, ErrNotImage) {
			t.Errorf("err = %v, want ErrNotImage", err)
		}
	})

	t.Run("rejects json workflow files", func(t *testing.T) {
		_, err := Inspect([]byte(`{"nodes":[]}`), "workflow.json")
		if !errors.Is(err, ErrNotImage) {
			t.Errorf("err = %v, want ErrNotImage", err)
		}
	})

	t.Run("rejects truncated png", func(t *testing.T) {
		data := pngBytes(t, 4, 4)
		_, err := Inspect(data[:20], "broken.png")
		if !errors.Is(err, ErrNotImage) {
			t.Errorf("err = %v, want ErrNotImage", err)
		}
	})

	t.Run("rejects oversize payload", func(t *testing.T) {
		data := make([]byte, MaxImageBytes+1)
		copy(data, pngBytes(t, 1, 1))
		_, err := Inspect(data, "huge.png")
		if !errors.Is(err, ErrTooLarge) {
			t.Errorf("err = %v, want ErrTooLarge", err)
		}
	})

	t.Run("rejects empty payload", func(t *testing.T) {
		_, err := Inspect(nil, "empty.png")
		if !errors.Is(err, ErrEmpty) {
			t.Errorf("err = %v, want ErrEmpty", err)
		}
	})

	t.Run("svg by extension", func(t *testing.T) {
		svg := []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`)
		info, err := Inspect(svg, "logo.svg")
		if err != nil {
			t.Fatalf("Inspect: %v", err)
		}
		if info.ContentType != "image/svg+xml" {
			t.Errorf("ContentType = %q, want image/svg+xml", info.ContentType)
		}
	})
}

func TestDataURL(t *testing.T) {
	data := pngBytes(t, 1, 1)
	got := DataURL("image/png", data)

	prefix := "data:image/png;base64,"
	if !strings.HasPrefix(got, prefix) {
		t.Fatalf("DataURL prefix: got %q", got[:min(len(got), 30)])
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got, prefix))
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Error("decoded payload does not match input")
	}
	if !IsDataURL(got) {
		t.Error("IsDataURL should recognise its own output")
	}
	if IsDataURL("https://example.com/a.png") {
		t.Error("IsDataURL should reject http links")
	}
}
