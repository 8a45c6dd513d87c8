package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

func newTestNormalizer() *Normalizer {
	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil))
	return NewNormalizer(logger)
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 10 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 255), G: uint8(y % 255), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

var uploadNameShape = regexp.MustCompile(`^\d+-[0-9a-zA-Z]{7}-[a-zA-Z0-9.]+\.[a-z]+$`)

func TestNormalizeRenames(t *testing.T) {
	n := newTestNormalizer()

	out := n.Normalize("My Photo (1).png", encodePNG(t, 100, 50))

	if !uploadNameShape.MatchString(out.Name) {
		t.Fatalf("unexpected upload name %q", out.Name)
	}
	if strings.Contains(out.Name, " ") || strings.Contains(out.Name, "(") {
		t.Fatalf("upload name not sanitized: %q", out.Name)
	}
}

func TestNormalizeConvertsToJPEG(t *testing.T) {
	n := newTestNormalizer()

	out := n.Normalize("photo.png", encodePNG(t, 100, 50))

	if !strings.HasSuffix(out.Name, ".jpg") {
		t.Fatalf("expected .jpg output, got %q", out.Name)
	}
	if out.ContentType != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", out.ContentType)
	}
	if _, err := imaging.Decode(bytes.NewReader(out.Data)); err != nil {
		t.Fatalf("output is not a decodable image: %v", err)
	}
}

func TestNormalizeBoundsDimensions(t *testing.T) {
	n := newTestNormalizer()

	out := n.Normalize("wide.png", encodePNG(t, 2500, 400))

	img, err := imaging.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > 1920 || bounds.Dy() > 1920 {
		t.Fatalf("output exceeds max dimension: %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestNormalizeCorruptInputFallsBack(t *testing.T) {
	n := newTestNormalizer()

	raw := []byte("not an image at all")
	out := n.Normalize("broken.jpg", raw)

	if !bytes.Equal(out.Data, raw) {
		t.Fatal("corrupt input should pass through unchanged")
	}
	if !strings.HasSuffix(out.Name, ".jpg") {
		t.Fatalf("expected original extension kept, got %q", out.Name)
	}
}

func TestNormalizeHEICFallback(t *testing.T) {
	n := newTestNormalizer()

	// Not a real HEIC container: conversion and compression both fail, so
	// the original bytes survive under the original extension.
	raw := []byte{0x00, 0x01, 0x02, 0x03}
	out := n.Normalize("IMG_0001.HEIC", raw)

	if !bytes.Equal(out.Data, raw) {
		t.Fatal("undecodable heic should pass through unchanged")
	}
	if !strings.HasSuffix(out.Name, ".heic") {
		t.Fatalf("expected .heic extension kept, got %q", out.Name)
	}
}

func TestNormalizeNeverPanics(t *testing.T) {
	n := newTestNormalizer()

	inputs := [][]byte{nil, {}, []byte("x"), encodePNG(t, 1, 1)}
	for _, in := range inputs {
		out := n.Normalize("a.png", in)
		if out.Name == "" {
			t.Fatal("normalize must always name the output")
		}
	}
}
