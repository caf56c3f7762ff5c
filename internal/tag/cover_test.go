package tag

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testImagePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeCover(t *testing.T) {
	out, err := NormalizeCover(testImagePNG(t, 800, 600))
	if err != nil {
		t.Fatalf("NormalizeCover: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not JPEG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != CoverSize || bounds.Dy() != CoverSize {
		t.Errorf("got %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), CoverSize, CoverSize)
	}
}

func TestNormalizeCoverRejectsGarbage(t *testing.T) {
	if _, err := NormalizeCover([]byte("not an image")); err == nil {
		t.Error("expected error for non-image input")
	}
}

func TestSetCoverNormalizes(t *testing.T) {
	rec := &Record{}
	if err := rec.SetCover(testImagePNG(t, 64, 64)); err != nil {
		t.Fatalf("SetCover: %v", err)
	}
	if rec.CoverMIME != "image/jpeg" {
		t.Errorf("CoverMIME = %q, want image/jpeg", rec.CoverMIME)
	}
	if _, err := jpeg.Decode(bytes.NewReader(rec.Cover)); err != nil {
		t.Errorf("cover bytes are not JPEG: %v", err)
	}
}
