package tag

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// CoverSize is the square edge length embedded covers are normalized to.
// Keeping embedded art bounded keeps file growth predictable across every
// container.
const CoverSize = 500

const coverJPEGQuality = 90

// NormalizeCover decodes raw image bytes and re-encodes them as a
// CoverSize x CoverSize JPEG. Every cover write funnels through here before
// the bytes reach a container-specific picture field.
func NormalizeCover(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover image: %w", err)
	}

	resized := resize.Resize(CoverSize, CoverSize, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: coverJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode cover image: %w", err)
	}
	return buf.Bytes(), nil
}

// SetCover installs normalized cover bytes on the record.
func (r *Record) SetCover(data []byte) error {
	normalized, err := NormalizeCover(data)
	if err != nil {
		return err
	}
	r.Cover = normalized
	r.CoverMIME = "image/jpeg"
	return nil
}
