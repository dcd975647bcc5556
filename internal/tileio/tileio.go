// Package tileio encodes and decodes the RGBA tile images written to disk:
// a small Encoder interface with a mandatory PNG implementation and a
// pure-Go WebP implementation (via gen2brain/webp) as an alternative
// output format selectable at pyramid-build time.
package tileio

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/webp"
)

// Encoder turns an in-memory tile image into the bytes written to disk.
type Encoder interface {
	Encode(img image.Image) ([]byte, error)
	Format() string
	FileExtension() string
}

// NewEncoder returns the Encoder for format ("png" or "webp").
func NewEncoder(format string, quality int) (Encoder, error) {
	switch format {
	case "png", "":
		return PNGEncoder{}, nil
	case "webp":
		if quality <= 0 {
			quality = 90
		}
		return WebPEncoder{Quality: quality}, nil
	default:
		return nil, fmt.Errorf("tileio: unsupported tile format %q (supported: png, webp)", format)
	}
}

// PNGEncoder encodes tiles as RGBA PNG, the mandatory tile image format.
type PNGEncoder struct{}

func (PNGEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("tileio: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (PNGEncoder) Format() string        { return "png" }
func (PNGEncoder) FileExtension() string { return ".png" }

// WebPEncoder encodes tiles as WebP, a smaller optional format for preview
// and archival use.
type WebPEncoder struct {
	Quality int
}

func (e WebPEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, webp.Options{Quality: float32(e.Quality)}); err != nil {
		return nil, fmt.Errorf("tileio: encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

func (e WebPEncoder) Format() string        { return "webp" }
func (e WebPEncoder) FileExtension() string { return ".webp" }

// DecodeImage decodes tile bytes back into an image.Image, dispatching on
// the named format.
func DecodeImage(data []byte, format string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch format {
	case "png", "":
		return png.Decode(r)
	case "webp":
		return webp.Decode(r)
	default:
		return nil, fmt.Errorf("tileio: unsupported decode format %q", format)
	}
}
