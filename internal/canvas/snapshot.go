package canvas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode reports image bytes that could not be decoded.
var ErrDecode = errors.New("decode image")

var encoder = png.Encoder{CompressionLevel: png.BestSpeed}

// Snapshot is an immutable PNG encoding of a surface at one instant.
type Snapshot struct {
	data []byte
}

// Encode captures img as a Snapshot.
func Encode(img image.Image) (Snapshot, error) {
	var buf bytes.Buffer
	if err := encoder.Encode(&buf, img); err != nil {
		return Snapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}
	return Snapshot{data: buf.Bytes()}, nil
}

// Bytes returns a copy of the encoded image.
func (s Snapshot) Bytes() []byte {
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

// Len reports the encoded size in bytes.
func (s Snapshot) Len() int { return len(s.data) }

// IsZero reports whether the snapshot holds no data.
func (s Snapshot) IsZero() bool { return len(s.data) == 0 }

// Equal reports whether both snapshots hold identical bytes.
func (s Snapshot) Equal(o Snapshot) bool { return bytes.Equal(s.data, o.data) }

// WriteTo writes the PNG bytes to w.
func (s Snapshot) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.data)
	return int64(n), err
}

// Decode returns the snapshot's pixels.
func (s Snapshot) Decode() (*image.RGBA, error) {
	return Decode(s.data)
}

// Limits on decoded images. Headers are checked before any pixel data is
// read, so a small file declaring huge dimensions is rejected cheaply.
const (
	MaxImageSide   = 16384
	MaxImagePixels = 1 << 25
)

// DecodeImage parses PNG, JPEG, GIF, BMP, TIFF or WebP data. The result keeps
// the decoder's native pixel format and bounds. Failures wrap ErrDecode.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrDecode)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty %s image", ErrDecode, format)
	}
	if cfg.Width > MaxImageSide || cfg.Height > MaxImageSide || cfg.Width*cfg.Height > MaxImagePixels {
		return nil, fmt.Errorf("%w: %s image %dx%d exceeds limit", ErrDecode, format, cfg.Width, cfg.Height)
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty %s image", ErrDecode, format)
	}
	return src, nil
}

// Decode is DecodeImage converted to an RGBA image whose bounds start at the
// origin.
func Decode(data []byte) (*image.RGBA, error) {
	src, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	if rgba, ok := src.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba, nil
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	return rgba, nil
}
