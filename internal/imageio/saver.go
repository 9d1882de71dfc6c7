package imageio

import (
	"image"

	"github.com/rm-hull/border-filters/internal/codec"
	"github.com/rm-hull/border-filters/internal/pixel"
)

// Saver encodes top-down pixel buffers into files.
type Saver struct {
	lib codec.Library
}

// NewSaver creates a saver.
func NewSaver() *Saver {
	return &Saver{}
}

// Save writes buf to path in format f.
func (s *Saver) Save(path string, buf *pixel.Buffer, f codec.Format) error {
	if !f.SupportsWriting() {
		return &codec.UnsupportedFormatError{Path: path, Format: f, Reason: "no write support"}
	}

	bm, err := toBitmap(buf)
	if err != nil {
		return err
	}
	return s.lib.Save(f, bm, path)
}

// toBitmap allocates an encoder bitmap and mirrors the buffer into it, so
// the buffer's first row becomes the bitmap's last scanline.
func toBitmap(buf *pixel.Buffer) (*codec.Bitmap, error) {
	bm, err := codec.Allocate(buf.Width(), buf.Height(), buf.Depth().Bits())
	if err != nil {
		return nil, &pixel.AllocationError{Width: buf.Width(), Height: buf.Height(), Depth: buf.Depth(), Err: err}
	}

	pixel.CopyRowsFlipped(bm.Bits, bm.Pitch, buf.Data(), buf.Pitch(), buf.Depth().RowBytes(buf.Width()), buf.Height())
	return bm, nil
}

// ToImage converts buf into a standard library image of matching depth.
func ToImage(buf *pixel.Buffer) (image.Image, error) {
	bm, err := toBitmap(buf)
	if err != nil {
		return nil, err
	}
	return bm.Image()
}
