// Package imageio moves images between files and top-down pixel buffers.
//
// The codec hands out bitmaps in on-disk order (bottom scanline first);
// the loader and saver are the only places that reverse the row order.
package imageio

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/rm-hull/border-filters/internal/codec"
	"github.com/rm-hull/border-filters/internal/pixel"
)

// ErrNotSetUp is returned by Load when Setup has not succeeded.
var ErrNotSetUp = errors.New("imageio: loader not set up")

// Descriptor is the metadata found when a file is inspected.
type Descriptor struct {
	Path     string
	Format   codec.Format
	BitDepth int
	FileExt  string
}

// Loader decodes one file into a depth-tagged pixel image.
type Loader struct {
	lib    codec.Library
	bitmap *codec.Bitmap
	desc   Descriptor
}

// NewLoader creates a loader whose decode failures surface as *codec.DecodeError.
func NewLoader() *Loader {
	l := &Loader{}
	l.lib.SetOutputMessage(func(f codec.Format, msg string) error {
		log.Printf("Decoder error (%s): %s", f, msg)
		return &codec.DecodeError{Format: f, Message: msg}
	})
	return l
}

// Setup detects the format of path, decodes it, and classifies its bit depth.
func (l *Loader) Setup(path string) (Descriptor, error) {
	l.bitmap = nil

	format := codec.Detect(path)
	if format == codec.Unknown {
		return Descriptor{}, &codec.UnsupportedFormatError{Path: path, Reason: "no signature or known extension"}
	}
	if !format.SupportsReading() {
		return Descriptor{}, &codec.UnsupportedFormatError{Path: path, Format: format, Reason: "no read support"}
	}

	bm, err := l.lib.Load(format, path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if _, err := pixel.DepthFromBits(bm.BPP); err != nil {
		return Descriptor{}, fmt.Errorf("failed to classify %s: %w", path, err)
	}

	ext := filepath.Ext(path)
	if ext == "" {
		ext = "." + format.String()
	}

	l.bitmap = bm
	l.desc = Descriptor{
		Path:     path,
		Format:   format,
		BitDepth: bm.BPP,
		FileExt:  ext,
	}
	return l.desc, nil
}

// Load copies the decoded bitmap into a new top-down buffer and tags it
// with its depth variant.
func (l *Loader) Load() (pixel.Image, error) {
	if l.bitmap == nil {
		return nil, ErrNotSetUp
	}
	return fromBitmap(l.bitmap)
}

// Open is Setup followed by Load.
func Open(path string) (Descriptor, pixel.Image, error) {
	l := NewLoader()
	desc, err := l.Setup(path)
	if err != nil {
		return Descriptor{}, nil, err
	}
	img, err := l.Load()
	if err != nil {
		return Descriptor{}, nil, err
	}
	return desc, img, nil
}

// fromBitmap reads the bitmap's last scanline first and copies rows
// upward, width*depth bytes at a time.
func fromBitmap(bm *codec.Bitmap) (pixel.Image, error) {
	depth, err := pixel.DepthFromBits(bm.BPP)
	if err != nil {
		return nil, err
	}
	buf, err := pixel.NewBuffer(bm.Width, bm.Height, depth)
	if err != nil {
		return nil, err
	}

	pixel.CopyRowsFlipped(buf.Data(), buf.Pitch(), bm.Bits, bm.Pitch, depth.RowBytes(bm.Width), bm.Height)
	return pixel.Tag(buf)
}
