// Package pixel holds the host-side rasters the filter pipeline works on.
//
// A Buffer owns one contiguous byte region laid out top-down, row by row,
// with an explicit pitch that may include alignment padding. Data only ever
// moves between buffers through pitch-aware row copies of the logical row
// width, so padding bytes are never read or written.
package pixel

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("pixel: invalid dimensions")

	// ErrInvalidPitch is returned when pitch is less than width * bytes per pixel.
	ErrInvalidPitch = errors.New("pixel: pitch too small for width")

	// ErrDataTooSmall is returned when provided data is smaller than pitch * height.
	ErrDataTooSmall = errors.New("pixel: data buffer too small")

	// ErrGeometryMismatch is returned when two buffers differ in width, height or depth.
	ErrGeometryMismatch = errors.New("pixel: buffer geometry mismatch")
)

// AllocationError reports a buffer that could not be produced.
type AllocationError struct {
	Width, Height int
	Depth         Depth
	Err           error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("pixel: cannot allocate %dx%d buffer at %d bytes/pixel: %v", e.Width, e.Height, e.Depth, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// Buffer is a top-down raster of fixed bytes per pixel.
type Buffer struct {
	data   []byte
	width  int
	height int
	pitch  int
	depth  Depth
}

// NewBuffer allocates a tightly packed buffer (pitch == width * depth).
func NewBuffer(width, height int, depth Depth) (*Buffer, error) {
	if !depth.IsValid() {
		return nil, &UnsupportedDepthError{Bits: int(depth) * 8}
	}
	return NewBufferWithPitch(width, height, depth, depth.RowBytes(width))
}

// NewBufferWithPitch allocates a buffer whose rows are pitch bytes apart.
func NewBufferWithPitch(width, height int, depth Depth, pitch int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, &AllocationError{Width: width, Height: height, Depth: depth, Err: ErrInvalidDimensions}
	}
	if !depth.IsValid() {
		return nil, &UnsupportedDepthError{Bits: int(depth) * 8}
	}
	if pitch < depth.RowBytes(width) {
		return nil, &AllocationError{Width: width, Height: height, Depth: depth, Err: ErrInvalidPitch}
	}
	return &Buffer{
		data:   make([]byte, pitch*height),
		width:  width,
		height: height,
		pitch:  pitch,
		depth:  depth,
	}, nil
}

// FromRaw wraps existing data without copying. The caller gives up
// ownership of data to the returned Buffer.
func FromRaw(data []byte, width, height int, depth Depth, pitch int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !depth.IsValid() {
		return nil, &UnsupportedDepthError{Bits: int(depth) * 8}
	}
	if pitch < depth.RowBytes(width) {
		return nil, ErrInvalidPitch
	}
	if len(data) < pitch*height {
		return nil, ErrDataTooSmall
	}
	return &Buffer{
		data:   data[:pitch*height],
		width:  width,
		height: height,
		pitch:  pitch,
		depth:  depth,
	}, nil
}

// Width returns the image width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the image height in pixels.
func (b *Buffer) Height() int { return b.height }

// Pitch returns the number of bytes between the starts of consecutive rows.
func (b *Buffer) Pitch() int { return b.pitch }

// Depth returns the number of bytes per pixel.
func (b *Buffer) Depth() Depth { return b.depth }

// Data returns the whole backing region, padding included.
func (b *Buffer) Data() []byte { return b.data }

// RowBytes returns the logical bytes of row y, without padding.
// Returns nil if y is out of bounds.
func (b *Buffer) RowBytes(y int) []byte {
	if y < 0 || y >= b.height {
		return nil
	}
	start := y * b.pitch
	return b.data[start : start+b.depth.RowBytes(b.width)]
}

// PixelOffset returns the byte offset of pixel (x, y), or -1 when out of bounds.
func (b *Buffer) PixelOffset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return y*b.pitch + x*int(b.depth)
}

// At returns the bytes of pixel (x, y), or nil when out of bounds.
func (b *Buffer) At(x, y int) []byte {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return nil
	}
	return b.data[off : off+int(b.depth)]
}

// Set writes the bytes of pixel (x, y). Extra bytes in px are ignored.
func (b *Buffer) Set(x, y int, px ...byte) {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return
	}
	copy(b.data[off:off+int(b.depth)], px)
}

// CopyTo copies every row of b into dst, honouring both pitches.
func (b *Buffer) CopyTo(dst *Buffer) error {
	if !b.SameGeometry(dst) {
		return ErrGeometryMismatch
	}
	CopyRows(dst.data, dst.pitch, b.data, b.pitch, b.depth.RowBytes(b.width), b.height)
	return nil
}

// SameGeometry reports whether o has the same width, height and depth as b.
func (b *Buffer) SameGeometry(o *Buffer) bool {
	return o != nil && b.width == o.width && b.height == o.height && b.depth == o.depth
}

// CopyRows copies rows of rowBytes bytes from src to dst, top to bottom.
func CopyRows(dst []byte, dstPitch int, src []byte, srcPitch int, rowBytes, rows int) {
	for y := 0; y < rows; y++ {
		copy(dst[y*dstPitch:y*dstPitch+rowBytes], src[y*srcPitch:y*srcPitch+rowBytes])
	}
}

// CopyRowsFlipped copies rows of rowBytes bytes from src to dst, reversing
// their order: the last row of src lands in the first row of dst.
func CopyRowsFlipped(dst []byte, dstPitch int, src []byte, srcPitch int, rowBytes, rows int) {
	srcLine := (rows - 1) * srcPitch
	dstLine := 0
	for y := 0; y < rows; y++ {
		copy(dst[dstLine:dstLine+rowBytes], src[srcLine:srcLine+rowBytes])
		srcLine -= srcPitch
		dstLine += dstPitch
	}
}
