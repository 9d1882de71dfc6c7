package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ErrInvalidBitmap is returned for non-positive dimensions or an unsupported bit depth.
var ErrInvalidBitmap = errors.New("codec: invalid bitmap geometry")

// Bitmap is a decoded raster in on-disk row order: Bits starts with the
// bottom scanline and each scanline is Pitch bytes long.
type Bitmap struct {
	Bits   []byte
	Width  int
	Height int
	Pitch  int
	BPP    int
}

// Allocate creates a zeroed bitmap whose pitch is rounded up to 4 bytes.
func Allocate(width, height, bpp int) (*Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBitmap, width, height)
	}
	switch bpp {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrInvalidBitmap, bpp)
	}
	pitch := (width*bpp/8 + 3) &^ 3
	return &Bitmap{
		Bits:   make([]byte, pitch*height),
		Width:  width,
		Height: height,
		Pitch:  pitch,
		BPP:    bpp,
	}, nil
}

// Scanline returns scanline n counted from the bottom of the image,
// trimmed to the logical row width.
func (b *Bitmap) Scanline(n int) []byte {
	start := n * b.Pitch
	return b.Bits[start : start+b.Width*b.BPP/8]
}

// FromImage converts a decoded image into a bottom-up bitmap. Gray images
// become 8 bit, 16-bit gray becomes 16 bit, everything else is 24 bit
// when fully opaque and 32 bit otherwise.
func FromImage(img image.Image, gray bool) (*Bitmap, error) {
	r := img.Bounds()
	w, h := r.Dx(), r.Dy()

	switch src := img.(type) {
	case *image.Gray16:
		bm, err := Allocate(w, h, 16)
		if err != nil {
			return nil, err
		}
		for y := 0; y < h; y++ {
			line := bm.Scanline(h - 1 - y)
			row := src.Pix[src.PixOffset(r.Min.X, r.Min.Y+y):]
			copy(line, row[:w*2])
		}
		return bm, nil
	}

	if gray || img.ColorModel() == color.GrayModel {
		g, ok := img.(*image.Gray)
		if !ok {
			g = image.NewGray(image.Rect(0, 0, w, h))
			draw.Draw(g, g.Bounds(), img, r.Min, draw.Src)
		}
		bm, err := Allocate(w, h, 8)
		if err != nil {
			return nil, err
		}
		gr := g.Bounds()
		for y := 0; y < h; y++ {
			copy(bm.Scanline(h-1-y), g.Pix[g.PixOffset(gr.Min.X, gr.Min.Y+y):][:w])
		}
		return bm, nil
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(nrgba, nrgba.Bounds(), img, r.Min, draw.Src)
	}

	bpp := 32
	if nrgba.Opaque() {
		bpp = 24
	}
	bm, err := Allocate(w, h, bpp)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		line := bm.Scanline(h - 1 - y)
		row := nrgba.Pix[y*nrgba.Stride:]
		if bpp == 32 {
			copy(line, row[:w*4])
			continue
		}
		for x := 0; x < w; x++ {
			copy(line[x*3:x*3+3], row[x*4:x*4+3])
		}
	}
	return bm, nil
}

// Image converts the bitmap back into a top-down image.Image suitable for
// the standard encoders.
func (b *Bitmap) Image() (image.Image, error) {
	rect := image.Rect(0, 0, b.Width, b.Height)
	switch b.BPP {
	case 8:
		img := image.NewGray(rect)
		for y := 0; y < b.Height; y++ {
			copy(img.Pix[y*img.Stride:], b.Scanline(b.Height-1-y))
		}
		return img, nil
	case 16:
		img := image.NewGray16(rect)
		for y := 0; y < b.Height; y++ {
			line := b.Scanline(b.Height - 1 - y)
			for x := 0; x < b.Width; x++ {
				v := binary.BigEndian.Uint16(line[x*2:])
				img.SetGray16(x, y, color.Gray16{Y: v})
			}
		}
		return img, nil
	case 24:
		img := image.NewRGBA(rect)
		for y := 0; y < b.Height; y++ {
			line := b.Scanline(b.Height - 1 - y)
			row := img.Pix[y*img.Stride:]
			for x := 0; x < b.Width; x++ {
				copy(row[x*4:x*4+3], line[x*3:x*3+3])
				row[x*4+3] = 0xff
			}
		}
		return img, nil
	case 32:
		img := image.NewNRGBA(rect)
		for y := 0; y < b.Height; y++ {
			copy(img.Pix[y*img.Stride:], b.Scanline(b.Height-1-y))
		}
		return img, nil
	default:
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrInvalidBitmap, b.BPP)
	}
}
