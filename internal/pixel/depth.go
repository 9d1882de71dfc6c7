package pixel

import "fmt"

// Depth is the number of 8-bit channels per pixel, which is also the
// number of bytes per pixel.
type Depth int

const (
	Depth1 Depth = 1 // 8 bit, single channel
	Depth2 Depth = 2 // 16 bit, dual channel
	Depth3 Depth = 3 // 24 bit, RGB
	Depth4 Depth = 4 // 32 bit, RGBA
)

// UnsupportedDepthError reports a bit depth outside {8, 16, 24, 32}.
type UnsupportedDepthError struct {
	Bits int
}

func (e *UnsupportedDepthError) Error() string {
	return fmt.Sprintf("pixel: unsupported bit depth %d", e.Bits)
}

// DepthFromBits maps a bitmap bit depth onto a Depth. This is the only
// place a bit depth is classified.
func DepthFromBits(bits int) (Depth, error) {
	switch bits {
	case 8:
		return Depth1, nil
	case 16:
		return Depth2, nil
	case 24:
		return Depth3, nil
	case 32:
		return Depth4, nil
	default:
		return 0, &UnsupportedDepthError{Bits: bits}
	}
}

// IsValid reports whether d is one of the four supported depths.
func (d Depth) IsValid() bool {
	return d >= Depth1 && d <= Depth4
}

// Bits returns the bit depth.
func (d Depth) Bits() int { return int(d) * 8 }

// RowBytes returns the logical byte width of a row of width pixels.
func (d Depth) RowBytes(width int) int { return width * int(d) }
