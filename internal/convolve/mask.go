package convolve

import "math"

// MaskSize enumerates the Gaussian kernel sizes an engine provides.
type MaskSize int

const (
	Mask1x3 MaskSize = iota
	Mask1x5
	Mask3x1
	Mask5x1
	Mask3x3
	Mask5x5
	Mask7x7
	Mask9x9
	Mask11x11
	Mask13x13
	Mask15x15
)

var maskSizes = [...]Size{
	Mask1x3:   {1, 3},
	Mask1x5:   {1, 5},
	Mask3x1:   {3, 1},
	Mask5x1:   {5, 1},
	Mask3x3:   {3, 3},
	Mask5x5:   {5, 5},
	Mask7x7:   {7, 7},
	Mask9x9:   {9, 9},
	Mask11x11: {11, 11},
	Mask13x13: {13, 13},
	Mask15x15: {15, 15},
}

// MaskSizes returns every Gaussian mask size in ordinal order.
func MaskSizes() []MaskSize {
	out := make([]MaskSize, len(maskSizes))
	for i := range out {
		out[i] = MaskSize(i)
	}
	return out
}

// IsValid reports whether m is one of the enumerated sizes.
func (m MaskSize) IsValid() bool {
	return m >= Mask1x3 && m <= Mask15x15
}

// Size returns the kernel width and height. Invalid values report 0x0.
func (m MaskSize) Size() Size {
	if !m.IsValid() {
		return Size{}
	}
	return maskSizes[m]
}

func (m MaskSize) String() string {
	if !m.IsValid() {
		return "invalid"
	}
	return m.Size().String()
}

// Weights returns the normalised horizontal and vertical factors of the
// separable Gaussian kernel for m.
func (m MaskSize) Weights() (kx, ky []float64) {
	s := m.Size()
	return gaussian1D(s.W), gaussian1D(s.H)
}

// gaussian1D samples a Gaussian of n taps, with the sigma conventionally
// derived from the aperture size.
func gaussian1D(n int) []float64 {
	if n <= 1 {
		return []float64{1}
	}
	sigma := 0.3*(float64(n-1)*0.5-1) + 0.8
	c := float64(n / 2)
	w := make([]float64, n)
	sum := 0.0
	for i := range w {
		d := float64(i) - c
		w[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}
