// Package convolve defines the contract of the border-extended convolution
// engine and provides two implementations of it.
//
// An engine filters a region of interest of a source plane into a
// destination plane of the same size. Samples that fall outside the source
// are taken from the nearest edge pixel along each axis (replicate border).
// Channels are filtered independently.
package convolve

import (
	"errors"
	"fmt"
)

// ErrFallback indicates an engine cannot honour the given parameters. The
// caller should rerun the call on the native engine.
var ErrFallback = errors.New("convolve: falling back to native engine")

// ErrInvalidParams is returned for inconsistent sizes, masks or planes.
var ErrInvalidParams = errors.New("convolve: invalid parameters")

// Size is a width and height in pixels.
type Size struct {
	W, H int
}

// Point is a pixel position or displacement.
type Point struct {
	X, Y int
}

func (s Size) String() string  { return fmt.Sprintf("%dx%d", s.W, s.H) }
func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// BorderType selects how samples outside the source are produced.
type BorderType int

const (
	// BorderReplicate reuses the nearest in-bounds pixel along each axis.
	BorderReplicate BorderType = iota + 1
)

// Plane is a pitched byte region.
type Plane struct {
	Data  []byte
	Pitch int
}

// Region is the part of the call shared by every filter: the source, the
// destination ROI, the sampling offset, and the border policy.
type Region struct {
	Src       Plane
	SrcSize   Size
	SrcOffset Point
	Dst       Plane
	DstSize   Size
	Channels  int
	Border    BorderType
}

// BoxParams describes a box filter call. Anchor is the mask pixel aligned
// with each output pixel.
type BoxParams struct {
	Region
	Mask   Size
	Anchor Point
}

// GaussParams describes a Gaussian filter call. The kernel is centred on
// the mask; there is no anchor.
type GaussParams struct {
	Region
	Mask MaskSize
}

// Engine executes border-extended convolutions.
type Engine interface {
	// Name returns the engine name, e.g. "native" or "bild".
	Name() string

	// FilterBoxBorder writes the mean of the Mask-shaped window around
	// each ROI pixel, rounded half up.
	FilterBoxBorder(p BoxParams) error

	// FilterGaussBorder writes the Gaussian-weighted sum of the Mask-shaped
	// window centred on each ROI pixel, rounded to nearest.
	FilterGaussBorder(p GaussParams) error
}

// New returns the engine registered under name.
func New(name string) (Engine, error) {
	switch name {
	case "", "native":
		return Native{}, nil
	case "bild":
		return Bild{}, nil
	default:
		return nil, fmt.Errorf("convolve: unknown engine %q", name)
	}
}

// Names lists the available engines.
func Names() []string {
	return []string{"native", "bild"}
}

func (r Region) validate() error {
	switch {
	case r.Border != BorderReplicate:
		return fmt.Errorf("%w: unsupported border type %d", ErrInvalidParams, r.Border)
	case r.Channels < 1 || r.Channels > 4:
		return fmt.Errorf("%w: %d channels", ErrInvalidParams, r.Channels)
	case r.SrcSize.W <= 0 || r.SrcSize.H <= 0:
		return fmt.Errorf("%w: source size %s", ErrInvalidParams, r.SrcSize)
	case r.DstSize.W <= 0 || r.DstSize.H <= 0:
		return fmt.Errorf("%w: ROI size %s", ErrInvalidParams, r.DstSize)
	}
	if err := r.Src.check(r.SrcSize, r.Channels); err != nil {
		return fmt.Errorf("%w: source %v", ErrInvalidParams, err)
	}
	if err := r.Dst.check(r.DstSize, r.Channels); err != nil {
		return fmt.Errorf("%w: destination %v", ErrInvalidParams, err)
	}
	return nil
}

func (p Plane) check(s Size, channels int) error {
	row := s.W * channels
	if p.Pitch < row {
		return fmt.Errorf("pitch %d below row width %d", p.Pitch, row)
	}
	if need := (s.H-1)*p.Pitch + row; len(p.Data) < need {
		return fmt.Errorf("has %d bytes, needs %d", len(p.Data), need)
	}
	return nil
}

func (p BoxParams) validate() error {
	if err := p.Region.validate(); err != nil {
		return err
	}
	if p.Mask.W <= 0 || p.Mask.H <= 0 {
		return fmt.Errorf("%w: mask %s", ErrInvalidParams, p.Mask)
	}
	if p.Anchor.X < 0 || p.Anchor.X >= p.Mask.W || p.Anchor.Y < 0 || p.Anchor.Y >= p.Mask.H {
		return fmt.Errorf("%w: anchor %s outside mask %s", ErrInvalidParams, p.Anchor, p.Mask)
	}
	return nil
}

func (p GaussParams) validate() error {
	if err := p.Region.validate(); err != nil {
		return err
	}
	if !p.Mask.IsValid() {
		return fmt.Errorf("%w: gaussian mask %d", ErrInvalidParams, int(p.Mask))
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
