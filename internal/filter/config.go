package filter

import (
	"fmt"
	"strings"

	"github.com/rm-hull/border-filters/internal/convolve"
)

// Type selects the convolution filter.
type Type int

const (
	Box Type = iota + 1
	Gauss
)

// Name is the filter name used for output directories and file suffixes.
func (t Type) Name() string {
	switch t {
	case Box:
		return "boxFilter"
	case Gauss:
		return "gaussFilter"
	default:
		return "unsupported"
	}
}

func (t Type) String() string { return t.Name() }

// ParseType accepts "box", "gauss", their long names, or the numbers 1 and 2.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "box", "boxfilter", "1":
		return Box, nil
	case "gauss", "gaussian", "gaussfilter", "2":
		return Gauss, nil
	default:
		return 0, fmt.Errorf("unknown filter type %q (want box or gauss)", s)
	}
}

// DefaultMaskSize is the box mask side and the Gaussian ordinal used when none is given.
const DefaultMaskSize = 5

// GaussMaskFromOrdinal maps 0..10 onto the Gaussian kernel sizes in table
// order. Any other value selects 5x5.
func GaussMaskFromOrdinal(n int) convolve.MaskSize {
	m := convolve.MaskSize(n)
	if !m.IsValid() {
		return convolve.Mask5x5
	}
	return m
}

// Config is the immutable filter configuration for a run.
type Config struct {
	Type      Type
	Mask      convolve.Size     // box only
	Anchor    convolve.Point    // box only
	GaussMask convolve.MaskSize // gauss only
	Offset    convolve.Point
}

// NewBox builds a box filter configuration with a square mask of side
// maskSize, anchor (anchor, anchor) and offset (offset, offset). A
// negative anchor selects the mask centre, maskSize/2.
func NewBox(maskSize, anchor, offset int) (Config, error) {
	if anchor < 0 {
		anchor = maskSize / 2
	}
	c := Config{
		Type:   Box,
		Mask:   convolve.Size{W: maskSize, H: maskSize},
		Anchor: convolve.Point{X: anchor, Y: anchor},
		Offset: convolve.Point{X: offset, Y: offset},
	}
	return c, c.Validate()
}

// NewGauss builds a Gaussian configuration from a mask ordinal.
func NewGauss(ordinal, offset int) Config {
	return Config{
		Type:      Gauss,
		GaussMask: GaussMaskFromOrdinal(ordinal),
		Offset:    convolve.Point{X: offset, Y: offset},
	}
}

// Default returns the 5x5 box filter centred at (2,2).
func Default() Config {
	c, _ := NewBox(DefaultMaskSize, -1, 0)
	return c
}

// Validate checks the invariants of the configuration.
func (c Config) Validate() error {
	switch c.Type {
	case Box:
		if c.Mask.W <= 0 || c.Mask.H <= 0 {
			return fmt.Errorf("mask size %s must be positive", c.Mask)
		}
		if c.Anchor.X < 0 || c.Anchor.X >= c.Mask.W || c.Anchor.Y < 0 || c.Anchor.Y >= c.Mask.H {
			return fmt.Errorf("anchor %s must lie within mask %s", c.Anchor, c.Mask)
		}
	case Gauss:
		if !c.GaussMask.IsValid() {
			return fmt.Errorf("invalid gaussian mask %d", int(c.GaussMask))
		}
	default:
		return fmt.Errorf("unsupported filter type %d", int(c.Type))
	}
	return nil
}

// MaskSize returns the effective kernel size.
func (c Config) MaskSize() convolve.Size {
	if c.Type == Gauss {
		return c.GaussMask.Size()
	}
	return c.Mask
}

// EffectiveAnchor returns the anchor the engine uses; Gaussian kernels are centred.
func (c Config) EffectiveAnchor() convolve.Point {
	if c.Type == Gauss {
		s := c.GaussMask.Size()
		return convolve.Point{X: s.W / 2, Y: s.H / 2}
	}
	return c.Anchor
}

func (c Config) String() string {
	return c.Type.Name() + " mask=" + c.MaskSize().String() +
		" anchor=" + c.EffectiveAnchor().String() +
		" offset=" + c.Offset.String()
}
