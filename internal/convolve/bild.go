package convolve

import (
	"image"

	"github.com/anthonynsimon/bild/convolution"
)

// Bild runs the filters through bild's convolution package. bild pads the
// source by edge extension, which is the replicate border, and centres the
// kernel; asymmetric anchors are handled by embedding the mask in a larger
// zero-padded kernel. Source offsets, cropped ROIs and dual-channel planes
// are reported as ErrFallback.
type Bild struct{}

func (Bild) Name() string { return "bild" }

// FilterBoxBorder implements Engine.
func (Bild) FilterBoxBorder(p BoxParams) error {
	if err := p.validate(); err != nil {
		return err
	}
	if err := bildSupports(p.Region); err != nil {
		return err
	}

	weight := 1 / float64(p.Mask.W*p.Mask.H)
	k := anchoredKernel(p.Mask, p.Anchor, func(int, int) float64 { return weight })
	return bildConvolve(p.Region, k)
}

// FilterGaussBorder implements Engine.
func (Bild) FilterGaussBorder(p GaussParams) error {
	if err := p.validate(); err != nil {
		return err
	}
	if err := bildSupports(p.Region); err != nil {
		return err
	}

	mask := p.Mask.Size()
	kx, ky := p.Mask.Weights()
	k := anchoredKernel(mask, Point{mask.W / 2, mask.H / 2}, func(i, j int) float64 { return kx[i] * ky[j] })
	return bildConvolve(p.Region, k)
}

func bildSupports(r Region) error {
	if r.SrcOffset != (Point{}) || r.SrcSize != r.DstSize || r.Channels == 2 {
		return ErrFallback
	}
	return nil
}

// anchoredKernel places the mask weights so that the anchor lands on the
// centre of an odd-sized kernel.
func anchoredKernel(mask Size, anchor Point, weight func(i, j int) float64) *convolution.Kernel {
	hx := max(anchor.X, mask.W-1-anchor.X)
	hy := max(anchor.Y, mask.H-1-anchor.Y)
	w, h := 2*hx+1, 2*hy+1

	k := convolution.NewKernel(w, h)
	for j := 0; j < mask.H; j++ {
		for i := 0; i < mask.W; i++ {
			kx := hx + i - anchor.X
			ky := hy + j - anchor.Y
			k.Matrix[ky*w+kx] = weight(i, j)
		}
	}
	return k
}

// bildConvolve expands the plane into RGBA, convolves it, and writes the
// used channels back. A bias of 0.5 turns bild's truncation into rounding.
func bildConvolve(r Region, k *convolution.Kernel) error {
	w, h, ch := r.SrcSize.W, r.SrcSize.H, r.Channels
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		in := r.Src.Data[y*r.Src.Pitch:]
		px := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			copy(px[x*4:x*4+ch], in[x*ch:x*ch+ch])
			if ch < 4 {
				px[x*4+3] = 0xff
			}
		}
	}

	out := convolution.Convolve(src, k, &convolution.Options{Bias: 0.5, Wrap: false, KeepAlpha: ch < 4})

	for y := 0; y < h; y++ {
		dst := r.Dst.Data[y*r.Dst.Pitch:]
		px := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			copy(dst[x*ch:x*ch+ch], px[x*4:x*4+ch])
		}
	}
	return nil
}
