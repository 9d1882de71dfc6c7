package convolve

import "math"

// Native is the reference engine. It honours every parameter of the
// contract exactly, using separable passes: a vertical pass over the
// whole source row followed by a horizontal pass per ROI pixel.
type Native struct{}

func (Native) Name() string { return "native" }

// FilterBoxBorder implements Engine.
func (Native) FilterBoxBorder(p BoxParams) error {
	if err := p.validate(); err != nil {
		return err
	}

	r := p.Region
	ch := r.Channels
	n := p.Mask.W * p.Mask.H
	half := n / 2
	vsum := make([]int, r.SrcSize.W*ch)
	cols := sampleColumns(r, p.Mask.W, p.Anchor.X)

	for y := 0; y < r.DstSize.H; y++ {
		clear(vsum)
		top := r.SrcOffset.Y + y - p.Anchor.Y
		for j := 0; j < p.Mask.H; j++ {
			sy := clamp(top+j, 0, r.SrcSize.H-1)
			row := r.Src.Data[sy*r.Src.Pitch : sy*r.Src.Pitch+r.SrcSize.W*ch]
			for i, v := range row {
				vsum[i] += int(v)
			}
		}

		out := r.Dst.Data[y*r.Dst.Pitch : y*r.Dst.Pitch+r.DstSize.W*ch]
		for x := 0; x < r.DstSize.W; x++ {
			for c := 0; c < ch; c++ {
				sum := 0
				for _, sx := range cols[x] {
					sum += vsum[sx*ch+c]
				}
				out[x*ch+c] = uint8((sum + half) / n)
			}
		}
	}
	return nil
}

// FilterGaussBorder implements Engine.
func (Native) FilterGaussBorder(p GaussParams) error {
	if err := p.validate(); err != nil {
		return err
	}

	r := p.Region
	ch := r.Channels
	mask := p.Mask.Size()
	anchor := Point{mask.W / 2, mask.H / 2}
	kx, ky := p.Mask.Weights()
	vsum := make([]float64, r.SrcSize.W*ch)
	cols := sampleColumns(r, mask.W, anchor.X)

	for y := 0; y < r.DstSize.H; y++ {
		clear(vsum)
		top := r.SrcOffset.Y + y - anchor.Y
		for j, wy := range ky {
			sy := clamp(top+j, 0, r.SrcSize.H-1)
			row := r.Src.Data[sy*r.Src.Pitch : sy*r.Src.Pitch+r.SrcSize.W*ch]
			for i, v := range row {
				vsum[i] += wy * float64(v)
			}
		}

		out := r.Dst.Data[y*r.Dst.Pitch : y*r.Dst.Pitch+r.DstSize.W*ch]
		for x := 0; x < r.DstSize.W; x++ {
			for c := 0; c < ch; c++ {
				sum := 0.0
				for i, sx := range cols[x] {
					sum += kx[i] * vsum[sx*ch+c]
				}
				out[x*ch+c] = uint8(math.Max(0, math.Min(255, math.Round(sum))))
			}
		}
	}
	return nil
}

// sampleColumns precomputes, for every ROI column, the clamped source
// columns covered by a mask of width w anchored at ax.
func sampleColumns(r Region, w, ax int) [][]int {
	cols := make([][]int, r.DstSize.W)
	for x := range cols {
		left := r.SrcOffset.X + x - ax
		cols[x] = make([]int, w)
		for i := range cols[x] {
			cols[x][i] = clamp(left+i, 0, r.SrcSize.W-1)
		}
	}
	return cols
}
