package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rm-hull/border-filters/internal/codec"
	"github.com/rm-hull/border-filters/internal/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return buf.Bytes()
}

// gradient has a distinct value on every row so any flip shows up.
func gradient(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(y*16 + x)})
		}
	}
	return img
}

func TestLoad_TopRowFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.png")
	writePNG(t, path, gradient(5, 7))

	desc, img, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, codec.PNG, desc.Format)
	assert.Equal(t, 8, desc.BitDepth)
	assert.Equal(t, ".png", desc.FileExt)
	require.IsType(t, &pixel.C1{}, img)

	buf := img.Buffer()
	assert.Equal(t, 5, buf.Width())
	assert.Equal(t, 7, buf.Height())
	for y := 0; y < 7; y++ {
		assert.Equal(t, []byte{byte(y * 16), byte(y*16 + 1), byte(y*16 + 2), byte(y*16 + 3), byte(y*16 + 4)}, buf.RowBytes(y))
	}
}

func TestRoundTrip_ByteIdentical(t *testing.T) {
	rgb := image.NewRGBA(image.Rect(0, 0, 6, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 6; x++ {
			rgb.Set(x, y, color.RGBA{R: uint8(x * 40), G: uint8(y * 80), B: uint8(x + y), A: 255})
		}
	}

	tests := []struct {
		name string
		img  image.Image
	}{
		{"gray", gradient(9, 4)},
		{"rgb", rgb},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := filepath.Join(dir, "in.png")
			original := writePNG(t, in, tt.img)

			desc, img, err := Open(in)
			require.NoError(t, err)

			out := filepath.Join(dir, "out.png")
			require.NoError(t, NewSaver().Save(out, img.Buffer(), desc.Format))

			saved, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.Equal(t, original, saved)
		})
	}
}

func TestSave_PitchIndependent(t *testing.T) {
	dir := t.TempDir()

	tight, err := pixel.NewBuffer(3, 2, pixel.Depth3)
	require.NoError(t, err)
	padded, err := pixel.NewBufferWithPitch(3, 2, pixel.Depth3, 64)
	require.NoError(t, err)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			tight.Set(x, y, byte(x), byte(y), byte(x*y+7))
			padded.Set(x, y, byte(x), byte(y), byte(x*y+7))
		}
	}
	for i := 9; i < 64; i++ {
		padded.Data()[i] = 0xAB
	}

	s := NewSaver()
	a, b := filepath.Join(dir, "a.ppm"), filepath.Join(dir, "b.ppm")
	require.NoError(t, s.Save(a, tight, codec.PPM))
	require.NoError(t, s.Save(b, padded, codec.PPM))

	want, err := os.ReadFile(a)
	require.NoError(t, err)
	got, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSetup_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("unknown format", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

		_, err := NewLoader().Setup(path)
		var formatErr *codec.UnsupportedFormatError
		assert.True(t, errors.As(err, &formatErr))
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(dir, "broken.png")
		require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n truncated"), 0o644))

		_, err := NewLoader().Setup(path)
		var decodeErr *codec.DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, codec.PNG, decodeErr.Format)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader().Setup(filepath.Join(dir, "nope.png"))
		assert.Error(t, err)
	})
}

func TestLoad_BeforeSetup(t *testing.T) {
	_, err := NewLoader().Load()
	assert.ErrorIs(t, err, ErrNotSetUp)
}

func TestFromBitmap_UnsupportedDepth(t *testing.T) {
	bm := &codec.Bitmap{Bits: make([]byte, 12), Width: 2, Height: 1, Pitch: 12, BPP: 48}

	_, err := fromBitmap(bm)
	var depthErr *pixel.UnsupportedDepthError
	require.True(t, errors.As(err, &depthErr))
	assert.Equal(t, 48, depthErr.Bits)
}

func TestToBitmap_BottomUp(t *testing.T) {
	buf, err := pixel.NewBuffer(2, 3, pixel.Depth1)
	require.NoError(t, err)
	for y := 0; y < 3; y++ {
		buf.Set(0, y, byte(10*y))
		buf.Set(1, y, byte(10*y+1))
	}

	bm, err := toBitmap(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, bm.Pitch)
	assert.Equal(t, []byte{0, 1}, bm.Scanline(2)[:2])
	assert.Equal(t, []byte{20, 21}, bm.Scanline(0)[:2])
}
