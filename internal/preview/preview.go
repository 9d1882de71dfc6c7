// Package preview renders before/after animations of filtered images.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/kettek/apng"
	"github.com/rm-hull/border-filters/internal/imageio"
	"github.com/rm-hull/border-filters/internal/pixel"
)

// DefaultFrameDelay is the time each frame is shown, in seconds.
const DefaultFrameDelay = 1.0

// Animate encodes the frames as a looping APNG.
func Animate(frames []image.Image, frameDelay float64) ([]byte, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to animate")
	}

	a := apng.APNG{
		Frames:    make([]apng.Frame, len(frames)),
		LoopCount: 0,
	}

	for i, img := range frames {
		a.Frames[i] = apng.Frame{
			Image:            clone.AsRGBA(img),
			DelayNumerator:   uint16(frameDelay * 1000),
			DelayDenominator: 1000,
		}
	}

	var buf bytes.Buffer
	if err := apng.Encode(&buf, a); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Path returns the preview file name for a filter output, e.g.
// Lena_boxFilter.pgm becomes Lena_boxFilter_preview.png.
func Path(output string) string {
	base := strings.TrimSuffix(output, filepath.Ext(output))
	return base + "_preview.png"
}

// Write alternates between the source and filtered buffers and writes the
// animation to path.
func Write(path string, before, after *pixel.Buffer) error {
	frames := make([]image.Image, 0, 2)
	for _, buf := range []*pixel.Buffer{before, after} {
		img, err := imageio.ToImage(buf)
		if err != nil {
			return fmt.Errorf("failed to convert preview frame: %w", err)
		}
		frames = append(frames, img)
	}

	data, err := Animate(frames, DefaultFrameDelay)
	if err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}
