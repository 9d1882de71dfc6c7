package codec

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/spakin/netpbm"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// ErrorHandler turns a decoder or encoder message into the error the
// library call returns.
type ErrorHandler func(f Format, message string) error

// Library decodes and encodes bitmaps. The zero value is ready to use and
// reports failures as *DecodeError / *EncodeError.
type Library struct {
	onError ErrorHandler
}

// SetOutputMessage registers the handler invoked for every decode failure.
func (l *Library) SetOutputMessage(h ErrorHandler) {
	l.onError = h
}

func (l *Library) decodeFailed(f Format, msg string) error {
	if l.onError != nil {
		if err := l.onError(f, msg); err != nil {
			return err
		}
	}
	return &DecodeError{Format: f, Message: msg}
}

// Load decodes the file at path, which must be of format f.
func (l *Library) Load(f Format, path string) (*Bitmap, error) {
	if !f.SupportsReading() {
		return nil, &UnsupportedFormatError{Path: path, Format: f, Reason: "no read support"}
	}
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, l.decodeFailed(f, err.Error())
	}
	defer func() { _ = file.Close() }()

	return l.Decode(f, file)
}

// Decode reads a bitmap of format f from r.
func (l *Library) Decode(f Format, r io.Reader) (*Bitmap, error) {
	var (
		img image.Image
		err error
	)
	switch f {
	case PNG:
		img, err = png.Decode(r)
	case JPEG:
		img, err = jpeg.Decode(r)
	case GIF:
		img, err = gif.Decode(r)
	case BMP:
		img, err = bmp.Decode(r)
	case TIFF:
		img, err = tiff.Decode(r)
	case WEBP:
		img, err = webp.Decode(r)
	case PGM, PPM:
		// netpbm registers its decoders with the image package
		img, _, err = image.Decode(r)
	default:
		return nil, &UnsupportedFormatError{Format: f, Reason: "no decoder"}
	}
	if err != nil {
		return nil, l.decodeFailed(f, err.Error())
	}

	bm, err := FromImage(img, f == PGM)
	if err != nil {
		return nil, l.decodeFailed(f, err.Error())
	}
	return bm, nil
}

// Save encodes bm as format f into the file at path. The data is written
// to a temporary file in the same directory and renamed into place once
// complete, so a failed save never leaves a partial file at path.
func (l *Library) Save(f Format, bm *Bitmap, path string) error {
	if !f.SupportsWriting() {
		return &UnsupportedFormatError{Path: path, Format: f, Reason: "no write support"}
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".save-*.tmp")
	if err != nil {
		return &EncodeError{Format: f, Path: path, Message: err.Error()}
	}
	cleanupTemp := true
	defer func() {
		_ = tmpFile.Close()
		if cleanupTemp {
			_ = os.Remove(tmpFile.Name())
		}
	}()

	if err := l.Encode(f, bm, tmpFile); err != nil {
		if ee, ok := err.(*EncodeError); ok {
			ee.Path = path
		}
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return &EncodeError{Format: f, Path: path, Message: err.Error()}
	}

	if err := os.Rename(tmpFile.Name(), path); err != nil {
		return &EncodeError{Format: f, Path: path, Message: err.Error()}
	}

	cleanupTemp = false
	return nil
}

// Encode writes bm as format f to w.
func (l *Library) Encode(f Format, bm *Bitmap, w io.Writer) error {
	img, err := bm.Image()
	if err != nil {
		return &EncodeError{Format: f, Message: err.Error()}
	}

	switch f {
	case PNG:
		err = png.Encode(w, img)
	case JPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case GIF:
		err = gif.Encode(w, img, nil)
	case BMP:
		err = bmp.Encode(w, img)
	case TIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case PGM:
		err = netpbm.Encode(w, img, &netpbm.EncodeOptions{Format: netpbm.PGM, MaxValue: pnmMaxValue(bm)})
	case PPM:
		err = netpbm.Encode(w, img, &netpbm.EncodeOptions{Format: netpbm.PPM, MaxValue: pnmMaxValue(bm)})
	default:
		err = fmt.Errorf("no encoder for %s", f)
	}
	if err != nil {
		return &EncodeError{Format: f, Message: err.Error()}
	}
	return nil
}

func pnmMaxValue(bm *Bitmap) uint16 {
	if bm.BPP == 16 {
		return 65535
	}
	return 255
}
