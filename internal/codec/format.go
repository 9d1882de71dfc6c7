// Package codec decodes and encodes on-disk rasters into bottom-up bitmaps.
//
// It plays the part of an imaging library: it knows which formats exist,
// which of them it can read or write, and how to sniff a format from the
// first bytes of a file. Rows inside a Bitmap are stored bottom-up with a
// 4-byte aligned pitch, the way device-independent bitmaps are laid out.
package codec

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies a raster file format.
type Format int

const (
	Unknown Format = iota
	PGM
	PPM
	PNG
	BMP
	JPEG
	GIF
	TIFF
	WEBP
)

type formatInfo struct {
	name       string
	extensions []string
	magic      []string // '?' matches any byte
	canRead    bool
	canWrite   bool
}

var formats = map[Format]formatInfo{
	PGM:  {"pgm", []string{".pgm"}, []string{"P2", "P5"}, true, true},
	PPM:  {"ppm", []string{".ppm"}, []string{"P3", "P6"}, true, true},
	PNG:  {"png", []string{".png"}, []string{"\x89PNG\r\n\x1a\n"}, true, true},
	BMP:  {"bmp", []string{".bmp", ".dib"}, []string{"BM"}, true, true},
	JPEG: {"jpeg", []string{".jpg", ".jpeg", ".jpe"}, []string{"\xff\xd8\xff"}, true, true},
	GIF:  {"gif", []string{".gif"}, []string{"GIF87a", "GIF89a"}, true, true},
	TIFF: {"tiff", []string{".tif", ".tiff"}, []string{"II*\x00", "MM\x00*"}, true, true},
	WEBP: {"webp", []string{".webp"}, []string{"RIFF????WEBP"}, true, false},
}

// String returns the short lower-case name of the format.
func (f Format) String() string {
	if info, ok := formats[f]; ok {
		return info.name
	}
	return "unknown"
}

// SupportsReading reports whether the format can be decoded.
func (f Format) SupportsReading() bool {
	return formats[f].canRead
}

// SupportsWriting reports whether the format can be encoded.
func (f Format) SupportsWriting() bool {
	return formats[f].canWrite
}

// Formats lists every known format.
func Formats() []Format {
	return []Format{PGM, PPM, PNG, BMP, JPEG, GIF, TIFF, WEBP}
}

const sniffLen = 16

// Sniff identifies the format from the leading bytes of r.
func Sniff(r io.Reader) Format {
	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(r, head)
	return sniffBytes(head[:n])
}

// SniffFile identifies the format of the file at path from its content.
// Unknown is returned when the file cannot be read or no signature matches.
func SniffFile(path string) Format {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Unknown
	}
	defer func() { _ = f.Close() }()
	return Sniff(f)
}

func sniffBytes(head []byte) Format {
	for f := PGM; f <= WEBP; f++ {
		for _, magic := range formats[f].magic {
			if match(magic, head) {
				return f
			}
		}
	}
	return Unknown
}

func match(magic string, b []byte) bool {
	if len(magic) > len(b) {
		return false
	}
	for i, c := range []byte(magic) {
		if c != '?' && c != b[i] {
			return false
		}
	}
	// netpbm magic must be followed by whitespace
	if len(magic) == 2 && magic[0] == 'P' {
		return len(b) > 2 && strings.ContainsRune(" \t\r\n#", rune(b[2]))
	}
	return true
}

// FromFilename guesses the format from the file extension.
func FromFilename(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return Unknown
	}
	for f, info := range formats {
		for _, e := range info.extensions {
			if e == ext {
				return f
			}
		}
	}
	return Unknown
}

// Detect checks the file signature first and falls back to the extension.
func Detect(path string) Format {
	if f := SniffFile(path); f != Unknown {
		return f
	}
	return FromFilename(path)
}
