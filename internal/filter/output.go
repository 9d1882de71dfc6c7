package filter

import (
	"path/filepath"
	"strings"

	"github.com/rm-hull/border-filters/internal/codec"
)

// OutputPath returns <dir>/<filterName>/<base>_<filterName><ext> for src.
// The directory is not created; Process does that once it has something
// to write.
func OutputPath(src string, t Type, ext string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if ext == "" {
		ext = filepath.Ext(src)
	}
	return filepath.Join(filepath.Dir(src), t.Name(), base+"_"+t.Name()+ext)
}

// OutputFormat picks the encoder for an output file. An explicitly named
// output whose extension is a known writable format selects that format;
// anything else keeps the format the image was read in.
func OutputFormat(explicit string, source codec.Format) codec.Format {
	if explicit == "" {
		return source
	}
	if f := codec.FromFilename(explicit); f.SupportsWriting() {
		return f
	}
	return source
}
