package batch

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rm-hull/border-filters/internal/codec"
	"github.com/rm-hull/border-filters/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGray(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 6, 6))
	img.SetGray(3, 3, color.Gray{Y: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func newRunner(t *testing.T, opts Options) *Runner {
	t.Helper()
	p, err := filter.NewProcessor(filter.Default(), nil, nil)
	require.NoError(t, err)
	return NewRunner(p, opts)
}

func TestInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.png", "a.png", "b.pgm", "FilterRecord.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "boxFilter"), 0o755))

	t.Run("single file", func(t *testing.T) {
		files, err := Inputs(filepath.Join(dir, "a.png"))
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "a.png")}, files)
	})

	t.Run("wildcard", func(t *testing.T) {
		files, err := Inputs(filepath.Join(dir, "*"), filepath.Join(dir, "FilterRecord.log"))
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a.png"),
			filepath.Join(dir, "b.pgm"),
			filepath.Join(dir, "c.png"),
		}, files)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := Inputs(filepath.Join(dir, "nope", "*"))
		assert.Error(t, err)
	})
}

func TestRun_SingleFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Lena.png")
	writeGray(t, src)
	record := filepath.Join(dir, DefaultRecordLog)

	summary, err := newRunner(t, Options{RecordLog: NewRecordLog(record), Preview: true}).Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	out := filepath.Join(dir, "boxFilter", "Lena_boxFilter.png")
	assert.FileExists(t, out)
	assert.FileExists(t, filepath.Join(dir, "boxFilter", "Lena_boxFilter_preview.png"))

	data, err := os.ReadFile(record)
	require.NoError(t, err)
	assert.Equal(t,
		"The image file, "+src+", was processed into "+out+", Mask (5,5), Offset (0,0), Anchor (2,2)\n",
		string(data))
}

func TestRun_ExplicitOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writeGray(t, src)
	out := filepath.Join(dir, "result.pgm")

	_, err := newRunner(t, Options{Output: out}).Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, codec.PGM, codec.SniffFile(out))
	assert.NoDirExists(t, filepath.Join(dir, "boxFilter"))
}

func TestRun_KeepsSourceFormat(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scan.jpg")
	writeGray(t, src)

	summary, err := newRunner(t, Options{}).Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	out := filepath.Join(dir, "boxFilter", "scan_boxFilter.jpg")
	assert.Equal(t, codec.PNG, codec.SniffFile(out))
}

func TestRun_ExplicitOutputWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writeGray(t, src)
	out := filepath.Join(dir, "result")

	_, err := newRunner(t, Options{Output: out}).Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, codec.PNG, codec.SniffFile(out))
}

func TestRun_SixteenBitLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "deep.png")
	img := image.NewGray16(image.Rect(0, 0, 4, 4))
	img.SetGray16(1, 1, color.Gray16{Y: 0xffff})
	f, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	record := filepath.Join(dir, DefaultRecordLog)

	summary, err := newRunner(t, Options{RecordLog: NewRecordLog(record)}).Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.NoDirExists(t, filepath.Join(dir, "boxFilter"))
	assert.NoFileExists(t, record)
}

func TestRun_Wildcard(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png"} {
		writeGray(t, filepath.Join(dir, name))
	}
	record := filepath.Join(dir, DefaultRecordLog)

	r := newRunner(t, Options{RecordLog: NewRecordLog(record), Output: filepath.Join(dir, "ignored.png")})
	summary, err := r.Run(context.Background(), filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.NoFileExists(t, filepath.Join(dir, "ignored.png"))

	data, err := os.ReadFile(record)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)

	// the record log now sits in the directory and must not be picked up
	summary, err = r.Run(context.Background(), filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
}

func TestRun_FailurePolicy(t *testing.T) {
	setup := func(t *testing.T) string {
		dir := t.TempDir()
		writeGray(t, filepath.Join(dir, "a.png"))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("not an image"), 0o644))
		writeGray(t, filepath.Join(dir, "c.png"))
		return dir
	}

	t.Run("strict stops at first failure", func(t *testing.T) {
		dir := setup(t)
		summary, err := newRunner(t, Options{}).Run(context.Background(), filepath.Join(dir, "*"))

		var formatErr *codec.UnsupportedFormatError
		require.True(t, errors.As(err, &formatErr))
		assert.Equal(t, 1, summary.Processed)
		assert.Equal(t, 1, summary.Failed)
		assert.NoFileExists(t, filepath.Join(dir, "boxFilter", "c_boxFilter.png"))
	})

	t.Run("keep going", func(t *testing.T) {
		dir := setup(t)
		summary, err := newRunner(t, Options{KeepGoing: true}).Run(context.Background(), filepath.Join(dir, "*"))

		var formatErr *codec.UnsupportedFormatError
		require.True(t, errors.As(err, &formatErr))
		assert.Equal(t, 2, summary.Processed)
		assert.Equal(t, 1, summary.Failed)
		assert.FileExists(t, filepath.Join(dir, "boxFilter", "c_boxFilter.png"))
	})
}

func TestRun_SkipExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writeGray(t, src)

	r := newRunner(t, Options{SkipExisting: true})
	summary, err := r.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	summary, err = r.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
}

func TestRun_MissingFile(t *testing.T) {
	_, err := newRunner(t, Options{}).Run(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeGray(t, filepath.Join(dir, "a.png"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newRunner(t, Options{}).Run(ctx, filepath.Join(dir, "*"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Processed)
}

func TestFormatRecord(t *testing.T) {
	cfg, err := filter.NewBox(3, 0, 4)
	require.NoError(t, err)
	assert.Equal(t,
		"The image file, in.pgm, was processed into out.pgm, Mask (3,3), Offset (4,4), Anchor (0,0)",
		FormatRecord("in.pgm", "out.pgm", cfg))

	assert.Equal(t,
		"The image file, in.pgm, was processed into out.pgm, Mask (1,3), Offset (0,0), Anchor (0,1)",
		FormatRecord("in.pgm", "out.pgm", filter.NewGauss(0, 0)))
}

func TestRecordLog_Nil(t *testing.T) {
	var l *RecordLog
	assert.NoError(t, l.Append("a", "b", filter.Default()))
	assert.Equal(t, "", l.Path())
	assert.Nil(t, NewRecordLog(""))
}
