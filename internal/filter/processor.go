package filter

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/rm-hull/border-filters/internal/codec"
	"github.com/rm-hull/border-filters/internal/convolve"
	"github.com/rm-hull/border-filters/internal/device"
	"github.com/rm-hull/border-filters/internal/imageio"
	"github.com/rm-hull/border-filters/internal/pixel"
)

// Result describes what Process did with one image.
type Result struct {
	Output   string
	Engine   string
	Skipped  bool
	Filtered *pixel.Buffer
}

// Processor applies one filter configuration to depth-tagged images.
type Processor struct {
	cfg    Config
	engine convolve.Engine
	dev    *device.Device
	saver  *imageio.Saver
}

// NewProcessor validates cfg and binds it to an engine and device. A nil
// engine selects the native engine.
func NewProcessor(cfg Config, engine convolve.Engine, dev *device.Device) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate filter config: %w", err)
	}
	if engine == nil {
		engine = convolve.Native{}
	}
	if dev == nil {
		dev = device.New("host")
	}
	return &Processor{
		cfg:    cfg,
		engine: engine,
		dev:    dev,
		saver:  imageio.NewSaver(),
	}, nil
}

func (p *Processor) Config() Config { return p.cfg }

// Process filters img and writes the result to out in format f, which is
// normally the format the image was read in. Dual-channel images are
// skipped without error and without touching the filesystem.
func (p *Processor) Process(img pixel.Image, out string, f codec.Format) (Result, error) {
	switch v := img.(type) {
	case *pixel.C1:
		return p.run(v.Buffer(), out, f)
	case *pixel.C2:
		log.Printf("Skipping %s: no filter path for 16-bit images", out)
		return Result{Skipped: true}, nil
	case *pixel.C3:
		return p.run(v.Buffer(), out, f)
	case *pixel.C4:
		return p.run(v.Buffer(), out, f)
	default:
		return Result{}, fmt.Errorf("filter: unsupported image %T", img)
	}
}

func (p *Processor) run(host *pixel.Buffer, out string, format codec.Format) (Result, error) {
	if !format.SupportsWriting() {
		return Result{}, &codec.UnsupportedFormatError{Path: out, Format: format, Reason: "no write support"}
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	src, err := p.dev.Upload(host)
	if err != nil {
		return Result{}, fmt.Errorf("failed to upload source image: %w", err)
	}
	defer src.Free()

	dst, err := p.dev.NewImage(host.Width(), host.Height(), int(host.Depth()))
	if err != nil {
		return Result{}, fmt.Errorf("failed to allocate destination image: %w", err)
	}
	defer dst.Free()

	size := convolve.Size{W: host.Width(), H: host.Height()}
	region := convolve.Region{
		Src:       convolve.Plane{Data: src.Data(), Pitch: src.Pitch()},
		SrcSize:   size,
		SrcOffset: p.cfg.Offset,
		Dst:       convolve.Plane{Data: dst.Data(), Pitch: dst.Pitch()},
		DstSize:   size,
		Channels:  int(host.Depth()),
		Border:    convolve.BorderReplicate,
	}

	engine, err := p.filter(p.dev.NewStream(), region)
	if err != nil {
		return Result{}, fmt.Errorf("failed to apply %s: %w", p.cfg.Type.Name(), err)
	}

	filtered, err := dst.Download()
	if err != nil {
		return Result{}, fmt.Errorf("failed to download filtered image: %w", err)
	}

	if err := p.saver.Save(out, filtered, format); err != nil {
		return Result{}, fmt.Errorf("failed to save %s: %w", out, err)
	}

	return Result{Output: out, Engine: engine, Filtered: filtered}, nil
}

// filter runs the configured engine on s and waits for it. When the engine
// declines the parameters the call is rerun on the native engine.
func (p *Processor) filter(s *device.Stream, r convolve.Region) (string, error) {
	s.Launch(func() error { return p.apply(p.engine, r) })
	err := s.Synchronize()
	if !errors.Is(err, convolve.ErrFallback) {
		return p.engine.Name(), err
	}

	native := convolve.Native{}
	device.Logger().Warn("engine fallback", "engine", p.engine.Name(), "fallback", native.Name(), "filter", p.cfg.String())
	s.Launch(func() error { return p.apply(native, r) })
	return native.Name(), s.Synchronize()
}

func (p *Processor) apply(e convolve.Engine, r convolve.Region) error {
	switch p.cfg.Type {
	case Box:
		return e.FilterBoxBorder(convolve.BoxParams{Region: r, Mask: p.cfg.Mask, Anchor: p.cfg.Anchor})
	case Gauss:
		return e.FilterGaussBorder(convolve.GaussParams{Region: r, Mask: p.cfg.GaussMask})
	default:
		return fmt.Errorf("unsupported filter type %d", int(p.cfg.Type))
	}
}
