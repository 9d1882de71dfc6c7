// Package device models accelerator-addressable image memory.
//
// Images allocated here are owned by the Device that produced them and
// must be released with Free. Their pitch is rounded up to the device's
// alignment, so host and device pitches generally differ and every
// transfer is a row copy of the logical width only.
package device

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rm-hull/border-filters/internal/pixel"
)

// DefaultPitchAlignment matches the row alignment of typical GPU allocators.
const DefaultPitchAlignment = 64

var (
	// ErrOutOfMemory is returned when an allocation would exceed the memory limit.
	ErrOutOfMemory = errors.New("device: out of memory")

	// ErrFreed is returned when a released image is used.
	ErrFreed = errors.New("device: image already freed")
)

// AllocationError reports a device image that could not be produced.
type AllocationError struct {
	Width, Height int
	Channels      int
	Err           error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("device: cannot allocate %dx%d image with %d channels: %v", e.Width, e.Height, e.Channels, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// Device hands out images from a bounded pool of memory.
type Device struct {
	name      string
	alignment int
	limit     int64 // bytes, 0 = unlimited

	mu       sync.Mutex
	used     int64
	live     atomic.Int64
	total    atomic.Int64
	launches atomic.Int64
	streams  atomic.Int64
}

// Option configures a Device.
type Option func(*Device)

// WithPitchAlignment sets the row alignment in bytes.
func WithPitchAlignment(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.alignment = n
		}
	}
}

// WithMemoryLimit caps the total bytes allocated at any one time.
func WithMemoryLimit(bytes int64) Option {
	return func(d *Device) {
		if bytes >= 0 {
			d.limit = bytes
		}
	}
}

// New creates a device.
func New(name string, opts ...Option) *Device {
	d := &Device{name: name, alignment: DefaultPitchAlignment}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// PitchAlignment returns the row alignment in bytes.
func (d *Device) PitchAlignment() int { return d.alignment }

// MemoryLimit returns the allocation cap, 0 meaning unlimited.
func (d *Device) MemoryLimit() int64 { return d.limit }

// Live returns the number of images allocated and not yet freed.
func (d *Device) Live() int64 { return d.live.Load() }

// Allocations returns the number of images allocated over the device's lifetime.
func (d *Device) Allocations() int64 { return d.total.Load() }

// NewImage allocates an uninitialised image of the given geometry.
func (d *Device) NewImage(width, height, channels int) (*Image, error) {
	depth := pixel.Depth(channels)
	if width <= 0 || height <= 0 || !depth.IsValid() {
		return nil, &AllocationError{Width: width, Height: height, Channels: channels, Err: pixel.ErrInvalidDimensions}
	}

	rowBytes := depth.RowBytes(width)
	pitch := (rowBytes + d.alignment - 1) / d.alignment * d.alignment
	size := int64(pitch) * int64(height)

	d.mu.Lock()
	if d.limit > 0 && d.used+size > d.limit {
		d.mu.Unlock()
		return nil, &AllocationError{Width: width, Height: height, Channels: channels,
			Err: fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrOutOfMemory, size, d.used, d.limit)}
	}
	d.used += size
	d.mu.Unlock()

	d.live.Add(1)
	d.total.Add(1)
	Logger().Debug("device: alloc", "device", d.name, "width", width, "height", height, "channels", channels, "pitch", pitch)

	return &Image{
		dev:      d,
		data:     make([]byte, size),
		width:    width,
		height:   height,
		pitch:    pitch,
		channels: channels,
	}, nil
}

// Upload allocates an image with the geometry of host and copies its pixels in.
func (d *Device) Upload(host *pixel.Buffer) (*Image, error) {
	img, err := d.NewImage(host.Width(), host.Height(), int(host.Depth()))
	if err != nil {
		return nil, err
	}
	pixel.CopyRows(img.data, img.pitch, host.Data(), host.Pitch(), host.Depth().RowBytes(host.Width()), host.Height())
	Logger().Debug("device: upload", "device", d.name, "bytes", host.Depth().RowBytes(host.Width())*host.Height())
	return img, nil
}

// Launches returns the number of units of work launched on the device.
func (d *Device) Launches() int64 { return d.launches.Load() }

func (d *Device) release(size int64) {
	d.mu.Lock()
	d.used -= size
	d.mu.Unlock()
	d.live.Add(-1)
}
