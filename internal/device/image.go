package device

import "github.com/rm-hull/border-filters/internal/pixel"

// Image is a device-resident raster with an aligned pitch.
type Image struct {
	dev      *Device
	data     []byte
	width    int
	height   int
	pitch    int
	channels int
}

func (i *Image) Width() int    { return i.width }
func (i *Image) Height() int   { return i.height }
func (i *Image) Pitch() int    { return i.pitch }
func (i *Image) Channels() int { return i.channels }

// Data exposes the device memory to engines. Nil once freed.
func (i *Image) Data() []byte { return i.data }

// Freed reports whether the image has been released.
func (i *Image) Freed() bool { return i.data == nil }

// CopyTo downloads the image into a host buffer of identical geometry.
func (i *Image) CopyTo(host *pixel.Buffer) error {
	if i.Freed() {
		return ErrFreed
	}
	if host.Width() != i.width || host.Height() != i.height || int(host.Depth()) != i.channels {
		return pixel.ErrGeometryMismatch
	}
	rowBytes := host.Depth().RowBytes(i.width)
	pixel.CopyRows(host.Data(), host.Pitch(), i.data, i.pitch, rowBytes, i.height)
	Logger().Debug("device: download", "device", i.dev.name, "bytes", rowBytes*i.height)
	return nil
}

// Download allocates a tightly packed host buffer and copies the image into it.
func (i *Image) Download() (*pixel.Buffer, error) {
	if i.Freed() {
		return nil, ErrFreed
	}
	host, err := pixel.NewBuffer(i.width, i.height, pixel.Depth(i.channels))
	if err != nil {
		return nil, err
	}
	if err := i.CopyTo(host); err != nil {
		return nil, err
	}
	return host, nil
}

// Free releases the image. Calling Free more than once is a no-op, and a
// nil image may be freed.
func (i *Image) Free() {
	if i == nil || i.data == nil {
		return
	}
	size := int64(len(i.data))
	i.data = nil
	i.dev.release(size)
	Logger().Debug("device: free", "device", i.dev.name, "bytes", size)
}
