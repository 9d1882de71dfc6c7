package device

import "sync"

// Stream is an ordered queue of device work with its own completion
// barrier. Streams on the same device are independent; a single stream
// must only be driven from one goroutine.
type Stream struct {
	dev *Device
	id  int64

	wg  sync.WaitGroup
	mu  sync.Mutex
	err error
}

// NewStream creates a stream on the device.
func (d *Device) NewStream() *Stream {
	return &Stream{dev: d, id: d.streams.Add(1)}
}

// Launch starts fn asynchronously. Its error, if any, is reported by the
// next Synchronize.
func (s *Stream) Launch(fn func() error) {
	s.dev.launches.Add(1)
	s.wg.Add(1)
	Logger().Debug("device: launch", "device", s.dev.name, "stream", s.id)
	go func() {
		defer s.wg.Done()
		if err := fn(); err != nil {
			s.mu.Lock()
			if s.err == nil {
				s.err = err
			}
			s.mu.Unlock()
		}
	}()
}

// Synchronize blocks until everything launched on the stream has finished
// and returns the first error any of it reported. The error is cleared.
func (s *Stream) Synchronize() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}
