package pixel

// Image is a depth-tagged buffer. It is a closed set: exactly one of
// *C1, *C2, *C3 or *C4, selected by the buffer's depth.
type Image interface {
	Buffer() *Buffer
	variant()
}

// C1 is a single channel, 8 bits per pixel image.
type C1 struct{ buf *Buffer }

// C2 is a dual channel, 16 bits per pixel image.
type C2 struct{ buf *Buffer }

// C3 is a three channel, 24 bits per pixel image.
type C3 struct{ buf *Buffer }

// C4 is a four channel, 32 bits per pixel image.
type C4 struct{ buf *Buffer }

func (i *C1) Buffer() *Buffer { return i.buf }
func (i *C2) Buffer() *Buffer { return i.buf }
func (i *C3) Buffer() *Buffer { return i.buf }
func (i *C4) Buffer() *Buffer { return i.buf }

func (*C1) variant() {}
func (*C2) variant() {}
func (*C3) variant() {}
func (*C4) variant() {}

// Tag wraps buf in the variant matching its depth.
func Tag(buf *Buffer) (Image, error) {
	switch buf.Depth() {
	case Depth1:
		return &C1{buf}, nil
	case Depth2:
		return &C2{buf}, nil
	case Depth3:
		return &C3{buf}, nil
	case Depth4:
		return &C4{buf}, nil
	default:
		return nil, &UnsupportedDepthError{Bits: buf.Depth().Bits()}
	}
}
