package codec

import "fmt"

// UnsupportedFormatError is returned when a format cannot be detected, or
// is detected but lacks the required read or write capability.
type UnsupportedFormatError struct {
	Path   string
	Format Format
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Format == Unknown {
		return fmt.Sprintf("codec: unsupported format for %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("codec: unsupported format %s for %s: %s", e.Format, e.Path, e.Reason)
}

// DecodeError carries the decoder's message for a file that could not be read.
type DecodeError struct {
	Format  Format
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: decode %s: %s", e.Format, e.Message)
}

// EncodeError carries the encoder's message for a file that could not be written.
type EncodeError struct {
	Format  Format
	Path    string
	Message string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("codec: encode %s to %s: %s", e.Format, e.Path, e.Message)
}
