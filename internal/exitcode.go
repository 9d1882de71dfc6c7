package internal

import (
	"errors"

	"github.com/rm-hull/border-filters/internal/codec"
	"github.com/rm-hull/border-filters/internal/device"
	"github.com/rm-hull/border-filters/internal/pixel"
)

const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitFormat      = 2
	ExitDecode      = 3
	ExitEncode      = 4
	ExitAllocation  = 5
	ExitUnsupported = 6
)

// ExitCode maps an error onto the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		formatErr      *codec.UnsupportedFormatError
		decodeErr      *codec.DecodeError
		encodeErr      *codec.EncodeError
		hostAllocErr   *pixel.AllocationError
		deviceAllocErr *device.AllocationError
		depthErr       *pixel.UnsupportedDepthError
	)

	switch {
	case errors.As(err, &formatErr):
		return ExitFormat
	case errors.As(err, &decodeErr):
		return ExitDecode
	case errors.As(err, &encodeErr):
		return ExitEncode
	case errors.As(err, &hostAllocErr), errors.As(err, &deviceAllocErr):
		return ExitAllocation
	case errors.As(err, &depthErr):
		return ExitUnsupported
	default:
		return ExitFailure
	}
}
