package dpti

import (
	"errors"
	"fmt"
	"strconv"
)

// ERC is an error code reported by the Adept runtime.
type ERC int

const ercNoError ERC = 0

// ercNotAvailable is returned by the binding when the Adept runtime was not
// linked into the binary.
const ercNotAvailable ERC = -2

var (
	// ErrTimeout matches transfer errors caused by the runtime cancelling a
	// transfer that did not complete in time.
	ErrTimeout = errors.New("dpti: transfer timed out")

	// ErrNotAvailable matches errors from a binary built without the Adept
	// runtime.
	ErrNotAvailable = errors.New("dpti: Adept runtime not available")

	// ErrNoPorts is returned when a device does not implement DPTI.
	ErrNoPorts = errors.New("dpti: device does not support DPTI")
)

// Error is a failed Adept call.
type Error struct {
	Op     string // runtime entry point, e.g. "DptiIO"
	Device string // device name, when known
	Code   ERC
}

func (e *Error) Error() string {
	msg := "dpti: " + e.Op
	if e.Device != "" {
		msg += " " + strconv.Quote(e.Device)
	}
	switch e.Code {
	case ercNotAvailable:
		return msg + ": Adept runtime not available (build with -tags adept)"
	case ercTransferCancelled:
		return msg + ": transfer cancelled, erc = " + strconv.Itoa(int(e.Code))
	}
	return msg + ": erc = " + strconv.Itoa(int(e.Code))
}

// Is lets errors.Is match the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Code == ercTransferCancelled
	case ErrNotAvailable:
		return e.Code == ercNotAvailable
	}
	return false
}

// PortRangeError is returned when the requested port is not implemented by
// the device.
type PortRangeError struct {
	Port  int
	Count int
}

func (e *PortRangeError) Error() string {
	return fmt.Sprintf("dpti: invalid DPTI port specified: %d (device supports ports 0-%d)", e.Port, e.Count-1)
}
