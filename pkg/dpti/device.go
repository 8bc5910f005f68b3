package dpti

import (
	"fmt"
	"strings"
)

// MaxNameLen is the longest device user name or connection string the
// device manager accepts.
const MaxNameLen = 64

// Properties are the capability flags reported for a DPTI port.
type Properties uint32

const (
	PropAsynchronous Properties = 1 << 0
	PropSynchronous  Properties = 1 << 1
)

// Asynchronous reports whether the port implements the asynchronous
// interface. A port is one or the other, never both.
func (p Properties) Asynchronous() bool {
	return p&PropAsynchronous != 0
}

func (p Properties) String() string {
	if p.Asynchronous() {
		return "asynchronous"
	}
	return "synchronous"
}

// Device abstracts a board exposing one or more DPTI ports. At most one
// port may be enabled at a time.
type Device interface {
	PortCount() (int, error)
	PortProperties(port int) (Properties, error)
	Enable(port int) error
	// Transfer sends out and then fills in over the enabled port. Either
	// buffer may be empty.
	Transfer(out, in []byte, overlapped bool) error
	Disable() error
	Close() error
}

// ValidateName checks a device name before it is handed to the device
// manager.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("dpti: empty device name")
	case strings.HasPrefix(name, "-"):
		return fmt.Errorf("dpti: invalid device name %q", name)
	case len(name) > MaxNameLen:
		return fmt.Errorf("dpti: device name %q longer than %d characters", name, MaxNameLen)
	}
	return nil
}
