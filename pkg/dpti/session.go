package dpti

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
)

// Session is a device with one DPTI port enabled. It owns the device: Close
// disables the port and closes the handle.
type Session struct {
	dev   Device
	port  int
	props Properties

	enabled bool
	closed  bool
}

// OpenPort validates port against the device, reads its properties and
// enables it. OpenPort takes ownership of dev and closes it on failure.
func OpenPort(dev Device, port int) (*Session, error) {
	s := &Session{dev: dev, port: port}
	if err := s.open(); err != nil {
		if cerr := dev.Close(); cerr != nil {
			glog.Warningf("dpti: close after failed open: %v", cerr)
		}
		s.closed = true
		return nil, err
	}
	return s, nil
}

func (s *Session) open() error {
	count, err := s.dev.PortCount()
	if err != nil {
		return fmt.Errorf("failed to determine DPTI port count: %w", err)
	}
	if count == 0 {
		return ErrNoPorts
	}
	if s.port < 0 || s.port >= count {
		return &PortRangeError{Port: s.port, Count: count}
	}
	if s.props, err = s.dev.PortProperties(s.port); err != nil {
		return fmt.Errorf("failed to get DPTI port properties: %w", err)
	}
	if err := s.dev.Enable(s.port); err != nil {
		return fmt.Errorf("failed to enable PTI: %w", err)
	}
	s.enabled = true
	glog.V(1).Infof("dpti: enabled %s port %d", s.props, s.port)
	return nil
}

// Port returns the enabled port index.
func (s *Session) Port() int { return s.port }

// Properties returns the enabled port's properties.
func (s *Session) Properties() Properties { return s.props }

// Device returns the underlying device.
func (s *Session) Device() Device { return s.dev }

// Transfer performs a blocking exchange over the enabled port.
func (s *Session) Transfer(out, in []byte) error {
	if s.closed {
		return errors.New("dpti: session closed")
	}
	return s.dev.Transfer(out, in, false)
}

// Close disables the port and closes the device. Both steps are attempted
// even if the first fails. Calling Close again is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.enabled {
		if err := s.dev.Disable(); err != nil {
			errs = append(errs, fmt.Errorf("failed to disable PTI port: %w", err))
		}
		s.enabled = false
	}
	if err := s.dev.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close device handle: %w", err))
	}
	return errors.Join(errs...)
}
