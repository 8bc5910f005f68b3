package dpti

import (
	"errors"
	"fmt"
	"sync"
)

// TransferHook lets a SimDevice emulate the FPGA logic behind a port.
type TransferHook func(port int, out, in []byte) error

// SimDevice is an in-memory device useful for tests and for running the
// tools without hardware. By default it behaves like the loopback demo
// design: bytes sent on the port are queued and returned by later reads.
// A read that asks for more than is queued fails with a timeout.
type SimDevice struct {
	Ports []Properties

	// OnTransfer replaces the loopback behaviour when set.
	OnTransfer TransferHook

	mu      sync.Mutex
	fifo    []byte
	port    int
	enabled bool
	closed  bool
	calls   []string
}

// NewSimDevice returns a device with an asynchronous port 0 and a
// synchronous port 1.
func NewSimDevice() *SimDevice {
	return &SimDevice{
		Ports: []Properties{PropAsynchronous, PropSynchronous},
	}
}

// Calls returns the sequence of device methods invoked so far.
func (s *SimDevice) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Closed reports whether Close has been called.
func (s *SimDevice) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *SimDevice) record(call string) error {
	s.calls = append(s.calls, call)
	if s.closed {
		return errors.New("dpti: sim: device closed")
	}
	return nil
}

func (s *SimDevice) PortCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("PortCount"); err != nil {
		return 0, err
	}
	return len(s.Ports), nil
}

func (s *SimDevice) PortProperties(port int) (Properties, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("PortProperties"); err != nil {
		return 0, err
	}
	if port < 0 || port >= len(s.Ports) {
		return 0, &PortRangeError{Port: port, Count: len(s.Ports)}
	}
	return s.Ports[port], nil
}

func (s *SimDevice) Enable(port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(fmt.Sprintf("Enable(%d)", port)); err != nil {
		return err
	}
	if port < 0 || port >= len(s.Ports) {
		return &PortRangeError{Port: port, Count: len(s.Ports)}
	}
	if s.enabled {
		return fmt.Errorf("dpti: sim: port %d already enabled", s.port)
	}
	s.port, s.enabled = port, true
	return nil
}

func (s *SimDevice) Transfer(out, in []byte, overlapped bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(fmt.Sprintf("Transfer(%d,%d)", len(out), len(in))); err != nil {
		return err
	}
	if !s.enabled {
		return errors.New("dpti: sim: no port enabled")
	}
	if s.OnTransfer != nil {
		return s.OnTransfer(s.port, out, in)
	}

	s.fifo = append(s.fifo, out...)
	n := copy(in, s.fifo)
	s.fifo = s.fifo[n:]
	if n < len(in) {
		return &Error{Op: "DptiIO", Code: ercTransferCancelled}
	}
	return nil
}

func (s *SimDevice) Disable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("Disable"); err != nil {
		return err
	}
	s.enabled = false
	s.fifo = nil
	return nil
}

func (s *SimDevice) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("Close"); err != nil {
		return err
	}
	s.closed = true
	return nil
}

var _ Device = &SimDevice{}
