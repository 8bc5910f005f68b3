package dpti

import (
	"github.com/golang/glog"
)

// hif is an Adept interface handle.
type hif uint32

const hifInvalid hif = 0

// Open opens the device with the given user name, alias or connection
// string through the Adept device manager.
//
// Binaries built without the adept tag return an error matching
// ErrNotAvailable.
func Open(name string) (Device, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	h, e := adeptOpen(name)
	if e != ercNoError || h == hifInvalid {
		return nil, &Error{Op: "DmgrOpen", Device: name, Code: e}
	}
	glog.V(1).Infof("dpti: opened %q (hif %d)", name, h)
	return &adeptDevice{name: name, h: h}, nil
}

// adeptDevice converts Adept status codes into errors. It performs no
// locking; the runtime serializes calls on a handle.
type adeptDevice struct {
	name string
	h    hif
}

func (d *adeptDevice) PortCount() (int, error) {
	n, e := d.h.adeptPortCount()
	return n, d.err("DptiGetPortCount", e)
}

func (d *adeptDevice) PortProperties(port int) (Properties, error) {
	p, e := d.h.adeptPortProperties(port)
	return p, d.err("DptiGetPortProperties", e)
}

func (d *adeptDevice) Enable(port int) error {
	return d.err("DptiEnableEx", d.h.adeptEnable(port))
}

func (d *adeptDevice) Transfer(out, in []byte, overlapped bool) error {
	glog.V(2).Infof("dpti: %q transfer out=%d in=%d", d.name, len(out), len(in))
	return d.err("DptiIO", d.h.adeptIO(out, in, overlapped))
}

func (d *adeptDevice) Disable() error {
	return d.err("DptiDisable", d.h.adeptDisable())
}

func (d *adeptDevice) Close() error {
	if d.h == hifInvalid {
		return nil
	}
	err := d.err("DmgrClose", d.h.adeptClose())
	d.h = hifInvalid
	return err
}

// err converts a runtime status into an error, nil on success.
func (d *adeptDevice) err(op string, e ERC) error {
	if e == ercNoError {
		return nil
	}
	return &Error{Op: op, Device: d.name, Code: e}
}

var _ Device = &adeptDevice{}
