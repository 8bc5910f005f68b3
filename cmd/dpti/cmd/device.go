package cmd

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/capture"
	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/dpti"
	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/tdc"
)

// simSeed keeps simulated captures reproducible.
const simSeed = 1

// openDevice resolves a -d argument. The sim names select an in-memory
// device; sim:tdc answers capture requests with words in the given layout.
var openDevice = func(name string, layout tdc.Layout) (dpti.Device, error) {
	if err := dpti.ValidateName(name); err != nil {
		return nil, err
	}

	switch name {
	case "sim", "sim:loopback":
		return dpti.NewSimDevice(), nil
	case "sim:tdc":
		sim := dpti.NewSimDevice()
		sim.OnTransfer = capture.SimResponder(tdc.NewGenerator(layout, simSeed))
		return sim, nil
	}

	dev, err := dpti.Open(name)
	if err != nil {
		return nil, fmt.Errorf("unable to open device: %w", err)
	}
	return dev, nil
}

// openSession opens name and enables port on it.
func openSession(name string, port int, layout tdc.Layout) (*dpti.Session, error) {
	dev, err := openDevice(name, layout)
	if err != nil {
		return nil, err
	}
	sess, err := dpti.OpenPort(dev, port)
	if err != nil {
		if errors.Is(err, dpti.ErrNoPorts) {
			return nil, fmt.Errorf("%s does not support DPTI", name)
		}
		return nil, err
	}
	return sess, nil
}
