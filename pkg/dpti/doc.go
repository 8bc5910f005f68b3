// Package dpti talks to the DPTI parallel transfer port of Digilent FPGA
// boards.
//
// Device access goes through the closed Adept runtime (libdmgr and libdpti).
// The binding is compiled only with the adept build tag:
//
//	go build -tags adept ./cmd/dpti
//
// Without the tag Open fails with an error matching ErrNotAvailable and only
// the simulator is usable.
//
// A port is used through a Session, which owns the device handle:
//
//	dev, err := dpti.Open("Genesys2")
//	if err != nil {
//		return err
//	}
//	sess, err := dpti.OpenPort(dev, 0)
//	if err != nil {
//		return err // dev already closed
//	}
//	defer sess.Close()
//	err = sess.Transfer(out, in)
//
// A device may implement an asynchronous port, a synchronous port, or one of
// each; the two kinds cannot be enabled at the same time.
package dpti
