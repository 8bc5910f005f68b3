//go:build !adept

package dpti

// Without the Adept runtime every entry point fails with ercNotAvailable.
// ercTransferCancelled stands in for the runtime's code so the simulator can
// still report timeouts.

var ercTransferCancelled ERC = 3003

func adeptOpen(name string) (hif, ERC) {
	return hifInvalid, ercNotAvailable
}

func (h hif) adeptClose() ERC {
	return ercNotAvailable
}

func (h hif) adeptPortCount() (int, ERC) {
	return 0, ercNotAvailable
}

func (h hif) adeptPortProperties(port int) (Properties, ERC) {
	return 0, ercNotAvailable
}

func (h hif) adeptEnable(port int) ERC {
	return ercNotAvailable
}

func (h hif) adeptDisable() ERC {
	return ercNotAvailable
}

func (h hif) adeptIO(out, in []byte, overlapped bool) ERC {
	return ercNotAvailable
}
