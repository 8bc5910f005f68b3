//go:build adept

package dpti

/*
#cgo LDFLAGS: -ldmgr -ldpti
#include <stdlib.h>
#include "dpcdecl.h"
#include "dmgr.h"
#include "dpti.h"
*/
import "C"

import (
	"unsafe"
)

var ercTransferCancelled = ERC(C.ercTransferCancelled)

func lastErc() ERC {
	e := ERC(C.DmgrGetLastError())
	if e == ercNoError {
		// The call failed without recording a reason.
		return -1
	}
	return e
}

func adeptOpen(name string) (hif, ERC) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var h C.HIF
	if C.DmgrOpen(&h, cname) == 0 {
		return hifInvalid, lastErc()
	}
	return hif(h), ercNoError
}

func (h hif) adeptClose() ERC {
	if C.DmgrClose(C.HIF(h)) == 0 {
		return lastErc()
	}
	return ercNoError
}

func (h hif) adeptPortCount() (int, ERC) {
	var n C.INT32
	if C.DptiGetPortCount(C.HIF(h), &n) == 0 {
		return 0, lastErc()
	}
	return int(n), ercNoError
}

func (h hif) adeptPortProperties(port int) (Properties, ERC) {
	var dprp C.DPRP
	if C.DptiGetPortProperties(C.HIF(h), C.INT32(port), &dprp) == 0 {
		return 0, lastErc()
	}
	var p Properties
	if dprp&C.dprpPtiAsynchronous != 0 {
		p |= PropAsynchronous
	}
	if dprp&C.dprpPtiSynchronous != 0 {
		p |= PropSynchronous
	}
	return p, ercNoError
}

func (h hif) adeptEnable(port int) ERC {
	if C.DptiEnableEx(C.HIF(h), C.INT32(port)) == 0 {
		return lastErc()
	}
	return ercNoError
}

func (h hif) adeptDisable() ERC {
	if C.DptiDisable(C.HIF(h)) == 0 {
		return lastErc()
	}
	return ercNoError
}

func (h hif) adeptIO(out, in []byte, overlapped bool) ERC {
	var pOut, pIn *C.BYTE
	if len(out) > 0 {
		pOut = (*C.BYTE)(unsafe.Pointer(&out[0]))
	}
	if len(in) > 0 {
		pIn = (*C.BYTE)(unsafe.Pointer(&in[0]))
	}
	var overlap C.BOOL
	if overlapped {
		overlap = 1
	}
	if C.DptiIO(C.HIF(h), pOut, C.DWORD(len(out)), pIn, C.DWORD(len(in)), overlap) == 0 {
		return lastErc()
	}
	return ercNoError
}
