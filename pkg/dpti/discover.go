package dpti

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/gousb"
)

// DeviceKind categorizes discovered devices.
type DeviceKind string

const (
	DeviceKindAdept DeviceKind = "adept"
	DeviceKindSim   DeviceKind = "simulator"
)

// USB identifiers of boards reachable through the Adept runtime.
const (
	VendorIDDigilent = 0x1443
	VendorIDFTDI     = 0x0403
)

// DeviceInfo describes a device that can be passed to Open.
type DeviceInfo struct {
	Name         string // connection string accepted by Open
	Kind         DeviceKind
	Description  string
	VendorID     uint16
	ProductID    uint16
	SerialNumber string
	Bus          int
	Address      int
}

// Label returns a user-friendly description.
func (i DeviceInfo) Label() string {
	if i.Description != "" {
		return i.Description
	}
	return fmt.Sprintf("%s (%04X:%04X)", string(i.Kind), i.VendorID, i.ProductID)
}

// SimDeviceNames lists the names that select a simulator instead of
// hardware.
var SimDeviceNames = []DeviceInfo{
	{Name: "sim", Kind: DeviceKindSim, Description: "Simulator (loopback)"},
	{Name: "sim:loopback", Kind: DeviceKindSim, Description: "Simulator (loopback)"},
	{Name: "sim:tdc", Kind: DeviceKindSim, Description: "Simulator (TDC word stream)"},
}

// Discover lists attached Digilent boards. FTDI-based boards are only
// reported when their manufacturer string names Digilent. The simulator
// entries are always appended so the tools can be exercised without
// hardware.
func Discover(ctx context.Context) ([]DeviceInfo, error) {
	var results []DeviceInfo
	usb := gousb.NewContext()
	defer usb.Close()

	devs, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		return desc.Vendor == VendorIDDigilent || desc.Vendor == VendorIDFTDI
	})
	for _, dev := range devs {
		if info, ok := classifyUSBDevice(dev); ok {
			results = append(results, info)
		}
		dev.Close()
	}
	if err != nil && err != gousb.ErrorAccess {
		return results, err
	}

	results = append(results, SimDeviceNames...)
	return results, ctx.Err()
}

func classifyUSBDevice(dev *gousb.Device) (DeviceInfo, bool) {
	manufacturer, _ := dev.Manufacturer()
	product, _ := dev.Product()
	serial, _ := dev.SerialNumber()

	if dev.Desc.Vendor != VendorIDDigilent && !strings.Contains(strings.ToLower(manufacturer), "digilent") {
		return DeviceInfo{}, false
	}

	info := DeviceInfo{
		Kind:         DeviceKindAdept,
		Description:  strings.TrimSpace(manufacturer + " " + product),
		VendorID:     uint16(dev.Desc.Vendor),
		ProductID:    uint16(dev.Desc.Product),
		SerialNumber: serial,
		Bus:          dev.Desc.Bus,
		Address:      dev.Desc.Address,
	}
	if serial != "" {
		info.Name = "SN:" + serial
	}
	return info, true
}
