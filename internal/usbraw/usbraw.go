// Package usbraw enumerates panel hardware at the raw USB layer using a
// separate stack from the HID transport. The CLI uses it as a diagnostic:
// a device visible here but absent from the HID listing usually means an
// OS driver or permission problem, not a missing panel.
package usbraw

import (
	"fmt"

	"github.com/karalabe/usb"
)

// Info is one enumerated device.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Serial       string
	Product      string
	Manufacturer string
}

// List returns every attached device with the given vendor ID, across
// both raw USB and HID enumeration paths.
func List(vendorID uint16) ([]Info, error) {
	infos, err := usb.Enumerate(vendorID, 0)
	if err != nil {
		return nil, fmt.Errorf("usb enumerate: %w", err)
	}

	out := make([]Info, 0, len(infos))
	for _, d := range infos {
		out = append(out, Info{
			Path:         d.Path,
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Serial:       d.Serial,
			Product:      d.Product,
			Manufacturer: d.Manufacturer,
		})
	}
	return out, nil
}
