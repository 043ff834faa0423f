// Package hid is the transport boundary of the driver: report-level I/O
// against an opened USB HID device, plus enumeration of candidate devices.
// The deck core depends only on the Device interface; production code uses
// the usbhid-backed implementation and tests use MockDevice.
package hid

import "context"

// Report is one input report delivered by the device, report ID split out.
type Report struct {
	ID   byte
	Data []byte
}

// Bytes returns the raw report with the ID prepended.
func (r Report) Bytes() []byte {
	b := make([]byte, len(r.Data)+1)
	b[0] = r.ID
	copy(b[1:], r.Data)
	return b
}

// Device represents an opened HID device capable of report I/O.
type Device interface {
	// Write sends one output report; data[0] is the report ID.
	Write(data []byte) (int, error)

	// SendFeatureReport sends a feature report; data[0] is the report ID.
	SendFeatureReport(data []byte) (int, error)

	// GetFeatureReport reads the feature report with the given ID. The
	// returned slice is exactly length bytes with the report ID at index 0,
	// zero-padded if the device returned fewer bytes.
	GetFeatureReport(reportID byte, length int) ([]byte, error)

	// PollReports starts a goroutine that reads input reports from the
	// device and emits them on the returned channel until ctx is done or
	// the read path fails. The channel is closed on exit.
	PollReports(ctx context.Context) <-chan Report

	Close() error
}

// Info describes an enumerated HID device.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Serial       string
	Product      string
	Manufacturer string
}

// Manager enumerates and opens HID devices.
type Manager interface {
	List() ([]Info, error)
	Open(info Info) (Device, error)
	OpenVIDPID(vendorID, productID uint16) (Device, error)
}

// NewManager returns the usbhid-backed manager.
func NewManager() (Manager, error) {
	return newManager()
}
