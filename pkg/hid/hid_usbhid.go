package hid

import (
	"context"
	"fmt"
	"log/slog"

	usbhid "rafaelmartins.com/p/usbhid"
)

type usbManager struct{}

func newManager() (Manager, error) { return &usbManager{}, nil }

func (m *usbManager) List() ([]Info, error) {
	devs, err := usbhid.Enumerate(nil)
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(devs))
	for _, d := range devs {
		out = append(out, Info{
			Path:         d.Path(),
			VendorID:     d.VendorId(),
			ProductID:    d.ProductId(),
			Serial:       d.SerialNumber(),
			Product:      d.Product(),
			Manufacturer: d.Manufacturer(),
		})
	}
	return out, nil
}

func (m *usbManager) Open(info Info) (Device, error) {
	d, err := usbhid.Get(func(dev *usbhid.Device) bool {
		return dev.Path() == info.Path
	}, true, false)
	if err != nil {
		return nil, err
	}
	return &usbDevice{d: d}, nil
}

func (m *usbManager) OpenVIDPID(vendorID, productID uint16) (Device, error) {
	d, err := usbhid.Get(func(dev *usbhid.Device) bool {
		return dev.VendorId() == vendorID && dev.ProductId() == productID
	}, true, false)
	if err != nil {
		return nil, err
	}
	return &usbDevice{d: d}, nil
}

type usbDevice struct {
	d *usbhid.Device
}

func (d *usbDevice) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := d.d.SetOutputReport(p[0], p[1:]); err != nil {
		return 0, fmt.Errorf("output report: %w", err)
	}
	return len(p), nil
}

func (d *usbDevice) SendFeatureReport(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := d.d.SetFeatureReport(p[0], p[1:]); err != nil {
		return 0, fmt.Errorf("feature report: %w", err)
	}
	return len(p), nil
}

func (d *usbDevice) GetFeatureReport(reportID byte, length int) ([]byte, error) {
	buf, err := d.d.GetFeatureReport(reportID)
	if err != nil {
		return nil, fmt.Errorf("feature report %d: %w", reportID, err)
	}
	report := make([]byte, length)
	report[0] = reportID
	copy(report[1:], buf)
	return report, nil
}

// PollReports reads input reports until ctx is done or the device goes
// away. Cancellation closes the handle to unblock the pending read.
func (d *usbDevice) PollReports(ctx context.Context) <-chan Report {
	out := make(chan Report)

	go func() {
		<-ctx.Done()
		_ = d.Close()
	}()

	go func() {
		defer close(out)
		for {
			id, buf, err := d.d.GetInputReport()
			if err != nil {
				if ctx.Err() == nil {
					slog.Info("reading report failed", slog.Any("error", err))
				}
				return
			}
			select {
			case out <- Report{ID: id, Data: append([]byte(nil), buf...)}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (d *usbDevice) Close() error { return d.d.Close() }
