// Package deck drives button-grid display panels over USB HID: fill keys
// with colors or images, set brightness, reset to the standby logo, query
// identity, and stream de-duplicated key press/release events.
//
// Key indices are logical: row-major, left to right, top to bottom.
// Translation into each model's native wire order happens inside the
// driver. One Device owns one open transport handle; write operations are
// synchronous and must be serialized by the caller, while the key event
// stream runs independently on the read path.
package deck

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/seagrayinc/keygrid/internal/frame"
	"github.com/seagrayinc/keygrid/internal/input"
	"github.com/seagrayinc/keygrid/internal/keymap"
	"github.com/seagrayinc/keygrid/internal/pixel"
	"github.com/seagrayinc/keygrid/pkg/hid"
)

// KeyEvent is one key changing state, in logical numbering.
type KeyEvent struct {
	Key     int
	Pressed bool
}

// Device is an open panel session.
type Device struct {
	props Properties
	dev   hid.Device

	resetOnClose bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	keysOnce sync.Once
	events   chan KeyEvent
}

// Option configures a Device at construction.
type Option func(*Device)

// WithResetOnClose makes Close restore the standby logo before releasing
// the transport.
func WithResetOnClose() Option {
	return func(d *Device) { d.resetOnClose = true }
}

// New wraps an already-open transport handle with the driver core for the
// given model properties.
func New(dev hid.Device, props Properties, opts ...Option) (*Device, error) {
	if err := props.Validate(); err != nil {
		return nil, err
	}
	d := &Device{props: props, dev: dev}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Open enumerates attached HID devices and opens the first one matching
// the built-in model table.
func Open(opts ...Option) (*Device, error) {
	mgr, err := hid.NewManager()
	if err != nil {
		return nil, err
	}
	infos, err := mgr.List()
	if err != nil {
		return nil, fmt.Errorf("deck: enumerate: %w", err)
	}
	for _, info := range infos {
		if info.VendorID != VendorID {
			continue
		}
		props, ok := PropertiesByProductID(info.ProductID)
		if !ok {
			continue
		}
		dev, err := mgr.Open(info)
		if err != nil {
			return nil, fmt.Errorf("deck: open %s: %w", info.Path, err)
		}
		return New(dev, props, opts...)
	}
	return nil, ErrNoDevice
}

// OpenPath opens the device at a specific enumerated path with explicit
// model properties, for models missing from the built-in table.
func OpenPath(path string, props Properties, opts ...Option) (*Device, error) {
	mgr, err := hid.NewManager()
	if err != nil {
		return nil, err
	}
	dev, err := mgr.Open(hid.Info{Path: path})
	if err != nil {
		return nil, fmt.Errorf("deck: open %s: %w", path, err)
	}
	return New(dev, props, opts...)
}

// Properties returns the model record this session was built with.
func (d *Device) Properties() Properties { return d.props }

func (d *Device) gate() error {
	if d.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (d *Device) rtl() bool { return d.props.KeyOrder == KeyOrderRTL }

// FillColor fills one key with a solid color.
func (d *Device) FillColor(key, r, g, b int) error {
	if err := d.gate(); err != nil {
		return err
	}
	if err := d.checkKey(key); err != nil {
		return err
	}
	if err := checkColor(r, g, b); err != nil {
		return err
	}
	buf := pixel.Solid(pixel.RGB, d.props.IconSize, byte(r), byte(g), byte(b))
	return d.fill(key, buf, FormatRGB, 0, d.props.IconSize*3)
}

// FillImage fills one key with an icon-sized pixel buffer in the given
// format (FormatRGB, FormatRGBA, FormatBGR or FormatBGRA).
func (d *Device) FillImage(key int, buf []byte, format string) error {
	if err := d.gate(); err != nil {
		return err
	}
	if err := d.checkKey(key); err != nil {
		return err
	}
	f, err := d.checkImage(buf, format, 1)
	if err != nil {
		return err
	}
	return d.fill(key, buf, format, 0, d.props.IconSize*f.BytesPerPixel())
}

// FillPanel fills every key from one panel-sized buffer laid out
// row-major, each key's tile at its logical position.
func (d *Device) FillPanel(buf []byte, format string) error {
	if err := d.gate(); err != nil {
		return err
	}
	f, err := d.checkImage(buf, format, d.props.Keys())
	if err != nil {
		return err
	}

	iconRowBytes := d.props.IconSize * f.BytesPerPixel()
	stride := iconRowBytes * d.props.Columns
	for key := 0; key < d.props.Keys(); key++ {
		row := key / d.props.Columns
		col := key % d.props.Columns
		offset := stride*d.props.IconSize*row + iconRowBytes*col
		if err := d.fill(key, buf, format, offset, stride); err != nil {
			return err
		}
	}
	return nil
}

// ClearKey fills one key with black.
func (d *Device) ClearKey(key int) error {
	return d.FillColor(key, 0, 0, 0)
}

// ClearAllKeys clears every key in ascending logical order.
func (d *Device) ClearAllKeys() error {
	for key := 0; key < d.props.Keys(); key++ {
		if err := d.ClearKey(key); err != nil {
			return err
		}
	}
	return nil
}

// fill converts one icon region and writes its packets. All validation
// has already happened.
func (d *Device) fill(key int, src []byte, format string, offset, stride int) error {
	var wire []byte
	if d.props.Convert != nil {
		var err error
		wire, err = d.props.Convert(src, format, offset, stride)
		if err != nil {
			return fmt.Errorf("deck: convert image: %w", err)
		}
	} else {
		wire = pixel.Convert(pixel.Format(d.props.WireFormat), src, pixel.Format(format), offset, stride, d.props.IconSize)
	}

	native := keymap.ToNative(key, d.props.Columns, d.rtl())
	g := frame.Geometry{PacketLen: d.props.PacketLen}
	for _, packet := range frame.Split(g, native, wire) {
		if _, err := d.dev.Write(packet); err != nil {
			return fmt.Errorf("deck: write image packet: %w", err)
		}
	}
	return nil
}

// SetBrightness sets the backlight as a percentage in [0, 100].
func (d *Device) SetBrightness(pct int) error {
	if err := d.gate(); err != nil {
		return err
	}
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidBrightness, pct)
	}
	report := frame.Brightness(d.props.BrightnessPrefix, d.props.FeatureReportLen, pct)
	if _, err := d.dev.SendFeatureReport(report); err != nil {
		return fmt.Errorf("deck: set brightness: %w", err)
	}
	return nil
}

// ResetToLogo restores the device's standby screen.
func (d *Device) ResetToLogo() error {
	if err := d.gate(); err != nil {
		return err
	}
	report := frame.Reset(d.props.ResetCommand, d.props.FeatureReportLen)
	if _, err := d.dev.SendFeatureReport(report); err != nil {
		return fmt.Errorf("deck: reset to logo: %w", err)
	}
	return nil
}

// FirmwareVersion reads the firmware revision string from the device.
func (d *Device) FirmwareVersion() (string, error) {
	if err := d.gate(); err != nil {
		return "", err
	}
	report, err := d.dev.GetFeatureReport(d.props.FirmwareReportID, d.props.FeatureReportLen)
	if err != nil {
		return "", fmt.Errorf("deck: firmware version: %w", err)
	}
	text, _, _ := bytes.Cut(report[d.props.FirmwareOffset:], []byte{0})
	return string(text), nil
}

// SerialNumber reads the serial number string from the device.
func (d *Device) SerialNumber() (string, error) {
	if err := d.gate(); err != nil {
		return "", err
	}
	report, err := d.dev.GetFeatureReport(d.props.SerialReportID, d.props.FeatureReportLen)
	if err != nil {
		return "", fmt.Errorf("deck: serial number: %w", err)
	}
	return string(report[d.props.SerialOffset:]), nil
}

// Keys starts the input read loop and returns the key event stream. The
// channel is closed when ctx is done or the transport read path fails;
// transport errors on this path are logged, not returned. Subsequent
// calls return the same channel.
func (d *Device) Keys(ctx context.Context) <-chan KeyEvent {
	d.keysOnce.Do(func() {
		d.events = make(chan KeyEvent)
		tracker := input.New(d.props.Keys(), d.props.KeyDataOffset, func(n int) int {
			return keymap.ToLogical(n, d.props.Columns, d.rtl())
		})
		reports := d.dev.PollReports(ctx)

		go func() {
			defer close(d.events)
			for report := range reports {
				for _, tr := range tracker.Apply(report.Bytes()) {
					select {
					case d.events <- KeyEvent{Key: tr.Key, Pressed: tr.Pressed}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	})
	return d.events
}

// Close tears the session down: optionally restores the standby logo,
// then releases the transport handle. It is idempotent; every further
// operation fails with ErrClosed. The best-effort reset never blocks
// teardown.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		if d.resetOnClose {
			report := frame.Reset(d.props.ResetCommand, d.props.FeatureReportLen)
			_, _ = d.dev.SendFeatureReport(report)
		}
		d.closeErr = d.dev.Close()
	})
	return d.closeErr
}
