package deck

import (
	"fmt"

	"github.com/seagrayinc/keygrid/internal/frame"
	"github.com/seagrayinc/keygrid/internal/pixel"
)

// VendorID is the USB vendor ID shared by the supported panel family.
const VendorID uint16 = 0x0FD9

// KeyOrder is the direction a device numbers keys within each row.
type KeyOrder int

const (
	KeyOrderLTR KeyOrder = iota // native order matches the logical order
	KeyOrderRTL                 // each row numbered right to left
)

// Pixel formats accepted by FillImage and FillPanel.
const (
	FormatRGB  = string(pixel.RGB)
	FormatRGBA = string(pixel.RGBA)
	FormatBGR  = string(pixel.BGR)
	FormatBGRA = string(pixel.BGRA)
)

// ConvertFunc re-encodes one icon-sized region of src into the device's
// wire image format. It must be pure: a panel fill calls it once per key
// with different offsets into one shared buffer.
type ConvertFunc func(src []byte, format string, offset, stride int) ([]byte, error)

// Properties describes one device model. The driver core is generic over
// this record; nothing model-specific lives outside it.
type Properties struct {
	Model     string
	ProductID uint16

	Columns  int
	Rows     int
	IconSize int // icon edge length in pixels
	KeyOrder KeyOrder

	// KeyDataOffset is the byte offset of per-key state within a raw
	// input report, report ID byte included.
	KeyDataOffset int

	// PacketLen is the total length of one image output report.
	PacketLen int

	// WireFormat is the pixel order the device expects; used by the
	// default image converter. Convert, when set, replaces the default
	// converter entirely (e.g. for models wanting a compressed encoding).
	WireFormat string
	Convert    ConvertFunc

	BrightnessPrefix []byte
	ResetCommand     []byte
	FeatureReportLen int
	FirmwareReportID byte
	FirmwareOffset   int
	SerialReportID   byte
	SerialOffset     int
}

// Keys returns the number of keys on the panel.
func (p Properties) Keys() int { return p.Columns * p.Rows }

// Validate checks the structural invariants of a model record.
func (p Properties) Validate() error {
	if p.Columns <= 0 || p.Rows <= 0 || p.IconSize <= 0 {
		return fmt.Errorf("deck: model %q: grid geometry must be positive", p.Model)
	}
	if p.PacketLen <= frame.HeaderLen {
		return fmt.Errorf("deck: model %q: packet length %d leaves no payload", p.Model, p.PacketLen)
	}
	if p.Convert == nil && !pixel.Format(p.WireFormat).Valid() {
		return fmt.Errorf("deck: model %q: unknown wire format %q", p.Model, p.WireFormat)
	}
	if p.FeatureReportLen <= len(p.BrightnessPrefix) || p.FeatureReportLen <= len(p.ResetCommand) {
		return fmt.Errorf("deck: model %q: feature report length %d too short", p.Model, p.FeatureReportLen)
	}
	return nil
}

// V1Defaults fills in the control-channel constants shared by the whole
// first-generation family.
func V1Defaults(p Properties) Properties {
	p.BrightnessPrefix = []byte{0x05, 0x55, 0xAA, 0xD1, 0x01}
	p.ResetCommand = []byte{0x0B, 0x63}
	p.FeatureReportLen = 17
	p.FirmwareReportID = 4
	p.FirmwareOffset = 5
	p.SerialReportID = 3
	p.SerialOffset = 5
	return p
}

var models = map[uint16]Properties{
	0x0060: V1Defaults(Properties{
		Model:         "original",
		ProductID:     0x0060,
		Columns:       5,
		Rows:          3,
		IconSize:      72,
		KeyOrder:      KeyOrderRTL,
		KeyDataOffset: 1,
		PacketLen:     8191,
		WireFormat:    FormatBGR,
	}),
	0x0063: V1Defaults(Properties{
		Model:         "mini",
		ProductID:     0x0063,
		Columns:       3,
		Rows:          2,
		IconSize:      80,
		KeyOrder:      KeyOrderLTR,
		KeyDataOffset: 1,
		PacketLen:     1024,
		WireFormat:    FormatBGR,
	}),
	0x0090: V1Defaults(Properties{
		Model:         "mini-v2",
		ProductID:     0x0090,
		Columns:       3,
		Rows:          2,
		IconSize:      80,
		KeyOrder:      KeyOrderLTR,
		KeyDataOffset: 1,
		PacketLen:     1024,
		WireFormat:    FormatBGR,
	}),
}

// PropertiesByProductID looks up the built-in table.
func PropertiesByProductID(pid uint16) (Properties, bool) {
	p, ok := models[pid]
	return p, ok
}

// Models returns the built-in property table, for listing.
func Models() []Properties {
	out := make([]Properties, 0, len(models))
	for _, p := range models {
		out = append(out, p)
	}
	return out
}
