package deck

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seagrayinc/keygrid/pkg/hid"
)

// testProps is a small synthetic model: 3x1 grid, 2x2 icons, 24-byte
// packets (8 payload bytes, so a 12-byte icon takes two packets).
func testProps() Properties {
	return V1Defaults(Properties{
		Model:         "test",
		Columns:       3,
		Rows:          1,
		IconSize:      2,
		KeyOrder:      KeyOrderLTR,
		KeyDataOffset: 1,
		PacketLen:     24,
		WireFormat:    FormatBGR,
	})
}

func newTestDevice(t *testing.T, props Properties, opts ...Option) (*Device, *hid.MockDevice) {
	t.Helper()
	mock := hid.NewMockDevice()
	d, err := New(mock, props, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d, mock
}

func TestNewRejectsBadProperties(t *testing.T) {
	props := testProps()
	props.Columns = 0
	if _, err := New(hid.NewMockDevice(), props); err == nil {
		t.Fatal("expected error for zero columns")
	}

	props = testProps()
	props.PacketLen = 16
	if _, err := New(hid.NewMockDevice(), props); err == nil {
		t.Fatal("expected error for header-only packet length")
	}
}

func TestFillColorPackets(t *testing.T) {
	d, mock := newTestDevice(t, testProps())
	if err := d.FillColor(1, 10, 20, 30); err != nil {
		t.Fatalf("FillColor failed: %v", err)
	}

	writes := mock.Writes()
	if len(writes) != 2 { // ceil(12 / 8)
		t.Fatalf("packet count = %d, want 2", len(writes))
	}
	for i, p := range writes {
		if len(p) != 24 {
			t.Fatalf("packet %d length = %d, want 24", i, len(p))
		}
		if p[0] != 0x02 || p[1] != 0x01 {
			t.Errorf("packet %d markers = %#x %#x", i, p[0], p[1])
		}
		if p[5] != 2 { // key 1, 1-based
			t.Errorf("packet %d key byte = %d, want 2", i, p[5])
		}
	}
	if writes[0][4] != 0 || writes[1][4] != 1 {
		t.Error("isLast flag on wrong packet")
	}

	// bgr wire order
	var payload []byte
	payload = append(payload, writes[0][16:]...)
	payload = append(payload, writes[1][16:]...)
	if !bytes.Equal(payload[:3], []byte{30, 20, 10}) {
		t.Errorf("first wire pixel = %v, want [30 20 10]", payload[:3])
	}
}

func TestFillColorValidation(t *testing.T) {
	d, mock := newTestDevice(t, testProps())

	if err := d.FillColor(3, 0, 0, 0); !errors.Is(err, ErrInvalidKeyIndex) {
		t.Errorf("key 3: err = %v, want ErrInvalidKeyIndex", err)
	}
	if err := d.FillColor(-1, 0, 0, 0); !errors.Is(err, ErrInvalidKeyIndex) {
		t.Errorf("key -1: err = %v, want ErrInvalidKeyIndex", err)
	}
	if err := d.FillColor(0, 256, 0, 0); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("r 256: err = %v, want ErrInvalidColor", err)
	}
	if err := d.FillColor(0, 0, -1, 0); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("g -1: err = %v, want ErrInvalidColor", err)
	}
	if n := len(mock.Writes()); n != 0 {
		t.Fatalf("%d packets sent despite validation failure", n)
	}
}

func TestFillImageValidation(t *testing.T) {
	d, mock := newTestDevice(t, testProps())

	short := make([]byte, 2*2*3-1)
	if err := d.FillImage(0, short, FormatRGB); !errors.Is(err, ErrInvalidImageLength) {
		t.Errorf("short buffer: err = %v, want ErrInvalidImageLength", err)
	}
	if err := d.FillImage(0, make([]byte, 12), "yuv"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("bad format: err = %v, want ErrUnknownFormat", err)
	}
	if n := len(mock.Writes()); n != 0 {
		t.Fatalf("%d packets sent despite validation failure", n)
	}
}

func TestFillImageRGBA(t *testing.T) {
	d, mock := newTestDevice(t, testProps())
	buf := make([]byte, 2*2*4)
	for i := 0; i < 4; i++ {
		buf[i*4+0] = 1 // r
		buf[i*4+1] = 2 // g
		buf[i*4+2] = 3 // b
		buf[i*4+3] = 0xFF
	}
	if err := d.FillImage(0, buf, FormatRGBA); err != nil {
		t.Fatalf("FillImage failed: %v", err)
	}
	first := mock.Writes()[0]
	if !bytes.Equal(first[16:19], []byte{3, 2, 1}) {
		t.Errorf("first wire pixel = %v, want [3 2 1]", first[16:19])
	}
}

func TestFillPanelTileOffsets(t *testing.T) {
	// 2x2 grid of 1x1 icons: the panel buffer is 4 pixels row-major and
	// every key must receive exactly its own pixel.
	props := testProps()
	props.Columns = 2
	props.Rows = 2
	props.IconSize = 1

	d, mock := newTestDevice(t, props)
	panel := []byte{
		10, 0, 0, 20, 0, 0,
		30, 0, 0, 40, 0, 0,
	}
	if err := d.FillPanel(panel, FormatRGB); err != nil {
		t.Fatalf("FillPanel failed: %v", err)
	}

	writes := mock.Writes()
	if len(writes) != 4 { // one single-packet fill per key
		t.Fatalf("packet count = %d, want 4", len(writes))
	}
	for i, wantRed := range []byte{10, 20, 30, 40} {
		p := writes[i]
		if p[5] != byte(i+1) {
			t.Errorf("fill %d targeted key byte %d, want %d", i, p[5], i+1)
		}
		if p[16+2] != wantRed { // bgr, red at +2
			t.Errorf("fill %d red = %d, want %d", i, p[16+2], wantRed)
		}
	}
}

func TestFillPanelLengthCheck(t *testing.T) {
	d, mock := newTestDevice(t, testProps())
	if err := d.FillPanel(make([]byte, 10), FormatRGB); !errors.Is(err, ErrInvalidImageLength) {
		t.Errorf("err = %v, want ErrInvalidImageLength", err)
	}
	if n := len(mock.Writes()); n != 0 {
		t.Fatalf("%d packets sent despite validation failure", n)
	}
}

func TestRTLKeyMapping(t *testing.T) {
	props := testProps()
	props.KeyOrder = KeyOrderRTL

	d, mock := newTestDevice(t, props)
	if err := d.FillColor(0, 1, 2, 3); err != nil {
		t.Fatalf("FillColor failed: %v", err)
	}
	// Logical 0 on a 3-column rtl row is native 2, wire byte 3.
	if got := mock.Writes()[0][5]; got != 3 {
		t.Errorf("key byte = %d, want 3", got)
	}
}

func TestClearAllKeysAscending(t *testing.T) {
	props := V1Defaults(Properties{
		Model:         "wide",
		Columns:       5,
		Rows:          3,
		IconSize:      1,
		KeyDataOffset: 1,
		PacketLen:     24,
		WireFormat:    FormatBGR,
	})
	d, mock := newTestDevice(t, props)
	if err := d.ClearAllKeys(); err != nil {
		t.Fatalf("ClearAllKeys failed: %v", err)
	}

	writes := mock.Writes()
	if len(writes) != 15 { // one packet per 1x1 fill, 15 keys
		t.Fatalf("packet count = %d, want 15", len(writes))
	}
	for i, p := range writes {
		if p[5] != byte(i+1) {
			t.Errorf("fill %d key byte = %d, want %d", i, p[5], i+1)
		}
		if !bytes.Equal(p[16:19], []byte{0, 0, 0}) {
			t.Errorf("fill %d not black: %v", i, p[16:19])
		}
	}
}

func TestSetBrightness(t *testing.T) {
	d, mock := newTestDevice(t, testProps())

	if err := d.SetBrightness(150); !errors.Is(err, ErrInvalidBrightness) {
		t.Errorf("150: err = %v, want ErrInvalidBrightness", err)
	}
	if err := d.SetBrightness(-1); !errors.Is(err, ErrInvalidBrightness) {
		t.Errorf("-1: err = %v, want ErrInvalidBrightness", err)
	}
	if n := len(mock.FeatureWrites()); n != 0 {
		t.Fatalf("%d feature reports sent despite validation failure", n)
	}

	if err := d.SetBrightness(50); err != nil {
		t.Fatalf("SetBrightness failed: %v", err)
	}
	want := []byte{0x05, 0x55, 0xAA, 0xD1, 0x01, 50, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	got := mock.FeatureWrites()
	if len(got) != 1 || !bytes.Equal(got[0], want) {
		t.Errorf("feature report = %v, want %v", got, want)
	}
}

func TestResetToLogo(t *testing.T) {
	d, mock := newTestDevice(t, testProps())
	if err := d.ResetToLogo(); err != nil {
		t.Fatalf("ResetToLogo failed: %v", err)
	}
	want := []byte{0x0B, 0x63, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	got := mock.FeatureWrites()
	if len(got) != 1 || !bytes.Equal(got[0], want) {
		t.Errorf("feature report = %v, want %v", got, want)
	}
}

func TestFirmwareVersion(t *testing.T) {
	d, mock := newTestDevice(t, testProps())
	mock.Feature[4] = []byte{0, 0, 0, 0, '1', '.', '0', '0', 0, 0, 0, 0, 0, 0, 0, 0}
	got, err := d.FirmwareVersion()
	if err != nil {
		t.Fatalf("FirmwareVersion failed: %v", err)
	}
	if got != "1.00" {
		t.Errorf("firmware = %q, want %q", got, "1.00")
	}
}

func TestSerialNumber(t *testing.T) {
	d, mock := newTestDevice(t, testProps())
	mock.Feature[3] = []byte{0, 0, 0, 0, 'A', 'L', '1', '2', '3', '4', '5', '6', '7', '8', '9', '0'}
	got, err := d.SerialNumber()
	if err != nil {
		t.Fatalf("SerialNumber failed: %v", err)
	}
	if got != "AL1234567890" {
		t.Errorf("serial = %q, want %q", got, "AL1234567890")
	}
}

func TestKeyEvents(t *testing.T) {
	d, mock := newTestDevice(t, testProps())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	events := d.Keys(ctx)

	// Key 1 down, then the identical report again, then key 1 up.
	go func() {
		mock.Emit(hid.Report{ID: 0x01, Data: []byte{0, 1, 0, 0}})
		mock.Emit(hid.Report{ID: 0x01, Data: []byte{0, 1, 0, 0}})
		mock.Emit(hid.Report{ID: 0x01, Data: []byte{0, 0, 0, 0}})
	}()

	ev := <-events
	if ev.Key != 1 || !ev.Pressed {
		t.Fatalf("first event = %+v, want key 1 pressed", ev)
	}
	ev = <-events
	if ev.Key != 1 || ev.Pressed {
		t.Fatalf("second event = %+v, want key 1 released", ev)
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("unexpected event after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("event channel not closed after cancel")
	}
}

func TestCloseIdempotent(t *testing.T) {
	d, mock := newTestDevice(t, testProps())

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !mock.Closed() {
		t.Fatal("transport not closed")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close returned %v", err)
	}

	if err := d.FillColor(0, 0, 0, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("FillColor after close: err = %v, want ErrClosed", err)
	}
	if err := d.SetBrightness(50); !errors.Is(err, ErrClosed) {
		t.Errorf("SetBrightness after close: err = %v, want ErrClosed", err)
	}
	if _, err := d.FirmwareVersion(); !errors.Is(err, ErrClosed) {
		t.Errorf("FirmwareVersion after close: err = %v, want ErrClosed", err)
	}
}

func TestCloseWithReset(t *testing.T) {
	d, mock := newTestDevice(t, testProps(), WithResetOnClose())
	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	got := mock.FeatureWrites()
	if len(got) != 1 || got[0][0] != 0x0B || got[0][1] != 0x63 {
		t.Errorf("reset report on close = %v", got)
	}

	// A failing reset must not break teardown.
	d2, mock2 := newTestDevice(t, testProps(), WithResetOnClose())
	mock2.WriteErr = errors.New("unplugged")
	if err := d2.Close(); err != nil {
		t.Fatalf("Close with failing reset returned %v", err)
	}
}

func TestWriteErrorPropagates(t *testing.T) {
	d, mock := newTestDevice(t, testProps())
	mock.WriteErr = errors.New("unplugged")
	if err := d.FillColor(0, 1, 2, 3); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestBuiltinModels(t *testing.T) {
	for pid, want := range map[uint16]struct {
		keys     int
		rtl      bool
		packet   int
		iconSize int
	}{
		0x0060: {15, true, 8191, 72},
		0x0063: {6, false, 1024, 80},
		0x0090: {6, false, 1024, 80},
	} {
		p, ok := PropertiesByProductID(pid)
		if !ok {
			t.Fatalf("no properties for %04x", pid)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("%04x: invalid built-in table entry: %v", pid, err)
		}
		if p.Keys() != want.keys {
			t.Errorf("%04x: keys = %d, want %d", pid, p.Keys(), want.keys)
		}
		if (p.KeyOrder == KeyOrderRTL) != want.rtl {
			t.Errorf("%04x: key order mismatch", pid)
		}
		if p.PacketLen != want.packet {
			t.Errorf("%04x: packet length = %d, want %d", pid, p.PacketLen, want.packet)
		}
		if p.IconSize != want.iconSize {
			t.Errorf("%04x: icon size = %d, want %d", pid, p.IconSize, want.iconSize)
		}
	}
}
