package deck

import (
	"fmt"

	"github.com/seagrayinc/keygrid/internal/pixel"
)

// Input checks shared by the fill operations. All of them run before any
// buffer is converted or any packet is written, so an invalid call has no
// partial effect on the device.

func (d *Device) checkKey(key int) error {
	if key < 0 || key >= d.props.Keys() {
		return fmt.Errorf("%w: %d (panel has %d keys)", ErrInvalidKeyIndex, key, d.props.Keys())
	}
	return nil
}

func checkColor(r, g, b int) error {
	for _, c := range [3]int{r, g, b} {
		if c < 0 || c > 255 {
			return fmt.Errorf("%w: %d", ErrInvalidColor, c)
		}
	}
	return nil
}

// checkImage validates the format tag and the exact buffer length for a
// fill covering keys keys (1 for a single key, Keys() for the panel).
func (d *Device) checkImage(buf []byte, format string, keys int) (pixel.Format, error) {
	f := pixel.Format(format)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	want := d.props.IconSize * d.props.IconSize * f.BytesPerPixel() * keys
	if len(buf) != want {
		return "", fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidImageLength, len(buf), want)
	}
	return f, nil
}
