// Package pixel reinterprets rectangular regions of raw pixel buffers
// between the channel layouts the driver accepts and the layout a device
// expects on the wire. There is no resampling or color management, only
// per-pixel channel reordering and alpha dropping.
package pixel

// Format identifies a source or wire channel layout.
type Format string

const (
	RGB  Format = "rgb"
	RGBA Format = "rgba"
	BGR  Format = "bgr"
	BGRA Format = "bgra"
)

// Valid reports whether f is one of the recognized layouts.
func (f Format) Valid() bool {
	switch f {
	case RGB, RGBA, BGR, BGRA:
		return true
	}
	return false
}

// BytesPerPixel returns the per-pixel byte width of f, or 0 when f is not
// a recognized layout.
func (f Format) BytesPerPixel() int {
	switch f {
	case RGB, BGR:
		return 3
	case RGBA, BGRA:
		return 4
	}
	return 0
}

// channel offsets of r, g, b within one pixel of f.
func (f Format) rgbOffsets() (r, g, b int) {
	switch f {
	case BGR, BGRA:
		return 2, 1, 0
	default:
		return 0, 1, 2
	}
}

// Convert copies an edge×edge region out of src, starting at byte offset
// with the given row stride, reordering each pixel from srcFormat into
// dstFormat. Alpha is dropped when dstFormat has no alpha channel and
// emitted as 0xFF when srcFormat has none. Bounds and format validity are
// the caller's responsibility; Convert reads and writes nothing shared.
func Convert(dstFormat Format, src []byte, srcFormat Format, offset, stride, edge int) []byte {
	srcBPP := srcFormat.BytesPerPixel()
	dstBPP := dstFormat.BytesPerPixel()
	sr, sg, sb := srcFormat.rgbOffsets()
	dr, dg, db := dstFormat.rgbOffsets()

	out := make([]byte, edge*edge*dstBPP)
	for y := 0; y < edge; y++ {
		row := offset + y*stride
		for x := 0; x < edge; x++ {
			s := row + x*srcBPP
			d := (y*edge + x) * dstBPP
			out[d+dr] = src[s+sr]
			out[d+dg] = src[s+sg]
			out[d+db] = src[s+sb]
			if dstBPP == 4 {
				if srcBPP == 4 {
					out[d+3] = src[s+3]
				} else {
					out[d+3] = 0xFF
				}
			}
		}
	}
	return out
}

// Solid returns an edge×edge buffer of one color in the given layout.
func Solid(f Format, edge int, r, g, b byte) []byte {
	bpp := f.BytesPerPixel()
	fr, fg, fb := f.rgbOffsets()
	out := make([]byte, edge*edge*bpp)
	for i := 0; i < len(out); i += bpp {
		out[i+fr] = r
		out[i+fg] = g
		out[i+fb] = b
		if bpp == 4 {
			out[i+3] = 0xFF
		}
	}
	return out
}
