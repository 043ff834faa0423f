// Package frame fragments wire-format key images into the fixed-size
// output reports the device accepts. Each report carries a small header
// naming the target key and its position in the transfer.
package frame

import "encoding/binary"

// HeaderLen is the byte count reserved at the start of every output
// report. Bytes beyond the fields below are zero.
const HeaderLen = 16

const (
	reportID      = 0x02
	commandMarker = 0x01
)

// Geometry describes a model's output report shape.
type Geometry struct {
	PacketLen int // total report length, header included
}

// PayloadLen returns the image bytes carried per report.
func (g Geometry) PayloadLen() int {
	return g.PacketLen - HeaderLen
}

// Split fragments payload into output reports addressed to the given
// native key index. At least one report is produced even for an empty
// payload. Every report is exactly PacketLen bytes; the trailing bytes of
// the final report are zero. Split is pure: the same inputs always yield
// the same packets.
func Split(g Geometry, nativeKey int, payload []byte) [][]byte {
	capacity := g.PayloadLen()

	var packets [][]byte
	for part, sent := 0, 0; ; part++ {
		remaining := len(payload) - sent
		last := remaining <= capacity
		n := capacity
		if last {
			n = remaining
		}

		p := make([]byte, g.PacketLen)
		p[0] = reportID
		p[1] = commandMarker
		binary.LittleEndian.PutUint16(p[2:4], uint16(part))
		if last {
			p[4] = 1
		}
		p[5] = byte(nativeKey + 1)
		copy(p[HeaderLen:], payload[sent:sent+n])
		packets = append(packets, p)

		sent += n
		if last {
			return packets
		}
	}
}

// Brightness builds the feature report that sets the backlight to pct,
// using the model's command prefix, zero-padded to length.
func Brightness(prefix []byte, length int, pct int) []byte {
	report := make([]byte, length)
	copy(report, prefix)
	report[len(prefix)] = byte(pct)
	return report
}

// Reset builds the feature report that returns the device to its standby
// logo, zero-padded to length.
func Reset(command []byte, length int) []byte {
	report := make([]byte, length)
	copy(report, command)
	return report
}
