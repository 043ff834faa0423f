package deck

import "errors"

var (
	// ErrNoDevice is returned by Open when no supported panel is attached.
	ErrNoDevice = errors.New("deck: no supported device found")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("deck: device closed")

	ErrInvalidKeyIndex    = errors.New("deck: key index out of range")
	ErrInvalidColor       = errors.New("deck: color component out of range")
	ErrInvalidImageLength = errors.New("deck: image buffer length mismatch")
	ErrUnknownFormat      = errors.New("deck: unknown pixel format")
	ErrInvalidBrightness  = errors.New("deck: brightness out of range")
)
