// Package keymap translates between the caller-facing key numbering
// (row-major, left-to-right, top-to-bottom) and the numbering a device
// uses on the wire. Some models number each row right-to-left.
package keymap

// ToNative maps a logical key index to the device's native index for a
// grid with the given column count. When rtl is false the mapping is the
// identity. Callers are responsible for bounds checking.
func ToNative(logical, cols int, rtl bool) int {
	if !rtl {
		return logical
	}
	col := logical % cols
	return logical - col + (cols - 1 - col)
}

// ToLogical maps a native key index back to the logical index. Per-row
// reversal is its own inverse, so this is the same computation.
func ToLogical(native, cols int, rtl bool) int {
	return ToNative(native, cols, rtl)
}
