// Package conversions holds the unsafe zero-copy conversions the arena and
// decoder rely on to hand back Go strings backed by arena-owned or
// caller-owned bytes without an extra allocation per field.
package conversions

import "unsafe"

// ByteSlice2String converts bs to a string without copying. bs must not be
// modified afterward.
func ByteSlice2String(bs []byte) string {
	if len(bs) == 0 {
		return ""
	}
	return unsafe.String(&bs[0], len(bs))
}

// UnsafeGetBytes returns the []byte backing s without copying. The result
// must not be modified.
func UnsafeGetBytes(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
