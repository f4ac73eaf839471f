// Package binary replaces the encoding/binary package in the standard library
// for little-endian encoding using generics, and adds the bounds-checked
// slice walks the wire format needs (every multi-byte field is preceded by
// its own length, so a decoder must never trust a length it hasn't checked
// against what remains in the buffer).
package binary

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/constraints"
)

var Enc = binary.LittleEndian

// HeaderSize is the size in bytes of a record's field-count header.
const HeaderSize = 2

// FieldSlotSize is the size in bytes of one tag slot in a record header.
const FieldSlotSize = 2

// LengthPrefixSize is the size in bytes of a body entry's length prefix.
const LengthPrefixSize = 4

// Get decodes any fixed-width integer from the front of b. Callers that
// haven't already bounds-checked b should use the Read* functions instead.
func Get[T constraints.Integer](b []byte) T {
	_ = b[len(b)-1] // bounds check hint to compiler; see golang.org/issue/14808

	var r T // used only for type detection
	switch any(r).(type) {
	case int8:
		return T(int8(b[0]))
	case int16:
		return T(int16(Enc.Uint16(b)))
	case int32:
		return T(int32(Enc.Uint32(b)))
	case int64:
		return T(int64(Enc.Uint64(b)))
	case uint8:
		return T(b[0])
	case uint16:
		return T(Enc.Uint16(b))
	case uint32:
		return T(Enc.Uint32(b))
	case uint64:
		return T(Enc.Uint64(b))
	}
	panic(fmt.Sprintf("unsupported type that passed the type constraint %T", r))
}

// Put encodes v into the front of b using as many bytes as its width.
func Put[T constraints.Integer](b []byte, v T) {
	switch any(v).(type) {
	case int8, uint8:
		b[0] = byte(v)
	case int16, uint16:
		Enc.PutUint16(b, uint16(v))
	case int32, uint32:
		Enc.PutUint32(b, uint32(v))
	default:
		Enc.PutUint64(b, uint64(v))
	}
}

// ReadUint16 reads a little-endian uint16 at the front of b. ok is false if
// b is too short.
func ReadUint16(b []byte) (v uint16, ok bool) {
	if len(b) < 2 {
		return 0, false
	}
	return Enc.Uint16(b), true
}

// ReadUint32 reads a little-endian uint32 at the front of b. ok is false if
// b is too short.
func ReadUint32(b []byte) (v uint32, ok bool) {
	if len(b) < 4 {
		return 0, false
	}
	return Enc.Uint32(b), true
}

// ReadLengthPrefixed reads a 4-byte length prefix followed by that many
// bytes from b. It returns the content (not including the prefix) and
// whatever of b follows it. ok is false if b doesn't have enough bytes for
// either the prefix or the declared content.
func ReadLengthPrefixed(b []byte) (content, rest []byte, ok bool) {
	n, ok := ReadUint32(b)
	if !ok {
		return nil, nil, false
	}
	start := LengthPrefixSize
	end := start + int(n)
	if end < start || end > len(b) {
		return nil, nil, false
	}
	return b[start:end], b[end:], true
}

// PutUint32LengthPrefix writes the 4-byte little-endian length of data in
// front of it; the caller supplies dst sized len(data)+4.
func PutUint32LengthPrefix(dst []byte, data []byte) int {
	Enc.PutUint32(dst, uint32(len(data)))
	copy(dst[LengthPrefixSize:], data)
	return LengthPrefixSize + len(data)
}
