package sproto

import sbinary "github.com/bearlytools/sproto/internal/binary"

// smallIntLimit is the exclusive upper bound for the tag-slot inline fast
// path, so the largest inlined value is 0x7ffe: slot = (v+1)*2 must still
// fit 16 bits, and 0x7fff is the original implementation's exact cutoff
// (sproto.c's "u.u32 < 0x7fff" check).
const smallIntLimit = 0x7fff

// Encode serializes one record against t by pulling field values from cb,
// writing into buf. It returns the number of bytes written, or -1 with an
// error if buf is too small, a value is inconsistent with the schema, or cb
// aborts. No allocation happens on this path beyond what the caller's own
// cb does.
func Encode(t *Type, buf []byte, cb EncodeFunc) (int, error) {
	headerSz := sbinary.HeaderSize + t.MaxTag*sbinary.FieldSlotSize
	if len(buf) < headerSz {
		return -1, ErrBufferTooSmall
	}
	header := buf
	data := buf[headerSz:]
	size := len(data)

	index := 0
	lastTag := -1

	for i := range t.Fields {
		f := &t.Fields[i]
		ev := Event{
			Tag:       f.Tag,
			Name:      f.Name(),
			Kind:      f.Kind,
			Subtype:   f.Subtype,
			MainIndex: f.Key,
			Extra:     f.Extra,
		}
		if f.Map {
			ev.KeyName = f.Subtype.Fields[0].Name()
			ev.ValueName = f.Subtype.Fields[1].Name()
		}

		var (
			sz    int
			value int
			err   error
		)

		if f.Array {
			ev.Array = true
			sz, err = encodeArray(cb, &ev, f.Kind, data, size)
		} else {
			ev.Index = 0
			switch f.Kind {
			case KindStruct, KindString:
				sz, err = encodeObject(cb, &ev, data, size)
			default: // INTEGER, BOOLEAN, DOUBLE
				sz, value, err = encodeScalarNumber(cb, &ev, data, size)
			}
		}
		if err != nil {
			if err == errNoEncode {
				return 0, nil
			}
			return -1, err
		}

		if sz <= 0 {
			continue
		}
		if value == 0 {
			data = data[sz:]
			size -= sz
		}

		gap := f.Tag - lastTag - 1
		slotOff := sbinary.HeaderSize + index*sbinary.FieldSlotSize
		if gap > 0 {
			skip := (gap-1)*2 + 1
			if skip > 0xffff {
				return -1, ErrSchemaMismatch
			}
			sbinary.Put(header[slotOff:], uint16(skip))
			index++
			slotOff = sbinary.HeaderSize + index*sbinary.FieldSlotSize
		}
		index++
		sbinary.Put(header[slotOff:], uint16(value))
		lastTag = f.Tag
	}

	sbinary.Put(header[:sbinary.HeaderSize], uint16(index))

	actualHeaderSz := sbinary.HeaderSize + index*sbinary.FieldSlotSize
	dataSz := (len(buf) - headerSz) - size
	if index != t.MaxTag {
		copy(buf[actualHeaderSz:actualHeaderSz+dataSz], buf[headerSz:headerSz+dataSz])
	}
	return actualHeaderSz + dataSz, nil
}

// errNoEncode signals that cb returned CBNoArray for a top-level (non-array)
// value, which per sproto.c means abandon the whole encode and report 0
// bytes written rather than an error.
var errNoEncode = errString("sproto: encode abandoned")

// encodeScalarNumber handles a non-array INTEGER/BOOLEAN/DOUBLE field: cb
// writes 4 or 8 raw LE bytes into an 8-byte scratch buffer, and this either
// inlines the value into the tag slot or writes a length-prefixed body
// entry, mirroring sproto_encode's SPROTO_TINTEGER/TBOOLEAN/TDOUBLE case.
func encodeScalarNumber(cb EncodeFunc, ev *Event, data []byte, size int) (sz int, value int, err error) {
	var scratch [8]byte
	n, res := cb(ev, scratch[:])
	switch res {
	case CBNil:
		return 0, 0, nil
	case CBNoArray:
		return 0, 0, errNoEncode
	case CBError:
		return 0, 0, ErrCallbackAbort
	}

	switch n {
	case 4:
		v := sbinary.Get[uint32](scratch[:4])
		if v < smallIntLimit {
			return 2, int(v+1) * 2, nil
		}
		if size < 8 {
			return 0, 0, ErrBufferTooSmall
		}
		sbinary.Put(data[:4], uint32(4))
		copy(data[4:8], scratch[:4])
		return 8, 0, nil
	case 8:
		if size < 12 {
			return 0, 0, ErrBufferTooSmall
		}
		sbinary.Put(data[:4], uint32(8))
		copy(data[4:12], scratch[:8])
		return 12, 0, nil
	default:
		return 0, 0, ErrSchemaMismatch
	}
}

// encodeObject handles a non-array STRING/STRUCT field: cb writes its
// content directly into the remaining output buffer (past this field's
// length prefix), mirroring encode_object.
func encodeObject(cb EncodeFunc, ev *Event, data []byte, size int) (int, error) {
	if size < sbinary.LengthPrefixSize {
		return 0, ErrBufferTooSmall
	}
	n, res := cb(ev, data[sbinary.LengthPrefixSize:])
	switch res {
	case CBNil:
		return 0, nil
	case CBNoArray, CBError:
		return 0, ErrCallbackAbort
	}
	if n < 0 || n > size-sbinary.LengthPrefixSize {
		return 0, ErrSchemaMismatch
	}
	sbinary.Put(data[:sbinary.LengthPrefixSize], uint32(n))
	return n + sbinary.LengthPrefixSize, nil
}

// encodeArray dispatches on element kind, mirroring encode_array.
func encodeArray(cb EncodeFunc, ev *Event, kind Kind, data []byte, size int) (int, error) {
	if size < sbinary.LengthPrefixSize {
		return 0, ErrBufferTooSmall
	}
	buffer := data[sbinary.LengthPrefixSize:]
	remaining := size - sbinary.LengthPrefixSize

	var n int
	var err error
	switch kind {
	case KindInteger, KindDouble:
		n, err = encodeIntegerArray(cb, ev, buffer, remaining)
	case KindBoolean:
		n, err = encodeBooleanArray(cb, ev, buffer, remaining)
	default: // STRING, STRUCT
		n, err = encodeObjectArray(cb, ev, buffer, remaining)
	}
	if err == errNoEncode {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	sbinary.Put(data[:sbinary.LengthPrefixSize], uint32(n))
	return n + sbinary.LengthPrefixSize, nil
}

// encodeIntegerArray writes elements at 4-byte width until one needs 8
// bytes, then rewrites everything already written to 8-byte sign-extended
// form and continues at that width — the one in-place-rewrite case in the
// whole codec (§9's design note).
func encodeIntegerArray(cb EncodeFunc, ev *Event, buffer []byte, remaining int) (int, error) {
	// A width-byte slot is reserved up front regardless of how many
	// elements follow, matching encode_integer_array's unconditional
	// buffer++/size--. If no elements are produced, the reservation is
	// simply not counted in the returned size (no width byte emitted).
	if remaining < 1 {
		return 0, ErrBufferTooSmall
	}
	elems := buffer[1:]
	avail := remaining - 1

	written := 0
	intlen := 4
	ev.Index = 1
	for {
		var scratch [8]byte
		n, res := cb(ev, scratch[:])
		switch res {
		case CBNil:
			if written == 0 {
				return 0, nil
			}
			buffer[0] = byte(intlen)
			return 1 + written, nil
		case CBNoArray:
			return 0, errNoEncode
		case CBError:
			return 0, ErrCallbackAbort
		}

		if n == 4 {
			if avail < 4 {
				return 0, ErrBufferTooSmall
			}
			if intlen == 4 {
				copy(elems[written:written+4], scratch[:4])
				written += 4
				avail -= 4
			} else {
				if avail < 8 {
					return 0, ErrBufferTooSmall
				}
				v := sbinary.Get[uint32](scratch[:4])
				sbinary.Put(elems[written:written+4], v)
				negative := v&0x80000000 != 0
				fillHigh32(elems[written+4:written+8], negative)
				written += 8
				avail -= 8
			}
		} else if n == 8 {
			if intlen == 4 {
				// Rewrite every element already written from 4-byte to
				// 8-byte sign-extended form before continuing.
				count := written / 4
				need := count * 8
				if avail < need-written+8 {
					return 0, ErrBufferTooSmall
				}
				for i := count - 1; i >= 0; i-- {
					var tmp [4]byte
					copy(tmp[:], elems[i*4:i*4+4])
					copy(elems[i*8:i*8+4], tmp[:])
					fillHigh32(elems[i*8+4:i*8+8], tmp[3]&0x80 != 0)
				}
				avail -= need - written
				written = need
				intlen = 8
			}
			if avail < 8 {
				return 0, ErrBufferTooSmall
			}
			v := sbinary.Get[uint64](scratch[:8])
			sbinary.Put(elems[written:written+8], v)
			written += 8
			avail -= 8
		} else {
			return 0, ErrSchemaMismatch
		}
		ev.Index++
	}
}

func fillHigh32(dst []byte, negative bool) {
	var b byte
	if negative {
		b = 0xff
	}
	dst[0], dst[1], dst[2], dst[3] = b, b, b, b
}

// encodeBooleanArray writes one byte (0/1) per element.
func encodeBooleanArray(cb EncodeFunc, ev *Event, buffer []byte, remaining int) (int, error) {
	written := 0
	ev.Index = 1
	for {
		var scratch [8]byte
		n, res := cb(ev, scratch[:])
		switch res {
		case CBNil:
			return written, nil
		case CBNoArray:
			return 0, errNoEncode
		case CBError:
			return 0, ErrCallbackAbort
		}
		_ = n
		if remaining < 1 {
			return 0, ErrBufferTooSmall
		}
		if scratch[0] != 0 {
			buffer[written] = 1
		} else {
			buffer[written] = 0
		}
		written++
		remaining--
		ev.Index++
	}
}

// encodeObjectArray writes a concatenation of [u32 length][bytes] entries,
// one per STRING or STRUCT element.
func encodeObjectArray(cb EncodeFunc, ev *Event, buffer []byte, remaining int) (int, error) {
	written := 0
	ev.Index = 1
	for {
		if remaining < sbinary.LengthPrefixSize {
			return 0, ErrBufferTooSmall
		}
		n, res := cb(ev, buffer[written+sbinary.LengthPrefixSize:])
		switch res {
		case CBNil:
			return written, nil
		case CBNoArray:
			return 0, errNoEncode
		case CBError:
			return 0, ErrCallbackAbort
		}
		if n < 0 || n > remaining-sbinary.LengthPrefixSize {
			return 0, ErrSchemaMismatch
		}
		sbinary.Put(buffer[written:written+sbinary.LengthPrefixSize], uint32(n))
		written += sbinary.LengthPrefixSize + n
		remaining -= sbinary.LengthPrefixSize + n
		ev.Index++
	}
}
