package sproto

import sbinary "github.com/bearlytools/sproto/internal/binary"

// Decode walks payload against t's wire format, invoking cb once per
// present field (and once per array element, plus an Index == -1 call for
// an empty array). It returns the number of bytes consumed, or -1 with an
// error. Unknown tags are skipped, not an error, and their body (if any)
// is still stepped over so the rest of the record decodes correctly —
// that is what makes old readers forward-compatible with new fields.
func Decode(t *Type, payload []byte, cb DecodeFunc) (int, error) {
	total := len(payload)
	if len(payload) < sbinary.HeaderSize {
		return -1, ErrBufferTooSmall
	}
	fn, ok := sbinary.ReadUint16(payload)
	if !ok {
		return -1, ErrBufferTooSmall
	}
	headerEnd := sbinary.HeaderSize + int(fn)*sbinary.FieldSlotSize
	if headerEnd > len(payload) {
		return -1, ErrBufferTooSmall
	}
	hc := newHeaderCursor(payload[sbinary.HeaderSize:headerEnd])
	body := payload[headerEnd:]

	for {
		tag, bodyPresent, inline, ok := hc.next()
		if !ok {
			break
		}

		var entry []byte
		if bodyPresent {
			e, rest, ok := sbinary.ReadLengthPrefixed(body)
			if !ok {
				return -1, ErrBufferTooSmall
			}
			entry = e
			body = rest
		}

		f := t.FieldByTag(tag)
		if f == nil {
			continue // unknown tag: body already stepped over above
		}

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

		if !bodyPresent {
			if f.Array || (f.Kind != KindInteger && f.Kind != KindBoolean) {
				return -1, ErrSchemaMismatch
			}
			if err := decodeInlineInt(cb, &ev, inline); err != nil {
				return -1, err
			}
			continue
		}

		if f.Array {
			ev.Array = true
			ev.Kind = f.Kind
			if err := decodeArray(cb, &ev, f.Kind, entry); err != nil {
				return -1, err
			}
			continue
		}

		switch f.Kind {
		case KindInteger, KindDouble:
			if err := decodeScalarNumber(cb, &ev, entry); err != nil {
				return -1, err
			}
		case KindString, KindStruct:
			ev.Index = 0
			if err := cb(&ev, entry); err != nil {
				return -1, ErrCallbackAbort
			}
		default:
			return -1, ErrSchemaMismatch
		}
	}

	return total - len(body), nil
}

func decodeInlineInt(cb DecodeFunc, ev *Event, value int) error {
	ev.Index = 0
	var v [8]byte
	sbinary.Put(v[:8], uint64(value))
	if err := cb(ev, v[:]); err != nil {
		return ErrCallbackAbort
	}
	return nil
}

// decodeScalarNumber handles a non-array INTEGER/DOUBLE body entry: a
// 4-byte entry is sign-extended to 64 bits before reaching cb; an 8-byte
// entry passes through unchanged. Any other length is a schema mismatch.
func decodeScalarNumber(cb DecodeFunc, ev *Event, entry []byte) error {
	ev.Index = 0
	switch len(entry) {
	case 4:
		v := expand64(sbinary.Get[uint32](entry))
		var buf [8]byte
		sbinary.Put(buf[:8], v)
		if err := cb(ev, buf[:]); err != nil {
			return ErrCallbackAbort
		}
	case 8:
		if err := cb(ev, entry); err != nil {
			return ErrCallbackAbort
		}
	default:
		return ErrSchemaMismatch
	}
	return nil
}

func expand64(v uint32) uint64 {
	r := uint64(v)
	if v&0x80000000 != 0 {
		r |= ^uint64(0) << 32
	}
	return r
}

// decodeArray dispatches on element kind, mirroring decode_array. entry is
// the field's body content with the outer length prefix already stripped
// by the caller; an empty entry (or, for INTEGER/DOUBLE, an entry holding
// only the width byte) means an empty array, delivered as a single cb call
// with Index == -1 per §4.5.
func decodeArray(cb DecodeFunc, ev *Event, kind Kind, entry []byte) error {
	if len(entry) == 0 {
		return decodeEmptyArray(cb, ev)
	}

	switch kind {
	case KindInteger, KindDouble:
		rest := entry[1:]
		if len(rest) == 0 {
			// Accepted on decode per the open question in §9: a length
			// prefix of 1 with no elements is treated the same as 0.
			return decodeEmptyArray(cb, ev)
		}
		width := int(entry[0])
		switch width {
		case 4:
			if len(rest)%4 != 0 {
				return ErrSchemaMismatch
			}
			for i := 0; i < len(rest)/4; i++ {
				ev.Index = i + 1
				v := expand64(sbinary.Get[uint32](rest[i*4 : i*4+4]))
				var buf [8]byte
				sbinary.Put(buf[:8], v)
				if err := cb(ev, buf[:]); err != nil {
					return ErrCallbackAbort
				}
			}
		case 8:
			if len(rest)%8 != 0 {
				return ErrSchemaMismatch
			}
			for i := 0; i < len(rest)/8; i++ {
				ev.Index = i + 1
				if err := cb(ev, rest[i*8:i*8+8]); err != nil {
					return ErrCallbackAbort
				}
			}
		default:
			return ErrSchemaMismatch
		}
		return nil

	case KindBoolean:
		for i, b := range entry {
			ev.Index = i + 1
			var buf [8]byte
			if b != 0 {
				buf[0] = 1
			}
			if err := cb(ev, buf[:]); err != nil {
				return ErrCallbackAbort
			}
		}
		return nil

	default: // STRING, STRUCT
		items, ok := splitLengthPrefixedItems(entry)
		if !ok {
			return ErrSchemaMismatch
		}
		for i, item := range items {
			ev.Index = i + 1
			if err := cb(ev, item); err != nil {
				return ErrCallbackAbort
			}
		}
		return nil
	}
}

func decodeEmptyArray(cb DecodeFunc, ev *Event) error {
	ev.Index = -1
	if err := cb(ev, nil); err != nil {
		return ErrCallbackAbort
	}
	return nil
}
