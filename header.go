package sproto

import sbinary "github.com/bearlytools/sproto/internal/binary"

// headerCursor walks a record's tag-slot header, reconstructing the running
// tag the way sproto.c's import_field/import_protocol/sproto_decode all do
// inline: the running tag starts at -1 and increments once per slot; a slot
// with its low bit set is a skip directive that advances the running tag an
// extra slot/2 and produces no value; any other slot is either an inline
// small integer ((slot>>1)-1) or, when the slot is exactly 0, a signal that
// the value lives in the body stream instead.
//
// The loader and the decoder share this primitive because they are walking
// the identical on-wire structure; the loader just consumes the resulting
// tags directly instead of routing them through a caller callback.
type headerCursor struct {
	slots []byte // fn*2 bytes
	idx   int
	tag   int
}

func newHeaderCursor(slots []byte) *headerCursor {
	return &headerCursor{slots: slots, tag: -1}
}

// next returns the next real (non-skip) tag along with whether its value is
// carried in the body stream (bodyPresent) or inline. ok is false once the
// header is exhausted.
func (h *headerCursor) next() (tag int, bodyPresent bool, inline int, ok bool) {
	for {
		off := h.idx * 2
		if off+2 > len(h.slots) {
			return 0, false, 0, false
		}
		v := sbinary.Get[uint16](h.slots[off : off+2])
		h.idx++
		h.tag++
		if v&1 == 1 {
			h.tag += int(v) / 2
			continue
		}
		if v == 0 {
			return h.tag, true, 0, true
		}
		return h.tag, false, int(v)/2 - 1, true
	}
}

// validateRecord is the structural pre-walk from sproto.c's struct_field: it
// confirms a record's header and body are internally consistent (the header
// fits, and every body-present slot's length-prefixed entry fits within what
// remains) without interpreting any values. The loader uses it to reject a
// malformed schema blob before allocating descriptors for it;
// readRecordFields runs it before walking the same header again with
// headerCursor.
func validateRecord(content []byte) (fieldCount int, bodyStart int, ok bool) {
	if len(content) < sbinary.HeaderSize {
		return 0, 0, false
	}
	fn, _ := sbinary.ReadUint16(content)
	headerEnd := sbinary.HeaderSize + int(fn)*sbinary.FieldSlotSize
	if headerEnd > len(content) {
		return 0, 0, false
	}
	slots := content[sbinary.HeaderSize:headerEnd]
	body := content[headerEnd:]
	for i := 0; i < int(fn); i++ {
		off := i * 2
		v := sbinary.Get[uint16](slots[off : off+2])
		if v != 0 {
			continue
		}
		entry, rest, ok := sbinary.ReadLengthPrefixed(body)
		if !ok {
			return 0, 0, false
		}
		_ = entry
		body = rest
	}
	return int(fn), headerEnd, true
}

// splitLengthPrefixedItems splits the already-length-stripped content of a
// struct or string array field (the record-body entry's value, per §4.3's
// "concatenation of [u32 length][bytes] entries") into its individual item
// byte slices.
func splitLengthPrefixedItems(content []byte) (items [][]byte, ok bool) {
	for len(content) > 0 {
		item, rest, ok := sbinary.ReadLengthPrefixed(content)
		if !ok {
			return nil, false
		}
		items = append(items, item)
		content = rest
	}
	return items, true
}
