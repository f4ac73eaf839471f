package sproto

import sbinary "github.com/bearlytools/sproto/internal/binary"

// The helpers in this file hand-build wire bytes the way a schema compiler
// would emit them, so tests can exercise Create/Encode/Decode without
// depending on one. A fieldSpec is one record field: either inline (a small
// non-negative integer carried directly in its tag slot) or a body entry
// (arbitrary bytes, length-prefixed).
type fieldSpec struct {
	tag    int
	inline int
	body   []byte
	isBody bool
}

func inlineField(tag, v int) fieldSpec { return fieldSpec{tag: tag, inline: v} }
func bodyField(tag int, b []byte) fieldSpec {
	return fieldSpec{tag: tag, body: b, isBody: true}
}

// buildRecord assembles specs (which must already be in ascending tag
// order) into one record's wire bytes: a 2-byte field count, one 2-byte
// slot per field (plus any skip slots for tag gaps), then the body entries
// in order.
func buildRecord(specs []fieldSpec) []byte {
	var slots []uint16
	var body []byte
	last := -1
	for _, sp := range specs {
		gap := sp.tag - last - 1
		if gap > 0 {
			slots = append(slots, uint16((gap-1)*2+1))
		}
		if sp.isBody {
			slots = append(slots, 0)
			lp := make([]byte, sbinary.LengthPrefixSize+len(sp.body))
			sbinary.PutUint32LengthPrefix(lp, sp.body)
			body = append(body, lp...)
		} else {
			slots = append(slots, uint16((sp.inline+1)*2))
		}
		last = sp.tag
	}
	out := make([]byte, sbinary.HeaderSize+len(slots)*sbinary.FieldSlotSize)
	sbinary.Put(out[:sbinary.HeaderSize], uint16(len(slots)))
	for i, s := range slots {
		off := sbinary.HeaderSize + i*sbinary.FieldSlotSize
		sbinary.Put(out[off:off+sbinary.FieldSlotSize], s)
	}
	out = append(out, body...)
	return out
}

// buildArray concatenates items as a record body's array-of-struct content:
// one [length][bytes] entry per item, with no further wrapper.
func buildArray(items [][]byte) []byte {
	var out []byte
	for _, it := range items {
		lp := make([]byte, sbinary.LengthPrefixSize+len(it))
		sbinary.PutUint32LengthPrefix(lp, it)
		out = append(out, lp...)
	}
	return out
}

// testFieldSpec is the schema-compiler's view of one field, before it's
// turned into wire bytes by buildFieldRecord.
type testFieldSpec struct {
	name      string
	kind      Kind
	tag       int
	array     bool
	typeIndex int // valid iff kind == KindStruct
	extra     int // decimal scale (INTEGER) or binary flag (STRING)
	key       int // -1 if not a map key field
	isMap     bool
}

func buildFieldRecord(f testFieldSpec) []byte {
	specs := []fieldSpec{
		bodyField(0, []byte(f.name)),
		inlineField(1, int(f.kind)),
	}
	switch {
	case f.kind == KindStruct:
		specs = append(specs, inlineField(2, f.typeIndex))
	case f.extra != 0:
		specs = append(specs, inlineField(2, f.extra))
	}
	specs = append(specs, inlineField(3, f.tag))
	if f.array {
		specs = append(specs, inlineField(4, 1))
	}
	if f.key >= 0 {
		specs = append(specs, inlineField(5, f.key))
	}
	if f.isMap {
		specs = append(specs, inlineField(6, 1))
	}
	return buildRecord(specs)
}

func buildTypeRecord(name string, fields []testFieldSpec) []byte {
	items := make([][]byte, len(fields))
	for i, f := range fields {
		items[i] = buildFieldRecord(f)
	}
	return buildRecord([]fieldSpec{
		bodyField(0, []byte(name)),
		bodyField(1, buildArray(items)),
	})
}

type testProtoSpec struct {
	name     string
	tag      int
	request  int // -1 if none
	response int // -1 if none
	confirm  bool
}

func buildProtocolRecord(p testProtoSpec) []byte {
	specs := []fieldSpec{
		bodyField(0, []byte(p.name)),
		inlineField(1, p.tag),
	}
	if p.request >= 0 {
		specs = append(specs, inlineField(2, p.request))
	}
	if p.response >= 0 {
		specs = append(specs, inlineField(3, p.response))
	}
	if p.confirm {
		specs = append(specs, inlineField(4, 1))
	}
	return buildRecord(specs)
}

func buildBundle(types [][]byte, protos [][]byte) []byte {
	specs := []fieldSpec{bodyField(0, buildArray(types))}
	if len(protos) > 0 {
		specs = append(specs, bodyField(1, buildArray(protos)))
	}
	return buildRecord(specs)
}
