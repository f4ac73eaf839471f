package sproto

// Event describes one field value crossing the callback boundary, carrying
// exactly the fields sproto.c's struct sproto_arg does: enough for a host
// to identify what's being asked for (or handed to it) without the codec
// knowing anything about the host's data model.
type Event struct {
	Tag       int
	Name      string
	Kind      Kind // element kind; the ARRAY bit is stripped off onto Array
	Array     bool
	Subtype   *Type
	Index     int    // 0 for a scalar field; 1..n for array elements; -1 for the decode empty-array marker
	MainIndex int     // Field.Key: the map-key sub-tag, or -1 if this isn't a map field
	Extra     uint64  // decimal scale (integer) or text/binary flag (string)
	KeyName   string  // Subtype.Fields[0].Name() when Map is set
	ValueName string  // Subtype.Fields[1].Name() when Map is set
}

// EncodeFunc supplies one field's value during Encode. dst is scratch space
// the callback writes raw little-endian bytes into: 4 or 8 bytes for
// INTEGER/BOOLEAN/DOUBLE, 1 byte for an array BOOLEAN element, or (for
// STRING/STRUCT, where dst aliases the remaining output buffer directly)
// the encoded content itself. n is the number of bytes written; res
// signals an out-of-band outcome instead (CBNil/CBNoArray/CBError), in
// which case n is ignored.
type EncodeFunc func(ev *Event, dst []byte) (n int, res CBResult)

// DecodeFunc receives one field's value during Decode. value is the raw
// wire bytes for this occurrence (already sign-extended to 8 bytes for
// 4-byte integers; raw content bytes for STRING/STRUCT/array elements).
// A non-nil return aborts the decode.
type DecodeFunc func(ev *Event, value []byte) error
