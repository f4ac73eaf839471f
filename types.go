package sproto

import "github.com/bearlytools/sproto/internal/conversions"

// Field describes one field of a Type, in the shape sproto.c's
// struct sproto_field takes: a tag, a primitive kind plus an orthogonal
// array flag, and the handful of fields that only make sense for some
// kinds (Subtype for STRUCT, Key/Map for struct-arrays used as maps,
// Extra overloaded between INTEGER's decimal scale and STRING's
// text/binary flag).
type Field struct {
	Tag     int
	Kind    Kind
	Array   bool
	name    []byte
	Subtype *Type // non-nil iff Kind == KindStruct
	Key     int   // sub-field tag acting as map key, or -1
	Map     bool  // present struct-array as a map; requires Key >= 0
	Extra   uint64
}

// Name returns the field's name as a string backed by arena-owned bytes.
func (f *Field) Name() string { return conversions.ByteSlice2String(f.name) }

// Type is a schema type descriptor: a named, ordered, strictly-ascending-tag
// sequence of Fields.
type Type struct {
	name   []byte
	Fields []Field // sorted by ascending Tag
	MaxTag int     // field count + gap count; sizes an encoded header
	Base   int      // >= 0 iff Fields form a dense range starting there; else -1
}

// Name returns the type's name as a string backed by arena-owned bytes.
func (t *Type) Name() string { return conversions.ByteSlice2String(t.name) }

// Protocol is a named RPC message pair: a tag, an optional request Type and
// an optional response Type, plus the confirm flag used when a protocol has
// no response payload but the caller still expects an acknowledgement.
type Protocol struct {
	name     []byte
	Tag      int
	Request  *Type
	Response *Type
	Confirm  bool
}

// Name returns the protocol's name as a string backed by arena-owned bytes.
func (p *Protocol) Name() string { return conversions.ByteSlice2String(p.name) }

// HasResponse reports whether a caller of this protocol should expect a
// reply: either an explicit Response type, or Confirm set for an empty ack.
func (p *Protocol) HasResponse() bool { return p.Response != nil || p.Confirm }
