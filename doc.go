// Package sproto implements a compact, schema-driven binary codec for
// RPC- and game-message-shaped data: a self-describing metadata blob loads
// into an immutable Sproto schema, and instances of the types it describes
// are encoded and decoded against that schema through a caller-supplied
// field callback. A companion transform in the pack subpackage shrinks the
// sparse, zero-heavy payloads this codec tends to produce before they hit
// the wire.
//
// The wire format (record header of tag slots, tag-skip encoding, small-
// integer inlining, int32↔int64 promotion inside arrays) is bit-exact with
// the C sproto implementation this package is modeled on and must stay
// that way — see header.go, encode.go, decode.go, and the original source
// referenced in DESIGN.md.
package sproto
