// Package errors provides the categorized error type used at sproto's
// construction boundary (Create). It wraps github.com/gostdlib/base/errors
// the same way the teacher's languages/go/errors package wraps it, but with
// the error kinds below in place of the teacher's storage-service taxonomy.
// Encode, Decode, and the pack package run on the per-message hot path and
// deliberately use plain sentinel errors instead (see errs.go).
package errors

import (
	"github.com/gostdlib/base/context"
	"github.com/gostdlib/base/errors"
)

//go:generate stringer -type=Category -linecomment

// Category represents the category of the error.
type Category uint32

func (c Category) Category() string {
	return c.String()
}

const (
	CatUnknown  Category = Category(0) // Unknown
	CatUser     Category = Category(1) // User
	CatInternal Category = Category(2) // Internal
)

//go:generate stringer -type=Type -linecomment

// Type represents the error kind, matching spec §7's taxonomy.
type Type uint16

func (t Type) Type() string {
	return t.String()
}

const (
	TypeUnknown Type = Type(0) // Unknown

	// TypeSchemaInvalid: malformed metadata blob; surfaced as a nil Sproto from Create.
	TypeSchemaInvalid Type = Type(1) // SchemaInvalid
	// TypeBufferTooSmall: encode buffer or decode input exhausted.
	TypeBufferTooSmall Type = Type(2) // BufferTooSmall
	// TypeSchemaMismatch: decoded field's wire encoding is inconsistent with the schema.
	TypeSchemaMismatch Type = Type(3) // SchemaMismatch
	// TypeCallbackAbort: the field callback returned the error sentinel.
	TypeCallbackAbort Type = Type(4) // CallbackAbort
	// TypeOutOfMemory: arena allocation failed.
	TypeOutOfMemory Type = Type(5) // OutOfMemory
)

// Error is the error type for this module. Error implements
// github.com/gostdlib/base/errors.E.
type Error = errors.Error

// EOption is an optional argument for E().
type EOption = errors.EOption

// WithStackTrace adds a stack trace to the error. Reserved for Create()
// failures during schema development; avoid on decode/encode paths since
// those run per-message.
func WithStackTrace() EOption {
	return errors.WithStackTrace()
}

// E creates a new categorized Error.
func E(ctx context.Context, c Category, t Type, msg error, options ...EOption) Error {
	opts := make([]EOption, 0, len(options)+1)
	opts = append(opts, errors.WithCallNum(2))
	opts = append(opts, options...)
	return errors.E(ctx, errors.Category(c), errors.Type(t), msg, opts...)
}
