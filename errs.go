package sproto

import "errors"

// Sentinel errors returned by Encode and Decode. These are plain stdlib
// sentinels rather than the categorized errors package used at Create's
// boundary: encode/decode run per message on a hot path with no allocations
// (§5), and gostdlib's errors.E always builds a stack-trace-capable wrapper,
// which is the wrong cost to pay per field.
var (
	ErrBufferTooSmall = errors.New("sproto: buffer too small")
	ErrSchemaMismatch = errors.New("sproto: value inconsistent with schema")
	ErrCallbackAbort  = errors.New("sproto: callback aborted")
)
