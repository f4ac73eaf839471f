package sproto

import (
	"log"

	gctx "github.com/gostdlib/base/context"
	"github.com/gostdlib/base/telemetry/otel/trace/span"

	"github.com/bearlytools/sproto/internal/arena"
)

// Sproto is an immutable, loaded schema: an arena owning descriptor storage
// plus the two ordered sequences it describes. Create is the only way to
// build one; once built, its query methods are safe for concurrent use by
// multiple goroutines, since only Release mutates it after loading.
type Sproto struct {
	arena     *arena.Arena
	types     []Type
	protocols []Protocol
}

type options struct {
	chunkSize int
}

// Option configures Create.
type Option func(*options)

// ArenaChunkSize overrides the default 1000-byte arena chunk size. Useful
// for very small or very large schemas where the default wastes space or
// forces unnecessary chunk growth.
func ArenaChunkSize(n int) Option {
	return func(o *options) { o.chunkSize = n }
}

// Create parses blob, a metadata bundle in the same wire format sproto
// itself encodes messages in, into a Sproto. The outer bundle is a record
// with up to two fields: tag 0 is the type list, tag 1 is the protocol
// list, both struct arrays.
func Create(ctx gctx.Context, blob []byte, opts ...Option) (*Sproto, error) {
	var sp span.Span
	ctx, sp = span.New(ctx, span.WithName("sproto.Create"))
	defer sp.End()

	var o options
	for _, fn := range opts {
		fn(&o)
	}

	raw, ok := readRecordFields(blob)
	if !ok {
		return nil, schemaErr(ctx, "malformed schema bundle header")
	}

	var typeItems, protoItems [][]byte
	for _, rf := range raw {
		if !rf.hasBody {
			return nil, schemaErr(ctx, "bundle field must carry an array body")
		}
		items, ok := splitLengthPrefixedItems(rf.bodyEntry)
		if !ok {
			return nil, schemaErr(ctx, "malformed bundle array")
		}
		switch rf.tag {
		case 0:
			typeItems = items
		case 1:
			protoItems = items
		default:
			return nil, schemaErr(ctx, "unexpected bundle field tag")
		}
	}

	a := arena.New(o.chunkSize)

	s := &Sproto{
		arena:     a,
		types:     make([]Type, len(typeItems)),
		protocols: make([]Protocol, len(protoItems)),
	}

	l := &loader{ctx: ctx, arena: a, types: s.types}

	for i, item := range typeItems {
		if !l.loadType(item, &s.types[i]) {
			a.Release(ctx)
			return nil, positionErr(ctx, "type", i, "malformed type descriptor")
		}
	}
	for i, item := range protoItems {
		if !l.loadProtocol(item, &s.protocols[i]) {
			a.Release(ctx)
			return nil, positionErr(ctx, "protocol", i, "malformed protocol descriptor")
		}
	}
	if !sortedByTag(s.protocols) {
		a.Release(ctx)
		return nil, schemaErr(ctx, "protocols must be sorted by ascending tag")
	}

	log.Printf("sproto: loaded schema with %d types, %d protocols", len(s.types), len(s.protocols))
	return s, nil
}

func sortedByTag(protocols []Protocol) bool {
	for i := 1; i < len(protocols); i++ {
		if protocols[i].Tag <= protocols[i-1].Tag {
			return false
		}
	}
	return true
}

// Release returns the schema's arena to the pool. s must not be used
// afterward.
func (s *Sproto) Release(ctx gctx.Context) {
	s.arena.Release(ctx)
	s.types = nil
	s.protocols = nil
}
