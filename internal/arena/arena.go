// Package arena implements the bump allocator that backs a loaded schema.
// It is a direct port of sproto.c's pool_alloc/pool_newchunk/pool_release
// (struct pool / struct chunk), generalized with a pooled free list of
// released chunk backing arrays the way clawc/languages/go/segment's
// SegmentPools reuses *Segment values across a process's lifetime — a
// schema is loaded and released far more often in a long-running game
// server than the C original's single-process-lifetime assumption, so
// reusing chunk backing arrays avoids re-zeroing large allocations on every
// reload.
package arena

import (
	"github.com/gostdlib/base/concurrency/sync"
	"github.com/gostdlib/base/context"

	"github.com/bearlytools/sproto/internal/conversions"
)

// DefaultChunkSize matches sproto.c's CHUNK_SIZE.
const DefaultChunkSize = 1000

const align = 8

type chunk struct {
	buf  []byte
	next *chunk
}

func (c *chunk) reset() {
	c.buf = c.buf[:0]
	c.next = nil
}

var chunkPool = sync.NewPool[*chunk](
	context.Background(),
	"arena.chunkPool",
	func() *chunk { return &chunk{} },
)

// Arena is a bump allocator owning a linked list of chunks, mirroring
// sproto.c's struct pool. All schema descriptor storage is allocated from
// one Arena, which is released in a single pass when the owning Sproto is
// released.
type Arena struct {
	chunkSize   int
	header      *chunk // full chain, newest first; owns everything for Release
	current     *chunk // chunk new small allocations are bumped from
	currentUsed int
}

// New creates an Arena with the given chunk size. A chunkSize <= 0 uses
// DefaultChunkSize.
func New(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Arena{chunkSize: chunkSize}
}

func alignUp(sz int) int {
	return (sz + align - 1) &^ (align - 1)
}

func (a *Arena) newChunk(ctx context.Context, sz int) *chunk {
	c := chunkPool.Get(ctx)
	if cap(c.buf) < sz {
		c.buf = make([]byte, 0, sz)
	}
	c.buf = c.buf[:0]
	c.next = a.header
	a.header = c
	return c
}

// Alloc returns sz bytes of 8-byte-aligned storage that lives until
// Release is called. Chunks reused from the pool are not re-zeroed, so the
// returned bytes may hold earlier contents. It returns nil only if sz is
// negative; unlike the C
// original, Go's allocator doesn't fail for the sizes this library deals in,
// but callers that model §4.1's OOM behavior (schema loading) should still
// treat a nil result as SPROTO_CB_ERROR-equivalent.
func (a *Arena) Alloc(ctx context.Context, sz int) []byte {
	if sz < 0 {
		return nil
	}
	sz = alignUp(sz)

	if sz >= a.chunkSize {
		c := a.newChunk(ctx, sz)
		c.buf = c.buf[:sz]
		return c.buf
	}

	if a.current == nil {
		a.current = a.newChunk(ctx, a.chunkSize)
		a.current.buf = a.current.buf[:cap(a.current.buf)]
		a.currentUsed = 0
	}

	if sz+a.currentUsed <= cap(a.current.buf) {
		ret := a.current.buf[a.currentUsed : a.currentUsed+sz]
		a.currentUsed += sz
		return ret
	}

	if sz >= a.currentUsed {
		c := a.newChunk(ctx, sz)
		c.buf = c.buf[:sz]
		return c.buf
	}

	// sz < currentUsed: the current chunk's remaining space can't fit it,
	// but a fresh standard chunk always can. The abandoned remainder of the
	// old current chunk stays reachable via the header chain and is freed
	// on Release, matching sproto.c's pool_alloc branch at line 108-115.
	c := a.newChunk(ctx, a.chunkSize)
	a.current = c
	a.current.buf = a.current.buf[:cap(a.current.buf)]
	a.currentUsed = sz
	return a.current.buf[:sz]
}

// AllocBytes copies src into the arena and returns the arena-owned copy.
// Schema descriptors use this so nothing they hold aliases the input blob
// passed to Create, which the caller is free to reuse or discard.
func (a *Arena) AllocBytes(ctx context.Context, src []byte) []byte {
	b := a.Alloc(ctx, len(src))
	copy(b, src)
	return b
}

// AllocString copies s into the arena and returns the arena-owned bytes.
func (a *Arena) AllocString(ctx context.Context, s string) []byte {
	return a.AllocBytes(ctx, conversions.UnsafeGetBytes(s))
}

// Release returns every chunk in the chain to the pool. The Arena must not
// be used afterward.
func (a *Arena) Release(ctx context.Context) {
	c := a.header
	for c != nil {
		n := c.next
		c.reset()
		chunkPool.Put(ctx, c)
		c = n
	}
	a.header = nil
	a.current = nil
	a.currentUsed = 0
}
