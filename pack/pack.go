// Package pack implements sproto's 0-pack compression: a block transform
// over 8-byte groups that collapses runs of zero bytes, intended to run
// after Encode and before putting a message on the wire.
package pack

import (
	"errors"
	"log"

	"github.com/gostdlib/base/context"
	"github.com/gostdlib/base/telemetry/otel/trace/span"
)

// ErrTruncated is returned by Unpack when src ends in the middle of a
// block header or a run's declared length.
var ErrTruncated = errors.New("pack: truncated input")

// blockSize is the group width the transform operates on.
const blockSize = 8

// Pack compresses src into dst, returning the number of bytes the packed
// form occupies. If dst is smaller than that, only the leading portion
// that fits is written — the returned size still reflects the full
// packed length, mirroring sproto_pack's behavior when handed an
// undersized buffer.
func Pack(ctx context.Context, src, dst []byte) int {
	_, sp := span.New(ctx, span.WithName("sproto.pack.Pack"))
	defer sp.End()

	size := 0
	outIdx := 0

	ffRun := 0
	ffSrcStart := 0
	ffDstStart := 0

	for i := 0; i < len(src); i += blockSize {
		var block [blockSize]byte
		end := i + blockSize
		if end > len(src) {
			end = len(src)
		}
		copy(block[:], src[i:end])

		n := packBlock(block, dst, outIdx, ffRun)

		switch {
		case n == 10:
			ffSrcStart, ffDstStart, ffRun = i, outIdx, 1
		case n == 8 && ffRun > 0:
			ffRun++
			if ffRun == 256 {
				writeFF(src, ffSrcStart, dst, ffDstStart, ffRun)
				ffRun = 0
			}
		default:
			if ffRun > 0 {
				writeFF(src, ffSrcStart, dst, ffDstStart, ffRun)
				ffRun = 0
			}
		}

		outIdx += n
		size += n
	}
	if ffRun > 0 {
		writeFF(src, ffSrcStart, dst, ffDstStart, ffRun)
	}
	if len(src) > 0 {
		log.Printf("sproto: packed %d bytes into %d (%.1f%%)", len(src), size, 100*float64(size)/float64(len(src)))
	}
	return size
}

// packBlock classifies and (where not part of a pending FF run) writes one
// 8-byte block at dst[outIdx:], returning its nominal output size:
//
//   - 1..8 for a block encoded as [bitmask byte][nonzero bytes...], written
//     immediately;
//   - 8 for a fully-nonzero block that continues an already-open FF run
//     (the header byte and bytes are deferred to writeFF);
//   - 10 for a fully-nonzero block that is NOT continuing a run — the
//     nominal size accounts for a future 2-byte FF run header plus this
//     block's 8 data bytes, also deferred to writeFF.
//
// A block with 6 or 7 nonzero bytes is promoted to the fully-nonzero
// classification only while a run is already open, since breaking the run
// costs more than the byte or two saved by the sparse encoding; outside a
// run it is still cheaper to encode it sparsely.
func packBlock(block [blockSize]byte, dst []byte, outIdx int, ffRun int) int {
	avail := len(dst) - outIdx // may go negative; only its sign matters below
	avail--                    // header byte's slot
	headerFits := avail >= 0

	var header byte
	notzero := 0
	bodyOff := outIdx + 1
	for i := 0; i < blockSize; i++ {
		if block[i] != 0 {
			notzero++
			header |= 1 << uint(i)
			if avail > 0 {
				if bodyOff < len(dst) {
					dst[bodyOff] = block[i]
				}
				bodyOff++
				avail--
			} else {
				bodyOff++
			}
		}
	}

	if (notzero == 7 || notzero == 6) && ffRun > 0 {
		notzero = 8
	}
	if notzero == 8 {
		if ffRun > 0 {
			return 8
		}
		return 10
	}

	if headerFits && outIdx < len(dst) {
		dst[outIdx] = header
	}
	return notzero + 1
}

// writeFF emits the [0xff][n-1][8n raw bytes] encoding for a run of n
// fully-nonzero blocks that began at src[srcStart:], placing it at
// dst[dstStart:]. Source bytes past len(src) (the final block's padding)
// are written as zero; destination bytes past len(dst) are simply not
// written. n is capped at 256 by the caller.
func writeFF(src []byte, srcStart int, dst []byte, dstStart int, n int) {
	if dstStart >= 0 && dstStart < len(dst) {
		dst[dstStart] = 0xff
	}
	if dstStart+1 >= 0 && dstStart+1 < len(dst) {
		dst[dstStart+1] = byte(n - 1)
	}
	total := n * blockSize
	for i := 0; i < total; i++ {
		pos := dstStart + 2 + i
		if pos < 0 || pos >= len(dst) {
			continue
		}
		sp := srcStart + i
		if sp < len(src) {
			dst[pos] = src[sp]
		} else {
			dst[pos] = 0
		}
	}
}

// Unpack expands src back into dst, returning the number of bytes the
// unpacked form occupies. As with Pack, if dst is smaller than that, only
// the leading portion that fits is written while the full size is still
// returned. Unpack returns ErrTruncated if src ends mid-block.
func Unpack(ctx context.Context, src, dst []byte) (int, error) {
	_, sp := span.New(ctx, span.WithName("sproto.pack.Unpack"))
	defer sp.End()

	size := 0
	si, di := 0, 0

	for si < len(src) {
		header := src[si]
		si++

		if header == 0xff {
			if si >= len(src) {
				return -1, ErrTruncated
			}
			n := (int(src[si]) + 1) * blockSize
			if si+1+n > len(src) {
				return -1, ErrTruncated
			}
			si++
			writeUnpacked(dst, di, src[si:si+n])
			si += n
			di += n
			size += n
			continue
		}

		for i := 0; i < blockSize; i++ {
			if header&(1<<uint(i)) != 0 {
				if si >= len(src) {
					return -1, ErrTruncated
				}
				if di < len(dst) {
					dst[di] = src[si]
				}
				si++
			} else if di < len(dst) {
				dst[di] = 0
			}
			di++
			size++
		}
	}
	if len(src) > 0 {
		log.Printf("sproto: unpacked %d bytes into %d", len(src), size)
	}
	return size, nil
}

func writeUnpacked(dst []byte, di int, src []byte) {
	if di >= len(dst) {
		return
	}
	end := di + len(src)
	if end > len(dst) {
		end = len(dst)
	}
	copy(dst[di:end], src[:end-di])
}
