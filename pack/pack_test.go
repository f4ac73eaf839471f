package pack

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/gostdlib/base/context"
)

func roundTrip(t *testing.T, src []byte) {
	t.Helper()
	ctx := context.Background()
	packed := make([]byte, Pack(ctx, src, nil))
	n := Pack(ctx, src, packed)
	if n != len(packed) {
		t.Fatalf("Pack size mismatch: got %d, sized buffer for %d", n, len(packed))
	}

	unpackSz, err := Unpack(ctx, packed, nil)
	if err != nil {
		t.Fatalf("Unpack sizing pass: %v", err)
	}
	out := make([]byte, unpackSz)
	n2, err := Unpack(ctx, packed, out)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if n2 != len(src) {
		// out is zero-padded to a multiple of 8; trailing zero padding
		// beyond len(src) is expected and fine as long as the prefix matches.
		if n2 < len(src) {
			t.Fatalf("Unpack produced %d bytes, want at least %d", n2, len(src))
		}
	}
	if !bytes.Equal(out[:len(src)], src) {
		t.Fatalf("round trip mismatch:\n got %x\nwant %x", out[:len(src)], src)
	}
}

func TestRoundTripAllZero(t *testing.T) {
	roundTrip(t, make([]byte, 64))
}

func TestRoundTripSparse(t *testing.T) {
	src := make([]byte, 32)
	src[0] = 1
	src[9] = 2
	src[17] = 3
	roundTrip(t, src)
}

func TestRoundTripDenseRun(t *testing.T) {
	src := make([]byte, 8*300)
	for i := range src {
		src[i] = byte(i + 1)
	}
	roundTrip(t, src)
}

func TestRoundTripNonMultipleOf8(t *testing.T) {
	roundTrip(t, []byte{1, 2, 3})
	roundTrip(t, []byte{0, 0, 0, 1, 0})
}

func TestRoundTripMixed(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	src := make([]byte, 4096)
	for i := range src {
		switch rng.Intn(4) {
		case 0:
			src[i] = 0
		default:
			src[i] = byte(rng.Intn(256))
		}
	}
	roundTrip(t, src)
}

func TestPackEmpty(t *testing.T) {
	ctx := context.Background()
	if n := Pack(ctx, nil, nil); n != 0 {
		t.Fatalf("Pack(nil) = %d, want 0", n)
	}
}

func TestPackUndersizedDestination(t *testing.T) {
	ctx := context.Background()
	src := make([]byte, 8*300)
	for i := range src {
		src[i] = byte(i + 1)
	}
	full := Pack(ctx, src, nil)
	small := make([]byte, full/2)
	n := Pack(ctx, src, small)
	if n != full {
		t.Fatalf("Pack with undersized dst returned %d, want full size %d", n, full)
	}
}

func TestUnpackTruncated(t *testing.T) {
	ctx := context.Background()
	if _, err := Unpack(ctx, []byte{0xff}, nil); err != ErrTruncated {
		t.Fatalf("Unpack truncated FF header: got %v, want ErrTruncated", err)
	}
	if _, err := Unpack(ctx, []byte{0xff, 5, 1, 2}, nil); err != ErrTruncated {
		t.Fatalf("Unpack truncated FF run: got %v, want ErrTruncated", err)
	}
	if _, err := Unpack(ctx, []byte{0x01}, nil); err != ErrTruncated {
		t.Fatalf("Unpack bitmask missing data byte: got %v, want ErrTruncated", err)
	}
}

func TestUnpackUndersizedDestination(t *testing.T) {
	ctx := context.Background()
	src := make([]byte, 8*10)
	for i := range src {
		src[i] = byte(i + 1)
	}
	packed := make([]byte, Pack(ctx, src, nil))
	Pack(ctx, src, packed)

	full, err := Unpack(ctx, packed, nil)
	if err != nil {
		t.Fatalf("Unpack sizing pass: %v", err)
	}
	small := make([]byte, full/2)
	n, err := Unpack(ctx, packed, small)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if n != full {
		t.Fatalf("Unpack with undersized dst returned %d, want full size %d", n, full)
	}
	if !bytes.Equal(small, src[:len(small)]) {
		t.Fatalf("partial unpack content mismatch")
	}
}

func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte{0, 0, 0, 0, 0, 0, 0, 0})
	f.Add([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	f.Add([]byte{0, 1, 0, 0, 2, 0, 0, 0})
	f.Fuzz(func(t *testing.T, src []byte) {
		ctx := context.Background()
		packed := make([]byte, Pack(ctx, src, nil))
		Pack(ctx, src, packed)
		sz, err := Unpack(ctx, packed, nil)
		if err != nil {
			t.Fatalf("Unpack sizing pass: %v", err)
		}
		out := make([]byte, sz)
		if _, err := Unpack(ctx, packed, out); err != nil {
			t.Fatalf("Unpack: %v", err)
		}
		if !bytes.Equal(out[:len(src)], src) {
			t.Fatalf("round trip mismatch:\n got %x\nwant %x", out[:len(src)], src)
		}
	})
}
