package sproto

import (
	"bytes"
	"testing"

	gctx "github.com/gostdlib/base/context"
)

// buildPersonSchema returns a bundle containing one type ("Person": name
// string, age integer, scores array of integer) and no protocols.
func buildPersonSchema() []byte {
	person := buildTypeRecord("Person", []testFieldSpec{
		{name: "name", kind: KindString, tag: 0, key: -1},
		{name: "age", kind: KindInteger, tag: 1, key: -1},
		{name: "scores", kind: KindInteger, tag: 2, array: true, key: -1},
	})
	return buildBundle([][]byte{person}, nil)
}

func TestCreateLoadsTypes(t *testing.T) {
	ctx := gctx.Background()
	s, err := Create(ctx, buildPersonSchema())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Release(ctx)

	typ := s.TypeByName("Person")
	if typ == nil {
		t.Fatal("TypeByName(Person) = nil")
	}
	if typ.Name() != "Person" {
		t.Fatalf("Name() = %q, want Person", typ.Name())
	}
	if len(typ.Fields) != 3 {
		t.Fatalf("len(Fields) = %d, want 3", len(typ.Fields))
	}
	if typ.Base != 0 {
		t.Fatalf("Base = %d, want 0 (dense tags 0..2)", typ.Base)
	}

	f := typ.FieldByTag(1)
	if f == nil || f.Name() != "age" || f.Kind != KindInteger {
		t.Fatalf("FieldByTag(1) = %+v, want age/integer", f)
	}
	if typ.FieldByTag(99) != nil {
		t.Fatal("FieldByTag(99) should be nil")
	}
}

func TestCreateSkipSlotGap(t *testing.T) {
	// Tag 5 jumps straight from 0, exercising the loader's gap counting for
	// MaxTag and Type.Base falling back to binary search (non-dense tags).
	sparse := buildTypeRecord("Sparse", []testFieldSpec{
		{name: "a", kind: KindInteger, tag: 0, key: -1},
		{name: "b", kind: KindInteger, tag: 5, key: -1},
	})
	ctx := gctx.Background()
	s, err := Create(ctx, buildBundle([][]byte{sparse}, nil))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Release(ctx)

	typ := s.TypeByName("Sparse")
	if typ.Base != -1 {
		t.Fatalf("Base = %d, want -1 (non-dense)", typ.Base)
	}
	if f := typ.FieldByTag(5); f == nil || f.Name() != "b" {
		t.Fatalf("FieldByTag(5) = %+v, want b", f)
	}
	if typ.MaxTag != 3 {
		t.Fatalf("MaxTag = %d, want 3 (2 fields + 1 gap)", typ.MaxTag)
	}
}

func TestCreateStructAndProtocol(t *testing.T) {
	addr := buildTypeRecord("Address", []testFieldSpec{
		{name: "city", kind: KindString, tag: 0, key: -1},
	})
	person := buildTypeRecord("Person", []testFieldSpec{
		{name: "name", kind: KindString, tag: 0, key: -1},
		{name: "home", kind: KindStruct, tag: 1, typeIndex: 0, key: -1},
	})
	ping := buildProtocolRecord(testProtoSpec{name: "ping", tag: 1, request: 1, response: -1, confirm: true})

	ctx := gctx.Background()
	s, err := Create(ctx, buildBundle([][]byte{addr, person}, [][]byte{ping}))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Release(ctx)

	personType := s.TypeByName("Person")
	home := personType.FieldByTag(1)
	if home == nil || home.Kind != KindStruct || home.Subtype == nil {
		t.Fatalf("home field not resolved to a struct subtype: %+v", home)
	}
	if home.Subtype.Name() != "Address" {
		t.Fatalf("home.Subtype.Name() = %q, want Address", home.Subtype.Name())
	}

	p := s.ProtocolByTag(1)
	if p == nil || p.Name() != "ping" {
		t.Fatalf("ProtocolByTag(1) = %+v, want ping", p)
	}
	if p.Request != personType {
		t.Fatal("ping.Request should resolve to Person")
	}
	if !p.HasResponse() {
		t.Fatal("ping.HasResponse() should be true (Confirm set)")
	}
	if s.ProtocolTag("ping") != 1 {
		t.Fatalf("ProtocolTag(ping) = %d, want 1", s.ProtocolTag("ping"))
	}
}

func TestCreateRejectsMalformedHeader(t *testing.T) {
	ctx := gctx.Background()
	if _, err := Create(ctx, []byte{0x01}); err == nil {
		t.Fatal("Create with truncated header should fail")
	}
}

func TestCreateRejectsUnsortedProtocols(t *testing.T) {
	person := buildTypeRecord("Person", []testFieldSpec{
		{name: "name", kind: KindString, tag: 0, key: -1},
	})
	p1 := buildProtocolRecord(testProtoSpec{name: "b", tag: 2, request: -1, response: -1})
	p2 := buildProtocolRecord(testProtoSpec{name: "a", tag: 1, request: -1, response: -1})

	ctx := gctx.Background()
	_, err := Create(ctx, buildBundle([][]byte{person}, [][]byte{p1, p2}))
	if err == nil {
		t.Fatal("Create should reject protocols not sorted by ascending tag")
	}
}

func TestDumpText(t *testing.T) {
	ctx := gctx.Background()
	s, err := Create(ctx, buildPersonSchema())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Release(ctx)

	var buf bytes.Buffer
	if err := Dump(&buf, s); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte("Person")) {
		t.Fatalf("Dump output missing type name:\n%s", out)
	}
	if !bytes.Contains(buf.Bytes(), []byte("scores")) {
		t.Fatalf("Dump output missing field name:\n%s", out)
	}
}

func TestDumpJSONAndYAML(t *testing.T) {
	ctx := gctx.Background()
	s, err := Create(ctx, buildPersonSchema())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Release(ctx)

	var jbuf bytes.Buffer
	if err := DumpJSON(&jbuf, s); err != nil {
		t.Fatalf("DumpJSON: %v", err)
	}
	if !bytes.Contains(jbuf.Bytes(), []byte(`"Person"`)) {
		t.Fatalf("DumpJSON missing type name: %s", jbuf.String())
	}

	var ybuf bytes.Buffer
	if err := DumpYAML(&ybuf, s); err != nil {
		t.Fatalf("DumpYAML: %v", err)
	}
	if !bytes.Contains(ybuf.Bytes(), []byte("Person")) {
		t.Fatalf("DumpYAML missing type name: %s", ybuf.String())
	}
}
