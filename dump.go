package sproto

import (
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"gopkg.in/yaml.v3"
)

// Dump writes s in the original sproto_dump text format: one line per type
// with its fields, then one line per protocol with its request/response
// type names.
func Dump(w io.Writer, s *Sproto) error {
	if _, err := fmt.Fprintf(w, "=== %d types ===\n", len(s.types)); err != nil {
		return err
	}
	for i := range s.types {
		t := &s.types[i]
		if _, err := fmt.Fprintf(w, "%s\n", t.Name()); err != nil {
			return err
		}
		for j := range t.Fields {
			f := &t.Fields[j]
			container := ""
			if f.Array {
				container = "*"
			}
			if _, err := fmt.Fprintf(w, "\t%s (%d) %s%s", f.Name(), f.Tag, container, fieldTypeName(f)); err != nil {
				return err
			}
			if f.Kind == KindInteger && f.Extra > 1 {
				if _, err := fmt.Fprintf(w, "(%d)", f.Extra); err != nil {
					return err
				}
			}
			if f.Key >= 0 {
				if _, err := fmt.Fprintf(w, " key[%d]", f.Key); err != nil {
					return err
				}
				if f.Map {
					if _, err := fmt.Fprintf(w, " value[%d]", f.Subtype.Fields[1].Tag); err != nil {
						return err
					}
				}
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintf(w, "=== %d protocol ===\n", len(s.protocols)); err != nil {
		return err
	}
	for i := range s.protocols {
		p := &s.protocols[i]
		reqName := "(null)"
		if p.Request != nil {
			reqName = p.Request.Name()
		}
		if _, err := fmt.Fprintf(w, "\t%s (%d) request:%s", p.Name(), p.Tag, reqName); err != nil {
			return err
		}
		if p.Response != nil {
			if _, err := fmt.Fprintf(w, " response:%s", p.Response.Name()); err != nil {
				return err
			}
		} else if p.Confirm {
			if _, err := fmt.Fprintf(w, " response nil"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func fieldTypeName(f *Field) string {
	if f.Kind == KindStruct {
		return f.Subtype.Name()
	}
	switch f.Kind {
	case KindInteger:
		if f.Extra > 1 {
			return "decimal"
		}
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindString:
		if f.Extra == 1 {
			return "binary"
		}
		return "string"
	case KindDouble:
		return "double"
	default:
		return "invalid"
	}
}

// dumpField/dumpType/dumpProtocol are plain DTOs for structured dump
// formats: Type and Field hold unexported arena-owned name bytes and
// pointer links that don't serialize meaningfully on their own.
type dumpField struct {
	Name  string `json:"name" yaml:"name"`
	Tag   int    `json:"tag" yaml:"tag"`
	Type  string `json:"type" yaml:"type"`
	Array bool   `json:"array,omitempty" yaml:"array,omitempty"`
	Key   int    `json:"key,omitempty" yaml:"key,omitempty"`
	Map   bool   `json:"map,omitempty" yaml:"map,omitempty"`
	Extra uint64 `json:"extra,omitempty" yaml:"extra,omitempty"`
}

type dumpType struct {
	Name   string      `json:"name" yaml:"name"`
	Fields []dumpField `json:"fields" yaml:"fields"`
}

type dumpProtocol struct {
	Name     string `json:"name" yaml:"name"`
	Tag      int    `json:"tag" yaml:"tag"`
	Request  string `json:"request,omitempty" yaml:"request,omitempty"`
	Response string `json:"response,omitempty" yaml:"response,omitempty"`
	Confirm  bool   `json:"confirm,omitempty" yaml:"confirm,omitempty"`
}

type dumpSchema struct {
	Types     []dumpType     `json:"types" yaml:"types"`
	Protocols []dumpProtocol `json:"protocols" yaml:"protocols"`
}

func toDumpSchema(s *Sproto) dumpSchema {
	out := dumpSchema{
		Types:     make([]dumpType, len(s.types)),
		Protocols: make([]dumpProtocol, len(s.protocols)),
	}
	for i := range s.types {
		t := &s.types[i]
		dt := dumpType{Name: t.Name(), Fields: make([]dumpField, len(t.Fields))}
		for j := range t.Fields {
			f := &t.Fields[j]
			dt.Fields[j] = dumpField{
				Name:  f.Name(),
				Tag:   f.Tag,
				Type:  fieldTypeName(f),
				Array: f.Array,
				Key:   f.Key,
				Map:   f.Map,
				Extra: f.Extra,
			}
		}
		out.Types[i] = dt
	}
	for i := range s.protocols {
		p := &s.protocols[i]
		dp := dumpProtocol{Name: p.Name(), Tag: p.Tag, Confirm: p.Confirm}
		if p.Request != nil {
			dp.Request = p.Request.Name()
		}
		if p.Response != nil {
			dp.Response = p.Response.Name()
		}
		out.Protocols[i] = dp
	}
	return out
}

// DumpJSON writes s as JSON via go-json-experiment/json.
func DumpJSON(w io.Writer, s *Sproto) error {
	return json.MarshalWrite(w, toDumpSchema(s))
}

// DumpYAML writes s as YAML via gopkg.in/yaml.v3.
func DumpYAML(w io.Writer, s *Sproto) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(toDumpSchema(s))
}
