package sproto

import "sort"

// FieldByTag finds the Field with the given tag, using the dense-offset
// fast path when the type's tags are contiguous (Base >= 0) and falling
// back to binary search otherwise — sproto.c's findtag.
func (t *Type) FieldByTag(tag int) *Field {
	if t.Base >= 0 {
		idx := tag - t.Base
		if idx < 0 || idx >= len(t.Fields) {
			return nil
		}
		f := &t.Fields[idx]
		if f.Tag != tag {
			return nil
		}
		return f
	}
	n := len(t.Fields)
	i := sort.Search(n, func(i int) bool { return t.Fields[i].Tag >= tag })
	if i < n && t.Fields[i].Tag == tag {
		return &t.Fields[i]
	}
	return nil
}

// TypeByName looks up a type by name, linear scan per §4.6 (rare operation,
// typically called once per protocol resolution rather than per message).
func (s *Sproto) TypeByName(name string) *Type {
	for i := range s.types {
		if s.types[i].Name() == name {
			return &s.types[i]
		}
	}
	return nil
}

// protocolIndexByTag binary searches the sorted protocol list.
func (s *Sproto) protocolIndexByTag(tag int) int {
	n := len(s.protocols)
	i := sort.Search(n, func(i int) bool { return s.protocols[i].Tag >= tag })
	if i < n && s.protocols[i].Tag == tag {
		return i
	}
	return -1
}

// ProtocolTag returns the tag of the protocol named name, or -1 if none.
func (s *Sproto) ProtocolTag(name string) int {
	for i := range s.protocols {
		if s.protocols[i].Name() == name {
			return s.protocols[i].Tag
		}
	}
	return -1
}

// ProtocolName returns the name of the protocol with the given tag, or ""
// if none.
func (s *Sproto) ProtocolName(tag int) string {
	i := s.protocolIndexByTag(tag)
	if i < 0 {
		return ""
	}
	return s.protocols[i].Name()
}

// ProtocolByTag returns the protocol descriptor with the given tag, or nil.
func (s *Sproto) ProtocolByTag(tag int) *Protocol {
	i := s.protocolIndexByTag(tag)
	if i < 0 {
		return nil
	}
	return &s.protocols[i]
}

// ProtocolQuery returns the request or response Type for the protocol with
// the given tag, or nil if the protocol or that side of it doesn't exist.
func (s *Sproto) ProtocolQuery(tag int, which Which) *Type {
	p := s.ProtocolByTag(tag)
	if p == nil {
		return nil
	}
	if which == Response {
		return p.Response
	}
	return p.Request
}

// ProtocolHasResponse reports whether the protocol at tag expects a reply.
func (s *Sproto) ProtocolHasResponse(tag int) bool {
	p := s.ProtocolByTag(tag)
	return p != nil && p.HasResponse()
}
