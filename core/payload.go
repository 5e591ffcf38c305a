package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Payload is the ordered analysis produced by the upstream scoring engine. The
// gateway only reads it.
type Payload struct {
	Sections []Section
}

// Section is one named block of a payload. Exactly one of Value or Fields is
// meaningful: Fields when the section is a nested mapping, Value otherwise.
type Section struct {
	Name   string
	Value  any
	Fields []Field
}

// Field is one key/value entry of a nested section.
type Field struct {
	Key   string
	Value any
}

// IsNested reports whether the section holds sub-fields.
func (s Section) IsNested() bool { return s.Fields != nil }

// Flat builds a section holding a single value.
func Flat(name string, value any) Section { return Section{Name: name, Value: value} }

// Nested builds a section holding ordered sub-fields.
func Nested(name string, fields ...Field) Section {
	if fields == nil {
		fields = []Field{}
	}
	return Section{Name: name, Fields: fields}
}

// F builds a field.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

// NewPayload builds a payload from sections in order.
func NewPayload(sections ...Section) Payload { return Payload{Sections: sections} }

// Keys returns the top-level section names in order.
func (p Payload) Keys() []string {
	out := make([]string, 0, len(p.Sections))
	for _, s := range p.Sections {
		out = append(out, s.Name)
	}
	return out
}

// Validate rejects payloads the orchestrator cannot render.
func (p Payload) Validate() error {
	if len(p.Sections) == 0 {
		return NewError(ErrPayload, "payload has no sections")
	}
	seen := make(map[string]struct{}, len(p.Sections))
	for i, s := range p.Sections {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return NewError(ErrPayload, fmt.Sprintf("section %d has no name", i))
		}
		if _, dup := seen[name]; dup {
			return NewError(ErrPayload, fmt.Sprintf("duplicate section %q", name))
		}
		seen[name] = struct{}{}
	}
	return nil
}

// UnmarshalJSON decodes a JSON object while keeping key order at the section
// and field level. Deeper values decode into plain Go values.
func (p *Payload) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return NewError(ErrPayload, "payload must be a JSON object", WithWrapped(err))
	}
	var sections []Section
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return NewError(ErrPayload, "read section name", WithWrapped(err))
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return NewError(ErrPayload, fmt.Sprintf("read section %q", key), WithWrapped(err))
		}
		section, err := decodeSection(key, raw)
		if err != nil {
			return err
		}
		sections = append(sections, section)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return NewError(ErrPayload, "unterminated payload object", WithWrapped(err))
	}
	p.Sections = sections
	return nil
}

// MarshalJSON writes sections back as an ordered JSON object.
func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range p.Sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, s.Name, nil); err != nil {
			return nil, err
		}
		if !s.IsNested() {
			v, err := json.Marshal(s.Value)
			if err != nil {
				return nil, fmt.Errorf("marshal section %q: %w", s.Name, err)
			}
			buf.Write(v)
			continue
		}
		buf.WriteByte('{')
		for j, f := range s.Fields {
			if j > 0 {
				buf.WriteByte(',')
			}
			v, err := json.Marshal(f.Value)
			if err != nil {
				return nil, fmt.Errorf("marshal field %q.%q: %w", s.Name, f.Key, err)
			}
			if err := writeMember(&buf, f.Key, v); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func decodeSection(name string, raw json.RawMessage) (Section, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		var v any
		if err := unmarshalNumber(trimmed, &v); err != nil {
			return Section{}, NewError(ErrPayload, fmt.Sprintf("decode section %q", name), WithWrapped(err))
		}
		return Flat(name, v), nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return Section{}, NewError(ErrPayload, fmt.Sprintf("decode section %q", name), WithWrapped(err))
	}
	fields := []Field{}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return Section{}, NewError(ErrPayload, fmt.Sprintf("read field of %q", name), WithWrapped(err))
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return Section{}, NewError(ErrPayload, fmt.Sprintf("decode field %q.%q", name, key), WithWrapped(err))
		}
		fields = append(fields, F(key, v))
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Section{}, NewError(ErrPayload, fmt.Sprintf("decode section %q", name), WithWrapped(err))
	}
	return Nested(name, fields...), nil
}

func unmarshalNumber(data []byte, v *any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func writeMember(buf *bytes.Buffer, key string, value []byte) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	if value != nil {
		buf.Write(value)
	}
	return nil
}

// Identity personalizes the prompt. It is never used for access control.
type Identity struct {
	Name   string `json:"name"`
	DOB    string `json:"dob,omitempty"`
	Gender string `json:"gender,omitempty"`
}

// DisplayName returns the name to address the reader by.
func (i Identity) DisplayName() string {
	if n := strings.TrimSpace(i.Name); n != "" {
		return n
	}
	return "Client"
}
