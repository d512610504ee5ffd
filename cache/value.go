package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is the JSON-like tagged union the cache stores: null, boolean,
// number, string, ordered sequence, or ordered string-keyed mapping. The
// storage layer is agnostic to the shape of the tree; schema validation
// belongs to callers.
//
// The zero Value is null.
type Value struct {
	kind   Kind
	b      bool
	num    float64
	str    string
	seq    []Value
	fields []Field
}

// Field is one key/value pair of a mapping. Mappings preserve insertion
// order through encode/decode.
type Field struct {
	Key   string
	Value Value
}

func Null() Value                  { return Value{kind: KindNull} }
func Bool(b bool) Value            { return Value{kind: KindBool, b: b} }
func Number(n float64) Value       { return Value{kind: KindNumber, num: n} }
func String(s string) Value        { return Value{kind: KindString, str: s} }
func Sequence(items ...Value) Value { return Value{kind: KindSequence, seq: items} }
func Mapping(fields ...Field) Value { return Value{kind: KindMapping, fields: fields} }

// F is shorthand for building a mapping Field.
func F(key string, v Value) Field { return Field{Key: key, Value: v} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// BoolValue returns the boolean payload; false for any other kind.
func (v Value) BoolValue() bool { return v.kind == KindBool && v.b }

// NumberValue returns the numeric payload; 0 for any other kind.
func (v Value) NumberValue() float64 {
	if v.kind != KindNumber {
		return 0
	}
	return v.num
}

// StringValue returns the string payload; "" for any other kind.
func (v Value) StringValue() string {
	if v.kind != KindString {
		return ""
	}
	return v.str
}

// Items returns the elements of a sequence; nil for any other kind.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

// Fields returns the fields of a mapping in insertion order; nil for any
// other kind.
func (v Value) Fields() []Field {
	if v.kind != KindMapping {
		return nil
	}
	return v.fields
}

// Get looks up a mapping field by key. The second return is false when the
// value is not a mapping or the key is absent.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	for _, f := range v.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Equal reports deep equality. Mappings compare order-sensitively, matching
// the round-trip guarantee of the codec.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindSequence:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for i := range v.fields {
			if v.fields[i].Key != o.fields[i].Key || !v.fields[i].Value.Equal(o.fields[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON renders the value tree as JSON, keeping mapping field order.
// This bridge exists for the HTTP layer; storage encoding is msgpack.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		out, err := json.Marshal(v.num)
		if err != nil {
			return err
		}
		buf.Write(out)
	case KindString:
		out, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(out)
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMapping:
		buf.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(f.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, f.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// UnmarshalJSON parses JSON into a value tree, preserving object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := readJSON(dec)
	if err != nil {
		return err
	}
	// Reject trailing tokens so a Value never silently drops input.
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("cache: trailing data after JSON value")
	}
	*v = parsed
	return nil
}

func readJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return readJSONToken(dec, tok)
}

func readJSONToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(n), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := readJSON(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil { // closing ]
				return Value{}, err
			}
			return Sequence(items...), nil
		case '{':
			var fields []Field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("cache: non-string object key %v", keyTok)
				}
				val, err := readJSON(dec)
				if err != nil {
					return Value{}, err
				}
				fields = append(fields, F(key, val))
			}
			if _, err := dec.Token(); err != nil { // closing }
				return Value{}, err
			}
			return Mapping(fields...), nil
		}
	}
	return Value{}, fmt.Errorf("cache: unexpected JSON token %v", tok)
}
