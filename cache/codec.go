package cache

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Encode serializes a value tree to the opaque byte form the store persists.
// Encoding is streamed so mapping field order survives the round trip.
func Encode(v Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encodeValue(enc, v); err != nil {
		return nil, fmt.Errorf("cache: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeValue(enc *msgpack.Encoder, v Value) error {
	switch v.kind {
	case KindNull:
		return enc.EncodeNil()
	case KindBool:
		return enc.EncodeBool(v.b)
	case KindNumber:
		return enc.EncodeFloat64(v.num)
	case KindString:
		return enc.EncodeString(v.str)
	case KindSequence:
		if err := enc.EncodeArrayLen(len(v.seq)); err != nil {
			return err
		}
		for _, item := range v.seq {
			if err := encodeValue(enc, item); err != nil {
				return err
			}
		}
		return nil
	case KindMapping:
		if err := enc.EncodeMapLen(len(v.fields)); err != nil {
			return err
		}
		for _, f := range v.fields {
			if err := enc.EncodeString(f.Key); err != nil {
				return err
			}
			if err := encodeValue(enc, f.Value); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown kind %s", v.kind)
}

// Decode is the inverse of Encode. Any input that is not a complete,
// previously encoded value fails with ErrCorruptValue; it never partially
// succeeds.
func Decode(data []byte) (Value, error) {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrCorruptValue, err)
	}
	if r.Len() != 0 {
		return Value{}, fmt.Errorf("%w: %d trailing bytes", ErrCorruptValue, r.Len())
	}
	return v, nil
}

func decodeValue(dec *msgpack.Decoder) (Value, error) {
	code, err := dec.PeekCode()
	if err != nil {
		if err == io.EOF {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}
	switch {
	case code == msgpcode.Nil:
		return Null(), dec.DecodeNil()
	case code == msgpcode.True || code == msgpcode.False:
		b, err := dec.DecodeBool()
		return Bool(b), err
	case code == msgpcode.Float || code == msgpcode.Double:
		n, err := dec.DecodeFloat64()
		return Number(n), err
	case msgpcode.IsFixedNum(code),
		code == msgpcode.Int8, code == msgpcode.Int16, code == msgpcode.Int32, code == msgpcode.Int64:
		n, err := dec.DecodeInt64()
		return Number(float64(n)), err
	case code == msgpcode.Uint8, code == msgpcode.Uint16, code == msgpcode.Uint32, code == msgpcode.Uint64:
		n, err := dec.DecodeUint64()
		return Number(float64(n)), err
	case msgpcode.IsString(code):
		s, err := dec.DecodeString()
		return String(s), err
	case msgpcode.IsFixedArray(code), code == msgpcode.Array16, code == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, 0, n)
		for i := 0; i < n; i++ {
			item, err := decodeValue(dec)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Sequence(items...), nil
	case msgpcode.IsFixedMap(code), code == msgpcode.Map16, code == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return Value{}, err
		}
		fields := make([]Field, 0, n)
		for i := 0; i < n; i++ {
			key, err := dec.DecodeString()
			if err != nil {
				return Value{}, err
			}
			val, err := decodeValue(dec)
			if err != nil {
				return Value{}, err
			}
			fields = append(fields, F(key, val))
		}
		return Mapping(fields...), nil
	}
	return Value{}, fmt.Errorf("unsupported msgpack code 0x%02x", code)
}

// encodeDeadline serializes an absolute expiry instant. The stored column is
// opaque bytes, not an integer, so the sentinel and real deadlines share one
// representation.
func encodeDeadline(deadline int64) ([]byte, error) {
	out, err := msgpack.Marshal(deadline)
	if err != nil {
		return nil, fmt.Errorf("cache: encode deadline: %w", err)
	}
	return out, nil
}

func decodeDeadline(data []byte) (int64, error) {
	var deadline int64
	if err := msgpack.Unmarshal(data, &deadline); err != nil {
		return 0, fmt.Errorf("%w: expiry: %v", ErrCorruptValue, err)
	}
	return deadline, nil
}
