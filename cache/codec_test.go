package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	for _, v := range []Value{
		Null(),
		Bool(true),
		Bool(false),
		Number(0),
		Number(-12.75),
		String(""),
		String("with unicode: 日本語"),
		Sequence(),
		Sequence(Number(1), Sequence(String("nested")), Null()),
		Mapping(),
		Mapping(
			F("id", String("tt0111161")),
			F("review-items", Sequence(
				Mapping(
					F("name", String("Violence")),
					F("score", Number(2.5)),
					F("cat", String("Mild")),
					F("votes", Null()),
				),
			)),
		),
	} {
		raw, err := Encode(v)
		require.NoError(t, err)
		back, err := Decode(raw)
		require.NoError(t, err)
		assert.True(t, v.Equal(back), "round trip changed %s value", v.Kind())
	}
}

func TestCodecPreservesMappingOrder(t *testing.T) {
	v := Mapping(
		F("z", Number(1)),
		F("a", Number(2)),
		F("m", Number(3)),
	)
	raw, err := Encode(v)
	require.NoError(t, err)
	back, err := Decode(raw)
	require.NoError(t, err)

	keys := make([]string, 0, 3)
	for _, f := range back.Fields() {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)
}

func TestDecodeCorruptBytes(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":     {},
		"garbage":   []byte("not msgpack at all"),
		"truncated": {0x92, 0x01}, // array of 2 with one element
	} {
		_, err := Decode(data)
		assert.ErrorIs(t, err, ErrCorruptValue, name)
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	raw, err := Encode(String("ok"))
	require.NoError(t, err)
	_, err = Decode(append(raw, 0xc0))
	assert.ErrorIs(t, err, ErrCorruptValue)
}

func TestDeadlineRoundTrip(t *testing.T) {
	for _, d := range []int64{NeverExpires, 1, 1700000000} {
		raw, err := encodeDeadline(d)
		require.NoError(t, err)
		back, err := decodeDeadline(raw)
		require.NoError(t, err)
		assert.Equal(t, d, back)
	}

	_, err := decodeDeadline(nil)
	assert.ErrorIs(t, err, ErrCorruptValue)

	// A well-formed msgpack value of the wrong type is still corrupt.
	raw, err := Encode(String("soon"))
	require.NoError(t, err)
	_, err = decodeDeadline(raw)
	assert.ErrorIs(t, err, ErrCorruptValue)
}
