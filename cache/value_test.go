package cache

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKinds(t *testing.T) {
	assert.Equal(t, KindNull, Null().Kind())
	assert.Equal(t, KindBool, Bool(true).Kind())
	assert.Equal(t, KindNumber, Number(1.5).Kind())
	assert.Equal(t, KindString, String("x").Kind())
	assert.Equal(t, KindSequence, Sequence().Kind())
	assert.Equal(t, KindMapping, Mapping().Kind())

	// The zero Value is null.
	var zero Value
	assert.True(t, zero.IsNull())
}

func TestValueAccessors(t *testing.T) {
	assert.True(t, Bool(true).BoolValue())
	assert.Equal(t, 2.5, Number(2.5).NumberValue())
	assert.Equal(t, "hi", String("hi").StringValue())
	assert.Len(t, Sequence(Number(1), Number(2)).Items(), 2)

	// Accessors on the wrong kind return zero values, not panics.
	assert.False(t, String("true").BoolValue())
	assert.Equal(t, 0.0, String("2.5").NumberValue())
	assert.Equal(t, "", Number(1).StringValue())
	assert.Nil(t, Number(1).Items())
	assert.Nil(t, Number(1).Fields())
}

func TestMappingGet(t *testing.T) {
	m := Mapping(
		F("title", String("Heat")),
		F("year", Number(1995)),
	)
	v, ok := m.Get("title")
	assert.True(t, ok)
	assert.Equal(t, "Heat", v.StringValue())

	_, ok = m.Get("director")
	assert.False(t, ok)

	_, ok = String("not a mapping").Get("title")
	assert.False(t, ok)
}

func TestValueEqual(t *testing.T) {
	a := Mapping(
		F("items", Sequence(Number(1), String("two"), Null())),
		F("ok", Bool(true)),
	)
	b := Mapping(
		F("items", Sequence(Number(1), String("two"), Null())),
		F("ok", Bool(true)),
	)
	assert.True(t, a.Equal(b))

	// Field order matters.
	c := Mapping(
		F("ok", Bool(true)),
		F("items", Sequence(Number(1), String("two"), Null())),
	)
	assert.False(t, a.Equal(c))

	assert.False(t, Number(1).Equal(String("1")))
	assert.True(t, Null().Equal(Null()))
}

func TestValueJSONRoundTrip(t *testing.T) {
	v := Mapping(
		F("title", String("The Shawshank Redemption")),
		F("score", Number(2.5)),
		F("votes", Null()),
		F("tags", Sequence(String("a"), String("b"))),
		F("ok", Bool(true)),
	)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	// Mapping order is preserved in the rendered JSON.
	assert.Equal(t, `{"title":"The Shawshank Redemption","score":2.5,"votes":null,"tags":["a","b"],"ok":true}`, string(out))

	var back Value
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, v.Equal(back))
}

func TestValueJSONRejectsTrailingData(t *testing.T) {
	var v Value
	assert.Error(t, json.Unmarshal([]byte(`{"a":1} extra`), &v))
}
