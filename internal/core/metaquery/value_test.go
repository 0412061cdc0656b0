package metaquery

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument_Object(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"a":1,"b":"x","c":[true,null],"d":{"e":2.5}}`))
	require.NoError(t, err)

	assert.Equal(t, KindObject, doc.Kind())
	assert.Equal(t, 4, doc.Len())
	assert.Equal(t, []string{"a", "b", "c", "d"}, doc.Keys())

	a, ok := doc.Get("a")
	require.True(t, ok)
	n, isNum := a.AsNumber()
	assert.True(t, isNum)
	assert.Equal(t, 1.0, n)

	c, _ := doc.Get("c")
	require.Len(t, c.Elems(), 2)
	assert.True(t, c.Elems()[1].IsNull())
}

func TestParseDocument_KeepsDocumentKeyOrder(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"z":1,"a":{"y":true,"b":null},"m":["q","p"]}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a", "m"}, doc.Keys())
	inner, _ := doc.Get("a")
	assert.Equal(t, []string{"y", "b"}, inner.Keys())
	assert.Equal(t, `{"z":1,"a":{"y":true,"b":null},"m":["q","p"]}`, doc.String())
}

func TestParseDocument_DuplicateKeyKeepsLastValue(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"a":1,"b":2,"a":3}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, doc.Keys())
	a, _ := doc.Get("a")
	assert.True(t, Equal(Number(3), a))
}

func TestParseDocument_LargeFiniteNumbers(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"big":1e300,"id":9007199254740993}`))
	require.NoError(t, err)

	big, _ := doc.Get("big")
	n, ok := big.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 1e300, n)

	b, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.True(t, json.Valid(b))
}

func TestParseDocument_BlankIsEmptyObject(t *testing.T) {
	for _, in := range []string{"", "   ", "\n"} {
		doc, err := ParseDocument([]byte(in))
		require.NoError(t, err)
		assert.Equal(t, KindObject, doc.Kind())
		assert.Equal(t, 0, doc.Len())
	}
}

func TestParseDocument_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"truncated", `{"a":`},
		{"garbage", `not json`},
		{"root array", `[1,2]`},
		{"root string", `"x"`},
		{"number overflows float64", `{"score":1e400}`},
		{"negative overflow in array", `{"a":[1,-1e999]}`},
		{"two top-level values", `{"a":1}{"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedDocument)

			var mde *MalformedDocumentError
			assert.ErrorAs(t, err, &mde)
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null", Null(), Null(), true},
		{"bool", Bool(true), Bool(true), true},
		{"bool differs", Bool(true), Bool(false), false},
		{"number", Number(1), Number(1.0), true},
		{"string vs number", String("1"), Number(1), false},
		{"bool vs string", Bool(true), String("true"), false},
		{"array order matters", Strings("1", "2"), Strings("2", "1"), false},
		{"array", Strings("1", "2"), Strings("1", "2"), true},
		{
			"object key order irrelevant",
			Object(Member{"a", Number(1)}, Member{"b", Number(2)}),
			Object(Member{"b", Number(2)}, Member{"a", Number(1)}),
			true,
		},
		{
			"object extra key",
			Object(Member{"a", Number(1)}),
			Object(Member{"a", Number(1)}, Member{"b", Number(2)}),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a))
		})
	}
}

func TestEqual_ParsedNumbersCompareNumerically(t *testing.T) {
	a, err := ParseValue([]byte(`1`))
	require.NoError(t, err)
	b, err := ParseValue([]byte(`1.0`))
	require.NoError(t, err)
	assert.True(t, Equal(a, b))
}

func TestObject_DuplicateKeyKeepsLastValue(t *testing.T) {
	v := Object(Member{"a", Number(1)}, Member{"a", Number(2)})
	assert.Equal(t, []string{"a"}, v.Keys())
	got, _ := v.Get("a")
	assert.True(t, Equal(Number(2), got))
}

func TestValue_Interface(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"n":3,"f":1.5,"arr":["x"]}`))
	require.NoError(t, err)

	got := doc.Interface().(map[string]any)
	assert.Equal(t, int64(3), got["n"])
	assert.Equal(t, 1.5, got["f"])
	assert.Equal(t, []any{"x"}, got["arr"])
}

func TestValue_MarshalJSON(t *testing.T) {
	v := Object(Member{"array_test", Strings("1", "2")})
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"array_test":["1","2"]}`, string(b))
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, `["1","2"]`, Strings("1", "2").String())
	assert.Equal(t, `true`, Bool(true).String())
	assert.Equal(t, `{"b":"x\"y","a":[1.5,null]}`,
		Object(Member{"b", String(`x"y`)}, Member{"a", Array(Number(1.5), Null())}).String())
}

func TestValue_MarshalJSON_NonFinite(t *testing.T) {
	_, err := json.Marshal(Object(Member{"f", Number(math.Inf(1))}))
	assert.Error(t, err)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "object", KindObject.String())
	assert.Equal(t, "array", KindArray.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestFromAny(t *testing.T) {
	v := FromAny(map[string]any{
		"b":   []any{"x", int64(2), json.Number("2.5"), nil},
		"a":   true,
		"int": 7,
	})

	assert.Equal(t, KindObject, v.Kind())
	assert.Equal(t, []string{"a", "b", "int"}, v.Keys())
	assert.Equal(t, `{"a":true,"b":["x",2,2.5,null],"int":7}`, v.String())
	assert.True(t, Equal(Strings("q"), FromAny(Strings("q"))))
}
