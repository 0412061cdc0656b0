package metaquery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/ohler55/ojg/oj"
)

// Kind classifies a JSON value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON type name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is an immutable JSON value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	keys []string // object key order
	obj  map[string]Value
}

// Null returns the JSON null value.
func Null() Value { return Value{} }

// Bool returns a JSON boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a JSON number.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String returns a JSON string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns a JSON array holding elems in order.
func Array(elems ...Value) Value {
	arr := make([]Value, len(elems))
	copy(arr, elems)
	return Value{kind: KindArray, arr: arr}
}

// Strings returns a JSON array of strings.
func Strings(elems ...string) Value {
	arr := make([]Value, len(elems))
	for i, s := range elems {
		arr[i] = String(s)
	}
	return Value{kind: KindArray, arr: arr}
}

// Member is one key/value pair of an object under construction.
type Member struct {
	Key   string
	Value Value
}

// Object returns a JSON object with members in the given order.
// A repeated key keeps its first position and its last value.
func Object(members ...Member) Value {
	v := Value{kind: KindObject, obj: make(map[string]Value, len(members))}
	for _, m := range members {
		if _, dup := v.obj[m.Key]; !dup {
			v.keys = append(v.keys, m.Key)
		}
		v.obj[m.Key] = m.Value
	}
	return v
}

// ParseDocument parses a stored metadata document. The root must be a JSON
// object; blank input is an empty object because a record that never had
// metadata written stores nothing.
func ParseDocument(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Object(), nil
	}
	v, err := ParseValue(data)
	if err != nil {
		return Value{}, err
	}
	if v.kind != KindObject {
		return Value{}, &MalformedDocumentError{Reason: "root is a " + v.kind.String() + ", not an object"}
	}
	return v, nil
}

// ParseValue parses any JSON value. Object keys keep their document order.
// Numbers outside the float64 range are rejected because they cannot be
// rendered back as JSON.
func ParseValue(data []byte) (Value, error) {
	var b builder
	if err := oj.Tokenize(data, &b); err != nil {
		return Value{}, &MalformedDocumentError{Cause: err}
	}
	if b.err != nil {
		return Value{}, &MalformedDocumentError{Reason: b.err.Error()}
	}
	if !b.done || len(b.stack) > 0 {
		return Value{}, &MalformedDocumentError{Reason: "incomplete document"}
	}
	return b.root, nil
}

var _ oj.TokenHandler = (*builder)(nil)

// builder assembles a Value from ojg tokens.
type builder struct {
	stack []*frame
	root  Value
	done  bool
	err   error
}

type frame struct {
	kind Kind
	arr  []Value
	keys []string
	obj  map[string]Value
	key  string
}

func (b *builder) add(v Value) {
	if b.err != nil {
		return
	}
	if len(b.stack) == 0 {
		if b.done {
			b.err = errors.New("more than one top-level value")
			return
		}
		b.root, b.done = v, true
		return
	}
	f := b.stack[len(b.stack)-1]
	if f.kind == KindArray {
		f.arr = append(f.arr, v)
		return
	}
	if _, dup := f.obj[f.key]; !dup {
		f.keys = append(f.keys, f.key)
	}
	f.obj[f.key] = v
}

func (b *builder) number(n float64, text string) {
	if math.IsInf(n, 0) || math.IsNaN(n) {
		if b.err == nil {
			b.err = fmt.Errorf("number %s is out of range", text)
		}
		return
	}
	b.add(Number(n))
}

func (b *builder) Null() { b.add(Null()) }
func (b *builder) Bool(v bool) { b.add(Bool(v)) }
func (b *builder) Int(v int64) { b.add(Number(float64(v))) }
func (b *builder) Float(v float64) { b.number(v, strconv.FormatFloat(v, 'g', -1, 64)) }
func (b *builder) String(v string) { b.add(String(v)) }
func (b *builder) ObjectStart() { b.push(KindObject) }
func (b *builder) ArrayStart() { b.push(KindArray) }
func (b *builder) ObjectEnd() { b.pop() }
func (b *builder) ArrayEnd() { b.pop() }

// Number receives numbers ojg could not fit into an int64 or float64.
func (b *builder) Number(text string) {
	n, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		if b.err == nil {
			b.err = fmt.Errorf("invalid number %s", text)
		}
		return
	}
	b.number(n, text)
}

func (b *builder) Key(k string) {
	if len(b.stack) > 0 {
		b.stack[len(b.stack)-1].key = k
	}
}

func (b *builder) push(kind Kind) {
	f := &frame{kind: kind}
	if kind == KindObject {
		f.obj = make(map[string]Value)
	}
	b.stack = append(b.stack, f)
}

func (b *builder) pop() {
	if len(b.stack) == 0 {
		return
	}
	f := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	if f.kind == KindArray {
		b.add(Value{kind: KindArray, arr: f.arr})
		return
	}
	b.add(Value{kind: KindObject, keys: f.keys, obj: f.obj})
}

// FromAny converts a decoded Go value (as produced by ojg or encoding/json)
// into a Value. Unknown types become their fmt string. Go maps carry no
// order, so object keys come out sorted.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case int64:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case float64:
		return Number(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(f)
	case string:
		return String(t)
	case []any:
		arr := make([]Value, len(t))
		for i, e := range t {
			arr[i] = FromAny(e)
		}
		return Value{kind: KindArray, arr: arr}
	case map[string]any:
		// Go maps are unordered; sort so rendering is deterministic.
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make(map[string]Value, len(t))
		for _, k := range keys {
			obj[k] = FromAny(t[k])
		}
		return Value{kind: KindObject, keys: keys, obj: obj}
	case Value:
		return t
	default:
		s := fmt.Sprint(t)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Number(f)
		}
		return String(s)
	}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean and whether v is a boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number and whether v is a number.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string and whether v is a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Elems returns the array elements, or nil when v is not an array.
// The returned slice must not be modified.
func (v Value) Elems() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Keys returns the object keys in order, or nil when v is not an object.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return append([]string(nil), v.keys...)
}

// Get looks up key in an object.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	e, ok := v.obj[key]
	return e, ok
}

// Len returns the number of elements or members; zero for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.keys)
	default:
		return 0
	}
}

// Interface converts v back to plain Go values. Integral numbers become
// int64 so they render without a fraction.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if v.n == math.Trunc(v.n) && math.Abs(v.n) < 1<<53 {
			return int64(v.n)
		}
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// String renders v as compact JSON with object keys in order.
func (v Value) String() string {
	b, err := v.appendJSON(nil)
	if err != nil {
		return fmt.Sprintf("%v", v.Interface())
	}
	return string(b)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.appendJSON(nil)
}

func (v Value) appendJSON(buf []byte) ([]byte, error) {
	switch v.kind {
	case KindArray:
		buf = append(buf, '[')
		for i, e := range v.arr {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			if buf, err = e.appendJSON(buf); err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case KindObject:
		buf = append(buf, '{')
		for i, k := range v.keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			key, err := oj.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(append(buf, key...), ':')
			if buf, err = v.obj[k].appendJSON(buf); err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil
	case KindNumber:
		if math.IsInf(v.n, 0) || math.IsNaN(v.n) {
			return nil, fmt.Errorf("number %v has no JSON form", v.n)
		}
	}
	scalar, err := oj.Marshal(v.Interface())
	if err != nil {
		return nil, err
	}
	return append(buf, scalar...), nil
}

// Equal reports deep equality under JSON semantics: numbers compare by
// value, object key order is irrelevant, array order is relevant and values
// of different kinds are never equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for k, av := range a.obj {
			bv, ok := b.obj[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
