package structdiff

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Kind discriminates the JSON value union.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
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
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Value is a parsed JSON value. Comparisons are structural: object key order
// never matters, array order always does, and numbers compare by numeric
// value rather than by their source text.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  map[string]Value
}

func Null() Value            { return Value{kind: KindNull} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func String(s string) Value  { return Value{kind: KindString, str: s} }
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }

func Number(n json.Number) Value {
	return Value{kind: KindNumber, num: n}
}

func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, obj: fields}
}

func (v Value) Kind() Kind { return v.kind }

// Field returns the named member of an object value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.obj[name]
	return f, ok
}

// Keys returns the object's member names in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup resolves a dot-separated field path against nested objects.
func Lookup(v Value, path string) (Value, bool) {
	if path == "" {
		return v, true
	}
	current := v
	for _, segment := range strings.Split(path, ".") {
		next, ok := current.Field(segment)
		if !ok {
			return Value{}, false
		}
		current = next
	}
	return current, true
}

// JSON renders the value back to raw JSON. Marshaling a Value cannot fail.
func (v Value) JSON() json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return json.RawMessage(b)
}

// Parse decodes raw JSON into a Value, preserving number text via
// json.Number so no precision is lost.
func Parse(raw json.RawMessage) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return Value{}, errors.Wrap(err, "structdiff: malformed JSON")
	}
	return fromAny(data), nil
}

func fromAny(data any) Value {
	switch d := data.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(d)
	case json.Number:
		return Number(d)
	case string:
		return String(d)
	case []any:
		arr := make([]Value, len(d))
		for i, item := range d {
			arr[i] = fromAny(item)
		}
		return Array(arr...)
	case map[string]any:
		obj := make(map[string]Value, len(d))
		for k, item := range d {
			obj[k] = fromAny(item)
		}
		return Object(obj)
	default:
		// encoding/json with UseNumber never produces other types; a float64
		// can still arrive when a Value is built from Go data directly.
		b, err := json.Marshal(d)
		if err != nil {
			return Null()
		}
		return Value{kind: KindNumber, num: json.Number(b)}
	}
}

// Equal is canonical structural equality over the value model.
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
		return numberEqual(a.num, b.num)
	case KindString:
		return a.str == b.str
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

// numberEqual compares by numeric value, so "1" equals "1.0" and "1e2"
// equals "100".
func numberEqual(a, b json.Number) bool {
	da, errA := decimal.NewFromString(a.String())
	db, errB := decimal.NewFromString(b.String())
	if errA != nil || errB != nil {
		return a.String() == b.String()
	}
	return da.Equal(db)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		if v.num == "" {
			return []byte("0"), nil
		}
		return []byte(v.num), nil
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case KindObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	default:
		return []byte("null"), nil
	}
}
