package markup

import (
	"encoding/json"
	"strconv"
)

// Kind is the type of a context value.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindNumber
)

// Value is a display-ready context value: a string, a boolean or a number.
type Value struct {
	kind Kind
	str  string
	b    bool
	num  float64
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number creates a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// String returns the text substituted for the value.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

// Truthy reports whether a conditional block keyed on this value renders:
// a non-empty string, true, or a non-zero number.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num != 0
	}
	return v.str != ""
}

// MarshalJSON writes the value as its native JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}

// ValueOf converts a scalar from a decoded data record. Nil and composite
// values (maps, slices) have no context representation and report false.
func ValueOf(x interface{}) (Value, bool) {
	switch t := x.(type) {
	case string:
		return String(t), true
	case bool:
		return Bool(t), true
	case float64:
		return Number(t), true
	case float32:
		return Number(float64(t)), true
	case int:
		return Number(float64(t)), true
	case int8:
		return Number(float64(t)), true
	case int16:
		return Number(float64(t)), true
	case int32:
		return Number(float64(t)), true
	case int64:
		return Number(float64(t)), true
	case uint:
		return Number(float64(t)), true
	case uint8:
		return Number(float64(t)), true
	case uint16:
		return Number(float64(t)), true
	case uint32:
		return Number(float64(t)), true
	case uint64:
		return Number(float64(t)), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String()), true
		}
		return Number(f), true
	}
	return Value{}, false
}

// Context is the flat lookup a template is rendered against. Keys are
// case-sensitive.
type Context map[string]Value

// Set stores a value.
func (c Context) Set(key string, v Value) { c[key] = v }

// SetString stores a string value.
func (c Context) SetString(key, s string) { c[key] = String(s) }

// SetBool stores a boolean value.
func (c Context) SetBool(key string, b bool) { c[key] = Bool(b) }

// Lookup returns the value for key.
func (c Context) Lookup(key string) (Value, bool) {
	v, ok := c[key]
	return v, ok
}

// ContextFrom builds a context from a plain map, skipping values ValueOf
// cannot represent.
func ContextFrom(m map[string]interface{}) Context {
	ctx := make(Context, len(m))
	for k, v := range m {
		if val, ok := ValueOf(v); ok {
			ctx[k] = val
		}
	}
	return ctx
}
