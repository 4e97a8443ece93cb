package jsonform

import (
	"fmt"
	"math"
	"sort"
)

// Kind identifies which variant of the JSON sum type a Value holds
type Kind int

const (
	NullKind Kind = iota
	BoolKind
	NumberKind
	StringKind
	ArrayKind
	ObjectKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "boolean"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case ArrayKind:
		return "array"
	case ObjectKind:
		return "object"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is an immutable JSON value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	a    []Value
	o    *Object
}

func NewNull() Value {
	return Value{kind: NullKind}
}

func NewBool(b bool) Value {
	return Value{kind: BoolKind, b: b}
}

func NewNumber(n float64) Value {
	return Value{kind: NumberKind, n: n}
}

func NewString(s string) Value {
	return Value{kind: StringKind, s: s}
}

func NewArray(elements ...Value) Value {
	if elements == nil {
		elements = []Value{}
	}
	return Value{kind: ArrayKind, a: elements}
}

// Member is a single key/value pair of an object, used when building objects in order
type Member struct {
	Key   string
	Value Value
}

func NewObject(members ...Member) Value {
	o := &Object{}
	for _, m := range members {
		o.Set(m.Key, m.Value)
	}
	return Value{kind: ObjectKind, o: o}
}

func objectValue(o *Object) Value {
	return Value{kind: ObjectKind, o: o}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == NullKind
}

func (v Value) Bool() bool {
	return v.b
}

func (v Value) Number() float64 {
	return v.n
}

func (v Value) Str() string {
	return v.s
}

// Elements returns the elements of an array value, or nil for any other kind
func (v Value) Elements() []Value {
	return v.a
}

// Object returns the members of an object value, or nil for any other kind
func (v Value) Object() *Object {
	return v.o
}

// Equal reports structural equality. Object keys are compared regardless
// of their order while array elements must appear in the same order.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case NullKind:
		return true
	case BoolKind:
		return v.b == other.b
	case NumberKind:
		return v.n == other.n || (math.IsNaN(v.n) && math.IsNaN(other.n))
	case StringKind:
		return v.s == other.s
	case ArrayKind:
		if len(v.a) != len(other.a) {
			return false
		}
		for i := range v.a {
			if !v.a[i].Equal(other.a[i]) {
				return false
			}
		}
		return true
	case ObjectKind:
		if v.o.Len() != other.o.Len() {
			return false
		}
		for _, k := range v.o.Keys() {
			ov, ok := other.o.Get(k)
			if !ok {
				return false
			}
			mv, _ := v.o.Get(k)
			if !mv.Equal(ov) {
				return false
			}
		}
		return true
	}

	return false
}

// Interface converts the value into the types used by encoding/json when
// decoding into an interface{}. Key order is lost in the returned maps.
func (v Value) Interface() any {
	switch v.kind {
	case BoolKind:
		return v.b
	case NumberKind:
		return v.n
	case StringKind:
		return v.s
	case ArrayKind:
		arr := make([]any, 0, len(v.a))
		for _, e := range v.a {
			arr = append(arr, e.Interface())
		}
		return arr
	case ObjectKind:
		m := make(map[string]any, v.o.Len())
		v.o.Each(func(key string, value Value) {
			m[key] = value.Interface()
		})
		return m
	}
	return nil
}

// FromInterface builds a Value from the output of encoding/json. Map keys
// have no inherent order so they are added in sorted order.
func FromInterface(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return NewNull(), nil
	case bool:
		return NewBool(t), nil
	case float64:
		return NewNumber(t), nil
	case float32:
		return NewNumber(float64(t)), nil
	case int:
		return NewNumber(float64(t)), nil
	case int64:
		return NewNumber(float64(t)), nil
	case string:
		return NewString(t), nil
	case []any:
		elements := make([]Value, 0, len(t))
		for _, e := range t {
			ev, err := FromInterface(e)
			if err != nil {
				return Value{}, err
			}
			elements = append(elements, ev)
		}
		return NewArray(elements...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		o := &Object{}
		for _, k := range keys {
			mv, err := FromInterface(t[k])
			if err != nil {
				return Value{}, err
			}
			o.Set(k, mv)
		}
		return objectValue(o), nil
	}

	return Value{}, fmt.Errorf("unsupported type %T", x)
}

// Object is an insertion ordered set of members. Setting an existing key
// replaces its value but keeps its original position.
type Object struct {
	keys   []string
	values map[string]Value
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Set(key string, v Value) {
	if o.values == nil {
		o.values = make(map[string]Value)
	}

	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}

	o.values[key] = v
}

func (o *Object) Each(fn func(key string, value Value)) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		fn(k, o.values[k])
	}
}
