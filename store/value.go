package store

import (
	"bytes"
	"math"
	"math/big"
	"sort"
)

// ValueKind is the discriminant of an entity field slot in guest memory.
// The numbering is part of the guest contract.
type ValueKind uint32

const (
	KindString ValueKind = iota
	KindInt
	KindFloat
	KindBool
	KindList
	KindNull
	KindBytes
	KindBigInt
)

func (k ValueKind) Known() bool {
	return k <= KindBigInt
}

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindNull:
		return "null"
	case KindBytes:
		return "bytes"
	case KindBigInt:
		return "bigint"
	default:
		return "unknown"
	}
}

// Value is an entity field value.
type Value interface {
	Kind() ValueKind
	isValue()
}

type (
	Null   struct{}
	String string
	Int    int32
	Float  float32
	Bool   bool
	List   []Value
	Bytes  []byte
)

// BigInt is an arbitrary-precision signed integer.
type BigInt struct {
	v *big.Int
}

func NewBigInt(v *big.Int) BigInt {
	return BigInt{v: new(big.Int).Set(v)}
}

// Big returns a copy of the integer. The zero BigInt is 0.
func (b BigInt) Big() *big.Int {
	if b.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.v)
}

func (b BigInt) String() string {
	return b.Big().String()
}

func (Null) Kind() ValueKind   { return KindNull }
func (String) Kind() ValueKind { return KindString }
func (Int) Kind() ValueKind    { return KindInt }
func (Float) Kind() ValueKind  { return KindFloat }
func (Bool) Kind() ValueKind   { return KindBool }
func (List) Kind() ValueKind   { return KindList }
func (Bytes) Kind() ValueKind  { return KindBytes }
func (BigInt) Kind() ValueKind { return KindBigInt }

func (Null) isValue()   {}
func (String) isValue() {}
func (Int) isValue()    {}
func (Float) isValue()  {}
func (Bool) isValue()   {}
func (List) isValue()   {}
func (Bytes) isValue()  {}
func (BigInt) isValue() {}

// Equal reports whether two values have the same kind and value.
// Floats compare by bit pattern.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Null:
		return true
	case String:
		return x == b.(String)
	case Int:
		return x == b.(Int)
	case Float:
		return math.Float32bits(float32(x)) == math.Float32bits(float32(b.(Float)))
	case Bool:
		return x == b.(Bool)
	case Bytes:
		return bytes.Equal(x, b.(Bytes))
	case BigInt:
		return x.Big().Cmp(b.(BigInt).Big()) == 0
	case List:
		y := b.(List)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Entity is a set of named field values.
type Entity map[string]Value

// Keys returns the field names in sorted order.
func (e Entity) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e Entity) Equal(o Entity) bool {
	if len(e) != len(o) {
		return false
	}
	for k, v := range e {
		w, ok := o[k]
		if !ok || !Equal(v, w) {
			return false
		}
	}
	return true
}

// ID returns the string "id" field, if present.
func (e Entity) ID() (string, bool) {
	s, ok := e["id"].(String)
	return string(s), ok
}
