package store

import (
	"fmt"
	"math"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"github.com/wippyai/subgraph-runtime/errors"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wireValue struct {
	Kind  ValueKind   `cbor:"1,keyasint"`
	Str   string      `cbor:"2,keyasint,omitempty"`
	Int   int32       `cbor:"3,keyasint,omitempty"`
	Float uint32      `cbor:"4,keyasint,omitempty"`
	Bool  bool        `cbor:"5,keyasint,omitempty"`
	Bytes []byte      `cbor:"6,keyasint,omitempty"`
	Big   *big.Int    `cbor:"7,keyasint,omitempty"`
	List  []wireValue `cbor:"8,keyasint,omitempty"`
}

func toWire(v Value) (wireValue, error) {
	if v == nil {
		return wireValue{Kind: KindNull}, nil
	}
	w := wireValue{Kind: v.Kind()}
	switch x := v.(type) {
	case Null:
	case String:
		w.Str = string(x)
	case Int:
		w.Int = int32(x)
	case Float:
		w.Float = math.Float32bits(float32(x))
	case Bool:
		w.Bool = bool(x)
	case Bytes:
		w.Bytes = []byte(x)
	case BigInt:
		w.Big = x.Big()
	case List:
		w.List = make([]wireValue, len(x))
		for i, elem := range x {
			ew, err := toWire(elem)
			if err != nil {
				return wireValue{}, err
			}
			w.List[i] = ew
		}
	default:
		return wireValue{}, errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("value type %T", v))
	}
	return w, nil
}

func fromWire(w wireValue) (Value, error) {
	switch w.Kind {
	case KindNull:
		return Null{}, nil
	case KindString:
		return String(w.Str), nil
	case KindInt:
		return Int(w.Int), nil
	case KindFloat:
		return Float(math.Float32frombits(w.Float)), nil
	case KindBool:
		return Bool(w.Bool), nil
	case KindBytes:
		if w.Bytes == nil {
			return Bytes{}, nil
		}
		return Bytes(w.Bytes), nil
	case KindBigInt:
		if w.Big == nil {
			return NewBigInt(new(big.Int)), nil
		}
		return BigInt{v: w.Big}, nil
	case KindList:
		out := make(List, len(w.List))
		for i, ew := range w.List {
			v, err := fromWire(ew)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return nil, errors.UnknownDiscriminant(errors.PhaseDecode, nil, uint32(w.Kind), "store.ValueKind")
}

// MarshalEntity serializes an entity to canonical CBOR.
func MarshalEntity(e Entity) ([]byte, error) {
	wire := make(map[string]wireValue, len(e))
	for k, v := range e {
		w, err := toWire(v)
		if err != nil {
			return nil, err
		}
		wire[k] = w
	}
	return cborEncMode.Marshal(wire)
}

// UnmarshalEntity deserializes an entity from CBOR bytes.
func UnmarshalEntity(data []byte) (Entity, error) {
	var wire map[string]wireValue
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "unmarshal entity")
	}
	e := make(Entity, len(wire))
	for k, w := range wire {
		v, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		e[k] = v
	}
	return e, nil
}
