package convert

import (
	"github.com/wippyai/subgraph-runtime/asc"
	"github.com/wippyai/subgraph-runtime/errors"
	"github.com/wippyai/subgraph-runtime/store"
)

// ValueToAsc writes v and returns its slot. A nil value is written as Null.
func (c *Converter) ValueToAsc(h asc.Heap, v store.Value) (ValuePtr, error) {
	return c.valueToAsc(h, v, 1)
}

// ValuesToAsc writes an array of value slots.
func (c *Converter) ValuesToAsc(h asc.Heap, vs []store.Value) (ValueArrayPtr, error) {
	return c.valuesToAsc(h, vs, 1)
}

// ValueFromAsc reads a value slot. The null pointer reads as Null.
func (c *Converter) ValueFromAsc(h asc.Heap, p ValuePtr) (store.Value, error) {
	return c.valueFromAsc(h, p, 1)
}

// ValuesFromAsc reads an array of value slots.
func (c *Converter) ValuesFromAsc(h asc.Heap, p ValueArrayPtr) ([]store.Value, error) {
	return c.valuesFromAsc(h, p, 1)
}

func (c *Converter) valueToAsc(h asc.Heap, v store.Value, depth int) (ValuePtr, error) {
	if err := c.checkDepth(errors.PhaseEncode, depth); err != nil {
		return 0, err
	}
	if v == nil {
		v = store.Null{}
	}

	var payload uint64
	switch x := v.(type) {
	case store.Null:
	case store.String:
		p, err := asc.NewString(h, string(x))
		if err != nil {
			return 0, err
		}
		payload = p.Payload()
	case store.Int:
		payload = asc.Int32Payload(int32(x))
	case store.Float:
		payload = asc.Float32Payload(float32(x))
	case store.Bool:
		payload = asc.BoolPayload(bool(x))
	case store.List:
		p, err := c.valuesToAsc(h, x, depth+1)
		if err != nil {
			return 0, err
		}
		payload = p.Payload()
	case store.Bytes:
		p, err := asc.NewBytes(h, x)
		if err != nil {
			return 0, err
		}
		payload = p.Payload()
	case store.BigInt:
		p, err := asc.NewBigInt(h, x.Big())
		if err != nil {
			return 0, err
		}
		payload = p.Payload()
	default:
		return 0, errors.TypeMismatch(errors.PhaseEncode, nil, typeName(v), "Enum<StoreValueKind>")
	}
	return asc.NewEnum(h, v.Kind(), payload)
}

func (c *Converter) valuesToAsc(h asc.Heap, vs []store.Value, depth int) (ValueArrayPtr, error) {
	if err := c.checkDepth(errors.PhaseEncode, depth); err != nil {
		return 0, err
	}
	slots := make([]ValuePtr, len(vs))
	for i, v := range vs {
		p, err := c.valueToAsc(h, v, depth)
		if err != nil {
			return 0, atIndex(err, i)
		}
		slots[i] = p
	}
	return asc.NewArray(h, slots)
}

func (c *Converter) valueFromAsc(h asc.Heap, p ValuePtr, depth int) (store.Value, error) {
	if err := c.checkDepth(errors.PhaseDecode, depth); err != nil {
		return nil, err
	}
	if p.IsNull() {
		return store.Null{}, nil
	}
	slot, err := asc.GetEnum(h, p)
	if err != nil {
		return nil, err
	}

	switch slot.Kind {
	case store.KindNull:
		return store.Null{}, nil
	case store.KindString:
		s, err := asc.GetString(h, asc.PtrFromPayload[asc.String](slot.Payload))
		if err != nil {
			return nil, err
		}
		return store.String(s), nil
	case store.KindInt:
		return store.Int(asc.PayloadInt32(slot.Payload)), nil
	case store.KindFloat:
		return store.Float(asc.PayloadFloat32(slot.Payload)), nil
	case store.KindBool:
		return store.Bool(asc.PayloadBool(slot.Payload)), nil
	case store.KindList:
		vs, err := c.valuesFromAsc(h, asc.PtrFromPayload[asc.EnumArray[store.ValueKind]](slot.Payload), depth+1)
		if err != nil {
			return nil, err
		}
		return store.List(vs), nil
	case store.KindBytes:
		b, err := asc.GetBytes(h, asc.PtrFromPayload[asc.Bytes](slot.Payload))
		if err != nil {
			return nil, err
		}
		return store.Bytes(b), nil
	case store.KindBigInt:
		n, err := asc.GetBigInt(h, asc.PtrFromPayload[asc.BigInt](slot.Payload))
		if err != nil {
			return nil, err
		}
		return store.NewBigInt(n), nil
	}
	return nil, errors.UnknownDiscriminant(errors.PhaseDecode, nil, uint32(slot.Kind), "StoreValueKind")
}

func (c *Converter) valuesFromAsc(h asc.Heap, p ValueArrayPtr, depth int) ([]store.Value, error) {
	if err := c.checkDepth(errors.PhaseDecode, depth); err != nil {
		return nil, err
	}
	slots, err := asc.GetArray(h, p)
	if err != nil {
		return nil, err
	}
	out := make([]store.Value, len(slots))
	for i, slot := range slots {
		v, err := c.valueFromAsc(h, slot, depth)
		if err != nil {
			return nil, atIndex(err, i)
		}
		out[i] = v
	}
	return out, nil
}
