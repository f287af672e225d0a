package asc

import (
	"strconv"

	"github.com/wippyai/subgraph-runtime/asc/internal/layout"
	"github.com/wippyai/subgraph-runtime/errors"
)

// NewArray writes values into a fresh buffer and an Array header over it.
func NewArray[E Elem](h Heap, values []E) (Ptr[Array[E]], error) {
	if uint64(len(values)) > MaxArrayLength {
		return 0, errors.New(errors.PhaseEncode, errors.KindOverflow).
			AscType("Array").
			Detail("array length %d exceeds maximum %d", len(values), MaxArrayLength).
			Build()
	}
	buffer, err := NewArrayBuffer(h, values)
	if err != nil {
		return 0, err
	}
	header := make([]byte, layout.ArraySize)
	le.PutUint32(header[0:4], buffer.Offset())
	le.PutUint32(header[4:8], uint32(len(values)))
	offset, err := h.RawNew(header)
	if err != nil {
		return 0, err
	}
	return Ptr[Array[E]](offset), nil
}

// GetArray reads the elements of an Array in order.
func GetArray[E Elem](h Heap, p Ptr[Array[E]]) ([]E, error) {
	b, err := readHeader(h, p.Offset(), layout.ArraySize, "Array")
	if err != nil {
		return nil, err
	}
	buffer := Ptr[ArrayBuffer[E]](le.Uint32(b[0:4]))
	length := le.Uint32(b[4:8])
	if length > MaxArrayLength {
		return nil, errors.New(errors.PhaseDecode, errors.KindOverflow).
			AscType("Array").
			Value(length).
			Detail("array length %d exceeds maximum %d", length, MaxArrayLength).
			Build()
	}
	if buffer.IsNull() {
		if length == 0 {
			return []E{}, nil
		}
		return nil, errors.NullPointer(errors.PhaseDecode, []string{"buffer"}, "ArrayBuffer")
	}
	return GetArrayBuffer(h, buffer, 0, length)
}

// NewStringArray writes each string, then an array of their pointers.
func NewStringArray(h Heap, values []string) (Ptr[Array[Ptr[String]]], error) {
	ptrs := make([]Ptr[String], len(values))
	for i, s := range values {
		p, err := NewString(h, s)
		if err != nil {
			return 0, withIndex(err, i)
		}
		ptrs[i] = p
	}
	return NewArray(h, ptrs)
}

func GetStringArray(h Heap, p Ptr[Array[Ptr[String]]]) ([]string, error) {
	ptrs, err := GetArray(h, p)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ptrs))
	for i, sp := range ptrs {
		s, err := GetString(h, sp)
		if err != nil {
			return nil, withIndex(err, i)
		}
		out[i] = s
	}
	return out, nil
}

// withIndex prefixes an element index onto a structured error's path.
func withIndex(err error, i int) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append([]string{strconv.Itoa(i)}, e.Path...)
		return e
	}
	return err
}
