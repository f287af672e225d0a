package asc

import (
	"encoding/binary"

	"github.com/wippyai/subgraph-runtime/asc/internal/layout"
)

// Elem is a fixed-width element that can live inline in an ArrayBuffer.
// Pointers qualify through their uint32 representation.
type Elem interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 |
		~uint64 | ~int64 | ~float32 | ~float64
}

// Guest object types. They carry no data on the host and only tag pointers.
type (
	// ArrayBuffer is {byte_length u32, padding [4]u8, content}.
	ArrayBuffer[E Elem] struct{}
	// TypedArray is {buffer Ptr<ArrayBuffer>, byte_offset u32, byte_length u32}.
	TypedArray[E Elem] struct{}
	// String is {length u32, code units [length]u16}.
	String struct{}
	// Array is {buffer Ptr<ArrayBuffer>, length u32}.
	Array[E Elem] struct{}
)

type (
	Uint8Array = TypedArray[uint8]
	Bytes      = Uint8Array
	Address    = Uint8Array
	// BigInt holds little-endian bytes; the reader picks signed or unsigned.
	BigInt = Uint8Array
)

// Limits applied to guest-controlled lengths before anything is read.
const (
	MaxStringLength = layout.MaxStringLength
	MaxArrayLength  = layout.MaxArrayLength
)

var typeName = layout.TypeName

var le = binary.LittleEndian

func elemSize[E Elem]() uint32 {
	var zero E
	return uint32(binary.Size(zero))
}

func encodeElems[E Elem](values []E) []byte {
	if len(values) == 0 {
		return nil
	}
	out, err := binary.Append(make([]byte, 0, len(values)*int(elemSize[E]())), le, values)
	if err != nil {
		// Elem only admits fixed-size kinds.
		panic(err)
	}
	return out
}

func decodeElems[E Elem](data []byte, n uint32) []E {
	out := make([]E, n)
	if n == 0 {
		return out
	}
	if _, err := binary.Decode(data, le, out); err != nil {
		panic(err)
	}
	return out
}
