// Package layout holds size arithmetic shared by the asc codecs.
package layout

import (
	"math"
	"reflect"
)

// Header sizes of the AssemblyScript objects, in bytes.
const (
	ArrayBufferHeader = 8  // byte_length u32, padding [4]u8
	TypedArraySize    = 12 // buffer, byte_offset, byte_length
	StringHeader      = 4  // length in UTF-16 code units
	ArraySize         = 8  // buffer, length
	EnumSize          = 16 // kind u32, padding u32, payload u64
	TypedMapEntrySize = 8  // key, value
	TypedMapSize      = 4  // entries
)

const (
	MaxStringLength = 1 << 28 // code units
	MaxArrayLength  = 1 << 27 // elements
	MaxAlloc        = 1 << 30 // bytes in a single object
)

func SafeMulU32(a, b uint32) (uint32, bool) {
	if b != 0 && a > math.MaxUint32/b {
		return 0, false
	}
	return a * b, true
}

func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// TypeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}
