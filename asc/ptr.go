package asc

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// Ptr is an offset into guest linear memory where an object of type T
// starts. The zero value is the null pointer.
type Ptr[T any] uint32

// Null returns the null pointer for T.
func Null[T any]() Ptr[T] {
	return 0
}

func (p Ptr[T]) IsNull() bool {
	return p == 0
}

func (p Ptr[T]) Offset() uint32 {
	return uint32(p)
}

// Wasm returns the pointer as an i32 call argument.
func (p Ptr[T]) Wasm() uint64 {
	return api.EncodeU32(uint32(p))
}

// PtrFromWasm reads a pointer from an i32 call result.
func PtrFromWasm[T any](v uint64) Ptr[T] {
	return Ptr[T](api.DecodeU32(v))
}

// Payload widens the pointer into a tagged-union payload.
func (p Ptr[T]) Payload() uint64 {
	return uint64(p)
}

// PtrFromPayload narrows a tagged-union payload back to a pointer.
func PtrFromPayload[T any](payload uint64) Ptr[T] {
	return Ptr[T](uint32(payload))
}

// Cast reinterprets the pointer as pointing at a U.
func Cast[U, T any](p Ptr[T]) Ptr[U] {
	return Ptr[U](p)
}

func (p Ptr[T]) String() string {
	var zero T
	return fmt.Sprintf("%s@0x%08x", typeName(zero), uint32(p))
}
