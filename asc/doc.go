// Package asc moves values in and out of an AssemblyScript guest's linear
// memory using the guest's own object layouts.
//
// # Object Layouts
//
// All integers are little-endian. Pointers are 32-bit offsets and 0 is null.
//
//	Object            Layout
//	──────────────────────────────────────────────────────────────
//	ArrayBuffer<E>    byte_length u32, padding [4]u8, content
//	TypedArray<E>     buffer Ptr, byte_offset u32, byte_length u32
//	String            length u32 (UTF-16 units), units [length]u16
//	Array<E>          buffer Ptr, length u32
//	Enum<K>           kind u32, padding u32, payload u64
//	TypedMapEntry     key Ptr, value Ptr
//	TypedMap          entries Ptr<Array<Ptr<TypedMapEntry>>>
//
// Uint8Array, Bytes, Address and BigInt are all TypedArray<u8>.
//
// # Pointers
//
// Ptr[T] tags an offset with the object type it points at, so a
// Ptr[String] cannot be passed where a Ptr[Bytes] is expected:
//
//	p, err := asc.NewString(heap, "hello")
//	results, err := inst.Call(ctx, "greet", p.Wasm())
//	out, err := asc.GetString(heap, asc.PtrFromWasm[asc.String](results[0]))
//
// # Big Integers
//
// NewBigInt writes the minimal two's-complement form, so negative values
// survive a round trip. NewUnsignedBigInt writes a magnitude. No sign flag
// is stored and the reader chooses GetBigInt or GetUnsignedBigInt.
//
// # Tagged Unions
//
// Enum slots carry a discriminant from a closed set (see Discriminant) and a
// 64-bit payload holding either a pointer or a scalar. A discriminant outside
// the set fails with an unknown_discriminant error on both read and write.
//
// A Heap belongs to one guest instance. Nothing in this package locks.
package asc
