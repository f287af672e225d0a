package asc

import (
	"github.com/wippyai/subgraph-runtime/asc/internal/layout"
	"github.com/wippyai/subgraph-runtime/errors"
)

// NewArrayBuffer writes values as an ArrayBuffer. Content starts 8 bytes
// into the object so it is 8-aligned for any element type.
func NewArrayBuffer[E Elem](h Heap, values []E) (Ptr[ArrayBuffer[E]], error) {
	content := encodeElems(values)
	byteLen := uint32(len(content))
	if uint64(len(content)) > layout.MaxAlloc {
		return 0, errors.Overflow(errors.PhaseEncode, nil, len(content), "ArrayBuffer")
	}

	buf := make([]byte, layout.ArrayBufferHeader+byteLen)
	le.PutUint32(buf[0:4], byteLen)
	copy(buf[layout.ArrayBufferHeader:], content)

	offset, err := h.RawNew(buf)
	if err != nil {
		return 0, err
	}
	return Ptr[ArrayBuffer[E]](offset), nil
}

// GetArrayBuffer reads length elements starting byteOffset bytes into the
// buffer's content.
func GetArrayBuffer[E Elem](h Heap, p Ptr[ArrayBuffer[E]], byteOffset, length uint32) ([]E, error) {
	if p.IsNull() {
		return nil, errors.NullPointer(errors.PhaseDecode, nil, "ArrayBuffer")
	}
	byteLen, err := readU32(h, p.Offset())
	if err != nil {
		return nil, err
	}

	size, ok := layout.SafeMulU32(length, elemSize[E]())
	if !ok {
		return nil, errors.Overflow(errors.PhaseDecode, nil, length, "ArrayBuffer")
	}
	if end := uint64(byteOffset) + uint64(size); end > uint64(byteLen) {
		return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			AscType("ArrayBuffer").
			Value(end).
			Detail("range [%d, %d) exceeds byte_length %d", byteOffset, end, byteLen).
			Build()
	}

	start, ok := layout.SafeAddU32(p.Offset(), layout.ArrayBufferHeader)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseDecode, nil, p.Offset(), layout.ArrayBufferHeader, 0)
	}
	start, ok = layout.SafeAddU32(start, byteOffset)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseDecode, nil, p.Offset(), byteOffset, 0)
	}
	data, err := h.Get(start, size)
	if err != nil {
		return nil, err
	}
	return decodeElems[E](data, length), nil
}

// NewTypedArray writes values into a fresh buffer and a view spanning all of it.
func NewTypedArray[E Elem](h Heap, values []E) (Ptr[TypedArray[E]], error) {
	buffer, err := NewArrayBuffer(h, values)
	if err != nil {
		return 0, err
	}
	return newTypedArrayView[E](h, buffer, 0, uint32(len(values))*elemSize[E]())
}

func newTypedArrayView[E Elem](h Heap, buffer Ptr[ArrayBuffer[E]], byteOffset, byteLength uint32) (Ptr[TypedArray[E]], error) {
	header := make([]byte, layout.TypedArraySize)
	le.PutUint32(header[0:4], buffer.Offset())
	le.PutUint32(header[4:8], byteOffset)
	le.PutUint32(header[8:12], byteLength)
	offset, err := h.RawNew(header)
	if err != nil {
		return 0, err
	}
	return Ptr[TypedArray[E]](offset), nil
}

type typedArrayHeader[E Elem] struct {
	buffer     Ptr[ArrayBuffer[E]]
	byteOffset uint32
	byteLength uint32
}

func readTypedArray[E Elem](h Heap, p Ptr[TypedArray[E]]) (typedArrayHeader[E], error) {
	b, err := readHeader(h, p.Offset(), layout.TypedArraySize, "TypedArray")
	if err != nil {
		return typedArrayHeader[E]{}, err
	}
	hdr := typedArrayHeader[E]{
		buffer:     Ptr[ArrayBuffer[E]](le.Uint32(b[0:4])),
		byteOffset: le.Uint32(b[4:8]),
		byteLength: le.Uint32(b[8:12]),
	}
	if hdr.buffer.IsNull() {
		return hdr, errors.NullPointer(errors.PhaseDecode, []string{"buffer"}, "ArrayBuffer")
	}
	if hdr.byteLength%elemSize[E]() != 0 {
		return hdr, errors.InvalidData(errors.PhaseDecode, nil,
			"typed array byte_length is not a multiple of the element size")
	}
	bufLen, err := readU32(h, hdr.buffer.Offset())
	if err != nil {
		return hdr, err
	}
	if end := uint64(hdr.byteOffset) + uint64(hdr.byteLength); end > uint64(bufLen) {
		return hdr, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			AscType("TypedArray").
			Value(end).
			Detail("view [%d, %d) exceeds buffer byte_length %d", hdr.byteOffset, end, bufLen).
			Build()
	}
	return hdr, nil
}

// GetTypedArray reads the elements visible through a TypedArray view.
func GetTypedArray[E Elem](h Heap, p Ptr[TypedArray[E]]) ([]E, error) {
	hdr, err := readTypedArray(h, p)
	if err != nil {
		return nil, err
	}
	return GetArrayBuffer(h, hdr.buffer, hdr.byteOffset, hdr.byteLength/elemSize[E]())
}

// TypedArrayLength returns the number of elements visible through a view.
func TypedArrayLength[E Elem](h Heap, p Ptr[TypedArray[E]]) (uint32, error) {
	hdr, err := readTypedArray(h, p)
	if err != nil {
		return 0, err
	}
	return hdr.byteLength / elemSize[E](), nil
}

// Subarray writes a new view over elements [begin, end) of p, sharing p's
// buffer. The bounds must satisfy 0 <= begin <= end <= length.
func Subarray[E Elem](h Heap, p Ptr[TypedArray[E]], begin, end uint32) (Ptr[TypedArray[E]], error) {
	hdr, err := readTypedArray(h, p)
	if err != nil {
		return 0, err
	}
	size := elemSize[E]()
	length := hdr.byteLength / size
	if begin > end || end > length {
		return 0, errors.New(errors.PhaseEncode, errors.KindOutOfBounds).
			AscType("TypedArray").
			Detail("subarray [%d, %d) outside length %d", begin, end, length).
			Build()
	}
	skip, ok := layout.SafeMulU32(begin, size)
	if !ok {
		return 0, errors.Overflow(errors.PhaseEncode, nil, begin, "TypedArray")
	}
	byteOffset, ok := layout.SafeAddU32(hdr.byteOffset, skip)
	if !ok {
		return 0, errors.Overflow(errors.PhaseEncode, nil, begin, "TypedArray")
	}
	return newTypedArrayView(h, hdr.buffer, byteOffset, (end-begin)*size)
}

func NewBytes(h Heap, data []byte) (Ptr[Bytes], error) {
	return NewTypedArray(h, data)
}

func GetBytes(h Heap, p Ptr[Bytes]) ([]byte, error) {
	return GetTypedArray(h, p)
}
