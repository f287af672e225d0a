package asc

import "github.com/wippyai/subgraph-runtime/asc/internal/layout"

// TypedMapEntry is {key Ptr<K>, value Ptr<V>}.
type TypedMapEntry[K, V any] struct{}

// TypedMap is {entries Ptr<Array<Ptr<TypedMapEntry>>>}.
type TypedMap[K, V any] struct{}

// MapEntry is a decoded key/value pointer pair.
type MapEntry[K, V any] struct {
	Key   Ptr[K]
	Value Ptr[V]
}

// NewTypedMap writes the entries in order, then the map header.
func NewTypedMap[K, V any](h Heap, entries []MapEntry[K, V]) (Ptr[TypedMap[K, V]], error) {
	ptrs := make([]Ptr[TypedMapEntry[K, V]], len(entries))
	for i, e := range entries {
		buf := make([]byte, layout.TypedMapEntrySize)
		le.PutUint32(buf[0:4], e.Key.Offset())
		le.PutUint32(buf[4:8], e.Value.Offset())
		offset, err := h.RawNew(buf)
		if err != nil {
			return 0, withIndex(err, i)
		}
		ptrs[i] = Ptr[TypedMapEntry[K, V]](offset)
	}
	arr, err := NewArray(h, ptrs)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, layout.TypedMapSize)
	le.PutUint32(buf, arr.Offset())
	offset, err := h.RawNew(buf)
	if err != nil {
		return 0, err
	}
	return Ptr[TypedMap[K, V]](offset), nil
}

// GetTypedMap reads the entry pointers of a map in order.
func GetTypedMap[K, V any](h Heap, p Ptr[TypedMap[K, V]]) ([]MapEntry[K, V], error) {
	b, err := readHeader(h, p.Offset(), layout.TypedMapSize, "TypedMap")
	if err != nil {
		return nil, err
	}
	arr := Ptr[Array[Ptr[TypedMapEntry[K, V]]]](le.Uint32(b))
	ptrs, err := GetArray(h, arr)
	if err != nil {
		return nil, err
	}
	out := make([]MapEntry[K, V], len(ptrs))
	for i, ep := range ptrs {
		eb, err := readHeader(h, ep.Offset(), layout.TypedMapEntrySize, "TypedMapEntry")
		if err != nil {
			return nil, withIndex(err, i)
		}
		out[i] = MapEntry[K, V]{
			Key:   Ptr[K](le.Uint32(eb[0:4])),
			Value: Ptr[V](le.Uint32(eb[4:8])),
		}
	}
	return out, nil
}
