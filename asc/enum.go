package asc

import (
	"math"

	"github.com/wippyai/subgraph-runtime/asc/internal/layout"
	"github.com/wippyai/subgraph-runtime/errors"
)

// Discriminant is a closed set of tags for a tagged union.
type Discriminant interface {
	~uint32
	// Known reports whether the tag belongs to the set.
	Known() bool
	String() string
}

// Enum is {kind u32, padding u32, payload u64}.
type Enum[K Discriminant] struct{}

// EnumArray is an array of tagged-union slots.
type EnumArray[K Discriminant] = Array[Ptr[Enum[K]]]

// EnumValue is a decoded slot. Payload is interpreted according to Kind.
type EnumValue[K Discriminant] struct {
	Kind    K
	Payload uint64
}

// NewEnum writes a slot. Tags outside the closed set are rejected.
func NewEnum[K Discriminant](h Heap, kind K, payload uint64) (Ptr[Enum[K]], error) {
	if !kind.Known() {
		return 0, errors.UnknownDiscriminant(errors.PhaseEncode, nil, uint32(kind), typeName(kind))
	}
	buf := make([]byte, layout.EnumSize)
	le.PutUint32(buf[0:4], uint32(kind))
	le.PutUint64(buf[8:16], payload)
	offset, err := h.RawNew(buf)
	if err != nil {
		return 0, err
	}
	return Ptr[Enum[K]](offset), nil
}

// GetEnum reads a slot, checking the tag before the payload is handed out.
func GetEnum[K Discriminant](h Heap, p Ptr[Enum[K]]) (EnumValue[K], error) {
	b, err := readHeader(h, p.Offset(), layout.EnumSize, "Enum")
	if err != nil {
		return EnumValue[K]{}, err
	}
	kind := K(le.Uint32(b[0:4]))
	if !kind.Known() {
		return EnumValue[K]{}, errors.UnknownDiscriminant(errors.PhaseDecode, nil, uint32(kind), typeName(kind))
	}
	return EnumValue[K]{Kind: kind, Payload: le.Uint64(b[8:16])}, nil
}

func BoolPayload(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func PayloadBool(payload uint64) bool {
	return payload != 0
}

// Int32Payload sign-extends v to 64 bits.
func Int32Payload(v int32) uint64 {
	return uint64(int64(v))
}

// PayloadInt32 truncates a payload to its low 32 bits.
func PayloadInt32(payload uint64) int32 {
	return int32(uint32(payload))
}

// Float32Payload stores the bit pattern of v in the low 32 bits.
func Float32Payload(v float32) uint64 {
	return uint64(math.Float32bits(v))
}

func PayloadFloat32(payload uint64) float32 {
	return math.Float32frombits(uint32(payload))
}
