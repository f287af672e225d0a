package asc

import (
	"encoding/binary"

	subgraphruntime "github.com/wippyai/subgraph-runtime"
	"github.com/wippyai/subgraph-runtime/errors"
	"go.uber.org/zap"
)

// Heap is the view of a guest's linear memory the codecs write to and read from.
type Heap interface {
	// RawNew reserves len(data) bytes through the guest allocator and copies data in.
	RawNew(data []byte) (uint32, error)
	// Get copies size bytes out of memory starting at offset.
	Get(offset, size uint32) ([]byte, error)
}

// LinearHeap implements Heap over a guest memory and its allocator export.
// It is owned by one guest instance and is not safe for concurrent use.
type LinearHeap struct {
	mem   subgraphruntime.Memory
	alloc subgraphruntime.Allocator
}

func NewHeap(mem subgraphruntime.Memory, alloc subgraphruntime.Allocator) *LinearHeap {
	return &LinearHeap{mem: mem, alloc: alloc}
}

func (h *LinearHeap) RawNew(data []byte) (uint32, error) {
	size := uint32(len(data))
	if h.alloc == nil {
		return 0, errors.AllocationFailed(errors.PhaseEncode, size, nil)
	}
	// Zero-sized objects still get a distinct non-null address.
	req := size
	if req == 0 {
		req = 1
	}
	offset, err := h.alloc.Alloc(req)
	if err != nil {
		return 0, errors.AllocationFailed(errors.PhaseEncode, size, err)
	}
	if offset == 0 {
		return 0, errors.AllocationFailed(errors.PhaseEncode, size, nil)
	}
	if size == 0 {
		return offset, nil
	}
	if end := uint64(offset) + uint64(size); end > uint64(h.mem.Size()) {
		return 0, errors.OutOfBounds(errors.PhaseEncode, nil, offset, size, h.mem.Size())
	}
	if err := h.mem.Write(offset, data); err != nil {
		return 0, errors.Wrap(errors.PhaseEncode, errors.KindOutOfBounds, err, "write object")
	}
	Logger().Debug("raw new", zap.Uint32("ptr", offset), zap.Uint32("size", size))
	return offset, nil
}

func (h *LinearHeap) Get(offset, size uint32) ([]byte, error) {
	memSize := h.mem.Size()
	if end := uint64(offset) + uint64(size); end > uint64(memSize) {
		return nil, errors.OutOfBounds(errors.PhaseDecode, nil, offset, size, memSize)
	}
	if size == 0 {
		return []byte{}, nil
	}
	data, err := h.mem.Read(offset, size)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, "read object")
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func readU32(h Heap, offset uint32) (uint32, error) {
	b, err := h.Get(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// readHeader reads a fixed-size object header, rejecting the null pointer.
func readHeader(h Heap, offset, size uint32, ascType string) ([]byte, error) {
	if offset == 0 {
		return nil, errors.NullPointer(errors.PhaseDecode, nil, ascType)
	}
	return h.Get(offset, size)
}
