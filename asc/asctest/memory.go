// Package asctest provides an in-process linear memory with a bump
// allocator for exercising the asc codecs without a guest.
package asctest

import (
	"fmt"

	"github.com/wippyai/subgraph-runtime/asc/internal/layout"
)

// Memory is a fixed-size linear memory that also acts as its own allocator.
type Memory struct {
	data []byte
	next uint32

	// FailAlloc makes every allocation return an error.
	FailAlloc bool
	// NullAlloc makes every allocation return offset 0.
	NullAlloc bool
	// Allocs counts successful allocations.
	Allocs int
}

// NewMemory returns a memory of size bytes. Allocation starts at offset 8
// so that 0 stays the null pointer.
func NewMemory(size int) *Memory {
	return &Memory{data: make([]byte, size), next: 8}
}

func (m *Memory) Read(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.data)) {
		return nil, fmt.Errorf("read [%d, %d) out of range", offset, end)
	}
	return m.data[offset:end], nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(m.data)) {
		return fmt.Errorf("write [%d, %d) out of range", offset, end)
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *Memory) Size() uint32 {
	return uint32(len(m.data))
}

// Alloc hands out 8-aligned blocks and never frees them.
func (m *Memory) Alloc(size uint32) (uint32, error) {
	if m.FailAlloc {
		return 0, fmt.Errorf("allocator disabled")
	}
	if m.NullAlloc {
		return 0, nil
	}
	ptr := layout.AlignTo(m.next, 8)
	end := uint64(ptr) + uint64(size)
	if end > uint64(len(m.data)) {
		return 0, fmt.Errorf("out of memory: need %d bytes at %d", size, ptr)
	}
	m.next = uint32(end)
	m.Allocs++
	return ptr, nil
}

// Bytes exposes the backing slice for tests that tamper with guest objects.
func (m *Memory) Bytes() []byte {
	return m.data
}

// Used reports how many bytes have been handed out.
func (m *Memory) Used() uint32 {
	return m.next
}
