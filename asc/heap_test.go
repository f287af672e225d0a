package asc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wippyai/subgraph-runtime/asc/asctest"
	"github.com/wippyai/subgraph-runtime/errors"
)

func newTestHeap(t *testing.T) (*LinearHeap, *asctest.Memory) {
	t.Helper()
	mem := asctest.NewMemory(64 * 1024)
	return NewHeap(mem, mem), mem
}

func TestLinearHeap_RawNewGet(t *testing.T) {
	h, _ := newTestHeap(t)

	p, err := h.RawNew([]byte{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.NotZero(t, p)
	assert.Zero(t, p%8, "allocations are 8-aligned")

	got, err := h.Get(p, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, got)

	// Get returns a copy.
	got[0] = 99
	again, err := h.Get(p, 1)
	require.NoError(t, err)
	assert.Equal(t, byte(1), again[0])
}

func TestLinearHeap_Errors(t *testing.T) {
	tests := []struct {
		name string
		run  func(h *LinearHeap, mem *asctest.Memory) error
		kind errors.Kind
	}{
		{
			name: "allocator error",
			run: func(h *LinearHeap, mem *asctest.Memory) error {
				mem.FailAlloc = true
				_, err := h.RawNew([]byte{1})
				return err
			},
			kind: errors.KindAllocation,
		},
		{
			name: "allocator returns null",
			run: func(h *LinearHeap, mem *asctest.Memory) error {
				mem.NullAlloc = true
				_, err := h.RawNew([]byte{1})
				return err
			},
			kind: errors.KindAllocation,
		},
		{
			name: "memory exhausted",
			run: func(h *LinearHeap, mem *asctest.Memory) error {
				_, err := h.RawNew(make([]byte, 128*1024))
				return err
			},
			kind: errors.KindAllocation,
		},
		{
			name: "read past end",
			run: func(h *LinearHeap, mem *asctest.Memory) error {
				_, err := h.Get(mem.Size()-2, 4)
				return err
			},
			kind: errors.KindOutOfBounds,
		},
		{
			name: "read offset overflow",
			run: func(h *LinearHeap, mem *asctest.Memory) error {
				_, err := h.Get(0xFFFFFFFF, 4)
				return err
			},
			kind: errors.KindOutOfBounds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mem := newTestHeap(t)
			err := tt.run(h, mem)
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestLinearHeap_NilAllocator(t *testing.T) {
	mem := asctest.NewMemory(1024)
	h := NewHeap(mem, nil)
	_, err := h.RawNew([]byte{1})
	assert.True(t, errors.IsKind(err, errors.KindAllocation))
}

func TestPtr(t *testing.T) {
	var null Ptr[String]
	assert.True(t, null.IsNull())
	assert.True(t, Null[Bytes]().IsNull())

	p := Ptr[String](0x1234)
	assert.False(t, p.IsNull())
	assert.Equal(t, uint32(0x1234), p.Offset())
	assert.Equal(t, p, PtrFromWasm[String](p.Wasm()))
	assert.Equal(t, p, PtrFromPayload[String](p.Payload()))
	assert.Equal(t, uint32(0x1234), Cast[Bytes](p).Offset())
	assert.Contains(t, p.String(), "0x00001234")

	// High bits of a payload are ignored.
	assert.Equal(t, p, PtrFromPayload[String](0xFFFF_0000_0000_1234))
}
