package subgraphruntime

// Memory is a guest module's linear memory.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	Size() uint32
}

// Allocator reserves bytes in linear memory through the guest's own
// allocator export. A zero offset means the guest refused the request.
type Allocator interface {
	Alloc(size uint32) (uint32, error)
}
