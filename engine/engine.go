package engine

import (
	"context"
	"errors"
	"fmt"

	subgraphruntime "github.com/wippyai/subgraph-runtime"
)

// Backend selects the WebAssembly implementation behind an Engine.
type Backend string

const (
	BackendWazero   Backend = "wazero"
	BackendWasmtime Backend = "wasmtime"
)

// Allocator exports tried in order when looking for the guest allocator.
// AssemblyScript 0.6 exports memory.allocate; later runtimes export __alloc,
// which also takes a class id.
var allocatorExports = []string{"memory.allocate", "allocate", "__alloc"}

var (
	// ErrExportNotFound is returned when a called function is not exported.
	ErrExportNotFound = errors.New("export not found")
	// ErrNoMemory is returned by instances of modules that export no memory.
	ErrNoMemory = errors.New("module exports no memory")
)

// AbortFunc handles the guest's env.abort import. The arguments are guest
// pointers to the message and file name strings, and the source position.
// The returned error fails the guest call in progress.
type AbortFunc func(ctx context.Context, mem subgraphruntime.Memory, msg, file, line, col uint32) error

// Config holds configuration for engine creation
type Config struct {
	// Backend defaults to wazero.
	Backend Backend

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the backend default. Only the wazero backend enforces it.
	MemoryLimitPages uint32

	// Abort handles env.abort. A nil Abort fails the call with a generic error.
	Abort AbortFunc
}

func (c Config) abort() AbortFunc {
	if c.Abort != nil {
		return c.Abort
	}
	return func(_ context.Context, _ subgraphruntime.Memory, msg, file, line, col uint32) error {
		return fmt.Errorf("guest abort (msg=%#x file=%#x) at %d:%d", msg, file, line, col)
	}
}

// Engine compiles guest modules.
type Engine interface {
	Compile(ctx context.Context, wasm []byte) (Module, error)
	Backend() Backend
	Close(ctx context.Context) error
}

// Module is a compiled guest that can be instantiated many times.
type Module interface {
	Exports() []Export
	Instantiate(ctx context.Context) (Instance, error)
	Close(ctx context.Context) error
}

// Instance is a running guest. It is not safe for concurrent use.
type Instance interface {
	// Call invokes an exported function with raw core values.
	Call(ctx context.Context, name string, args ...uint64) ([]uint64, error)
	// Memory returns the guest's exported linear memory, or nil.
	Memory() subgraphruntime.Memory
	// Allocator returns the guest allocator bound to ctx, or nil if the
	// guest exports none.
	Allocator(ctx context.Context) subgraphruntime.Allocator
	Close(ctx context.Context) error
}

// New creates an engine for cfg.Backend.
func New(ctx context.Context, cfg Config) (Engine, error) {
	switch cfg.Backend {
	case "", BackendWazero:
		e, err := NewWazeroEngine(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	case BackendWasmtime:
		return NewWasmtimeEngine(cfg)
	default:
		return nil, fmt.Errorf("unknown engine backend %q", cfg.Backend)
	}
}
