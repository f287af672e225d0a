// Package engine runs core WebAssembly guests behind a small interface with
// two backends.
//
//	Engine   - compiles modules (wazero or wasmtime)
//	Module   - a compiled guest, instantiated once per worker
//	Instance - a running guest with its memory and allocator
//
// The wazero backend is pure Go and is the default. It enforces
// Config.MemoryLimitPages and interrupts a guest call when its context is
// done. The wasmtime backend needs cgo and does neither.
//
// Every engine provides the env.abort import expected by AssemblyScript
// guests. Config.Abort receives the raw string pointers; returning an error
// fails the guest call with that error.
//
// The allocator is the first export found among memory.allocate, allocate
// and __alloc.
//
// # Thread Safety
//
// Engines and modules are safe for concurrent use. An Instance must be used
// by a single goroutine.
//
// Most users should use the runtime package, which wraps instances with the
// object bridge.
package engine
