// Package subgraphruntime hosts subgraph mapping code compiled to WebAssembly.
//
// A subgraph mapping is an AssemblyScript module that transforms blockchain
// data into entities. The host and the guest share no type system: every
// value that crosses the boundary is written into the guest's linear memory
// in the exact object layout the AssemblyScript runtime expects, and read
// back the same way.
//
// # Architecture Overview
//
//	subgraphruntime/     Root package with the Memory and Allocator interfaces
//	├── asc/             AssemblyScript object layouts: pointers, buffers,
//	│                    strings, arrays, big integers, tagged unions
//	├── convert/         Contract-ABI tokens and entity values <-> asc objects
//	├── ethabi/          Contract-ABI token model and go-ethereum ABI decoding
//	├── store/           Entity field values and an in-memory entity store
//	├── manifest/        subgraph.yaml parsing and link resolution
//	├── engine/          wazero and wasmtime backends
//	├── runtime/         High-level API for loading and calling mappings
//	├── config/          viper-backed configuration
//	└── errors/          Structured error types
//
// # Quick Start
//
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.LoadWASM(ctx, wasmBytes)
//	inst, err := mod.Instantiate(ctx)
//	defer inst.Close(ctx)
//
//	heap := inst.Heap(ctx)
//	arg, err := asc.NewString(heap, "hello")
//	ret, err := inst.CallPtr(ctx, "repeat_twice", arg.Wasm())
//	s, err := asc.GetString(heap, asc.Ptr[asc.String](ret))
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. An Instance and its heap
// belong to one goroutine at a time; run several instances to use several
// cores.
//
// # Memory Model
//
// Pointers handed to or received from the guest are only valid against the
// instance that produced them and only for the duration of one call. The
// host never caches guest objects.
package subgraphruntime
