// Package runtime runs AssemblyScript-compiled subgraph mappings and gives
// the host a heap to exchange objects with them.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, runtime.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.LoadWASM(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	heap := inst.Heap(ctx)
//	s, _ := asc.NewString(heap, "hello")
//	ptr, err := inst.CallPtr(ctx, "repeat_twice", s.Wasm())
//	out, _ := asc.GetString(heap, asc.Ptr[asc.String](ptr))
//
// # Errors
//
// Guest failures are lifted to *errors.Error at this boundary:
//
//	guest_abort  the guest called env.abort; Detail carries its message
//	trap         the guest trapped
//	canceled     the call's context was done (wazero backend)
//	not_found    the export does not exist
//
// # Tracing
//
// Every Call opens a "subgraph-runtime/guest.call" span with the
// wasm.function attribute, using the global OpenTelemetry provider unless
// WithTracerProvider is given.
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. Each Instance owns one heap
// and must stay on one goroutine; run instances in parallel instead.
package runtime
