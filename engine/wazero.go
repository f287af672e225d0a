package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	subgraphruntime "github.com/wippyai/subgraph-runtime"
)

// WazeroEngine implements Engine using wazero runtime
type WazeroEngine struct {
	runtime wazero.Runtime
	cfg     Config
}

// NewWazeroEngine creates a wazero runtime with env.abort already bound.
// Guest calls stop when their context is done.
func NewWazeroEngine(ctx context.Context, cfg Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	e := &WazeroEngine{runtime: runtime, cfg: cfg}
	if err := e.instantiateEnv(ctx); err != nil {
		_ = runtime.Close(ctx)
		return nil, err
	}
	return e, nil
}

func (e *WazeroEngine) instantiateEnv(ctx context.Context) error {
	abort := e.cfg.abort()
	i32 := api.ValueTypeI32

	fn := api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
		var mem subgraphruntime.Memory
		if m := mod.Memory(); m != nil {
			mem = &WazeroMemory{mem: m}
		}
		err := abort(ctx, mem,
			api.DecodeU32(stack[0]), api.DecodeU32(stack[1]),
			api.DecodeU32(stack[2]), api.DecodeU32(stack[3]))
		if err == nil {
			return
		}
		if st := callStateFrom(ctx); st != nil {
			st.abortErr = err
		}
		panic(err)
	})

	_, err := e.runtime.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithGoModuleFunction(fn, []api.ValueType{i32, i32, i32, i32}, nil).
		WithParameterNames("msg", "file", "line", "col").
		Export("abort").
		Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("instantiate env: %w", err)
	}
	return nil
}

func (e *WazeroEngine) Backend() Backend { return BackendWazero }

func (e *WazeroEngine) Compile(ctx context.Context, wasmBytes []byte) (Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}

	defs := compiled.ExportedFunctions()
	exports := make([]Export, 0, len(defs))
	for name, def := range defs {
		exports = append(exports, Export{
			Name:    name,
			Params:  wazeroValueTypes(def.ParamTypes()),
			Results: wazeroValueTypes(def.ResultTypes()),
		})
	}
	sort.Slice(exports, func(i, j int) bool { return exports[i].Name < exports[j].Name })

	return &WazeroModule{engine: e, compiled: compiled, exports: exports}, nil
}

func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

func wazeroValueTypes(types []api.ValueType) []ValueType {
	out := make([]ValueType, len(types))
	for i, t := range types {
		switch t {
		case api.ValueTypeI32:
			out[i] = ValueTypeI32
		case api.ValueTypeI64:
			out[i] = ValueTypeI64
		case api.ValueTypeF32:
			out[i] = ValueTypeF32
		case api.ValueTypeF64:
			out[i] = ValueTypeF64
		}
	}
	return out
}

// WazeroModule is a compiled WASM module
type WazeroModule struct {
	engine   *WazeroEngine
	compiled wazero.CompiledModule
	exports  []Export
}

func (m *WazeroModule) Exports() []Export {
	return m.exports
}

// Instantiate creates an anonymous instance, so many instances of the same
// module can exist at once.
func (m *WazeroModule) Instantiate(ctx context.Context) (Instance, error) {
	modConfig := wazero.NewModuleConfig().WithName("")

	instance, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modConfig)
	if err != nil {
		return nil, fmt.Errorf("instantiate failed: %w", err)
	}

	inst := &WazeroInstance{
		instance:  instance,
		funcCache: make(map[string]api.Function),
	}
	if mem := instance.Memory(); mem != nil {
		inst.memory = &WazeroMemory{mem: mem}
	}

	// Cache allocator, trying each known export name in order
	for _, name := range allocatorExports {
		if fn := instance.ExportedFunction(name); fn != nil {
			inst.allocFn = fn
			inst.allocParams = len(fn.Definition().ParamTypes())
			break
		}
	}

	Logger().Debug("instantiated module",
		zap.String("backend", string(BackendWazero)),
		zap.Bool("memory", inst.memory != nil),
		zap.Bool("allocator", inst.allocFn != nil))
	return inst, nil
}

func (m *WazeroModule) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// WazeroInstance is a running module. It is not safe for concurrent use.
type WazeroInstance struct {
	instance    api.Module
	memory      *WazeroMemory
	allocFn     api.Function
	funcCache   map[string]api.Function
	allocParams int
}

func (i *WazeroInstance) exportedFunction(name string) api.Function {
	if fn, ok := i.funcCache[name]; ok {
		return fn
	}
	fn := i.instance.ExportedFunction(name)
	if fn != nil {
		i.funcCache[name] = fn
	}
	return fn
}

func (i *WazeroInstance) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	if i.instance == nil {
		return nil, fmt.Errorf("call %s: instance closed", name)
	}
	fn := i.exportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, name)
	}

	st := &callState{}
	results, err := fn.Call(withCallState(ctx, st), args...)
	if st.abortErr != nil {
		return nil, st.abortErr
	}
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}
	return results, nil
}

func (i *WazeroInstance) Memory() subgraphruntime.Memory {
	if i.memory == nil {
		return nil
	}
	return i.memory
}

func (i *WazeroInstance) Allocator(ctx context.Context) subgraphruntime.Allocator {
	if i.allocFn == nil {
		return nil
	}
	return &wazeroAllocator{
		ctx:    ctx,
		fn:     i.allocFn,
		params: i.allocParams,
		stack:  make([]uint64, 2),
	}
}

func (i *WazeroInstance) Close(ctx context.Context) error {
	if i.instance == nil {
		return nil
	}
	err := i.instance.Close(ctx)
	// Clear references to help GC
	i.instance = nil
	i.memory = nil
	i.allocFn = nil
	i.funcCache = nil
	return err
}

// wazeroAllocator implements subgraphruntime.Allocator using the guest's
// allocator export
type wazeroAllocator struct {
	ctx    context.Context
	fn     api.Function
	stack  []uint64
	params int
}

func (a *wazeroAllocator) Alloc(size uint32) (uint32, error) {
	n := a.params
	if n < 1 {
		n = 1
	}
	stack := a.stack[:n]
	stack[0] = api.EncodeU32(size)
	if n > 1 {
		// class id for __alloc
		stack[1] = 0
	}

	st := &callState{}
	err := a.fn.CallWithStack(withCallState(a.ctx, st), stack)
	if st.abortErr != nil {
		return 0, st.abortErr
	}
	if err != nil {
		return 0, fmt.Errorf("allocate %d bytes: %w", size, err)
	}
	return api.DecodeU32(stack[0]), nil
}

// WazeroMemory wraps wazero memory to implement subgraphruntime.Memory.
// Read returns a view that is invalidated when the memory grows.
type WazeroMemory struct {
	mem api.Memory
}

func (m *WazeroMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *WazeroMemory) Write(offset uint32, data []byte) error {
	ok := m.mem.Write(offset, data)
	if !ok {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *WazeroMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// callState carries an error raised in env.abort back to the guest call.
type callState struct {
	abortErr error
}

type callStateKey struct{}

func withCallState(ctx context.Context, st *callState) context.Context {
	return context.WithValue(ctx, callStateKey{}, st)
}

func callStateFrom(ctx context.Context) *callState {
	st, _ := ctx.Value(callStateKey{}).(*callState)
	return st
}

// Compile-time checks
var (
	_ Engine                    = (*WazeroEngine)(nil)
	_ Module                    = (*WazeroModule)(nil)
	_ Instance                  = (*WazeroInstance)(nil)
	_ subgraphruntime.Memory    = (*WazeroMemory)(nil)
	_ subgraphruntime.Allocator = (*wazeroAllocator)(nil)
)
