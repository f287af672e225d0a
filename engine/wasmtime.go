//go:build cgo

package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/bytecodealliance/wasmtime-go"
	"go.uber.org/zap"

	subgraphruntime "github.com/wippyai/subgraph-runtime"
)

// WasmtimeEngine implements Engine using wasmtime. It ignores
// Config.MemoryLimitPages and does not interrupt calls on context
// cancellation; the context is only checked before a call starts.
type WasmtimeEngine struct {
	engine *wasmtime.Engine
	cfg    Config
}

func NewWasmtimeEngine(cfg Config) (Engine, error) {
	return &WasmtimeEngine{engine: wasmtime.NewEngine(), cfg: cfg}, nil
}

func (e *WasmtimeEngine) Backend() Backend { return BackendWasmtime }

func (e *WasmtimeEngine) Compile(_ context.Context, wasmBytes []byte) (Module, error) {
	module, err := wasmtime.NewModule(e.engine, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}

	var exports []Export
	for _, et := range module.Exports() {
		ft := et.Type().FuncType()
		if ft == nil {
			continue
		}
		exports = append(exports, Export{
			Name:    et.Name(),
			Params:  wasmtimeValueTypes(ft.Params()),
			Results: wasmtimeValueTypes(ft.Results()),
		})
	}
	sort.Slice(exports, func(i, j int) bool { return exports[i].Name < exports[j].Name })

	return &WasmtimeModule{engine: e, module: module, exports: exports}, nil
}

func (e *WasmtimeEngine) Close(context.Context) error {
	return nil
}

func wasmtimeValueTypes(types []*wasmtime.ValType) []ValueType {
	out := make([]ValueType, len(types))
	for i, t := range types {
		switch t.Kind() {
		case wasmtime.KindI32:
			out[i] = ValueTypeI32
		case wasmtime.KindI64:
			out[i] = ValueTypeI64
		case wasmtime.KindF32:
			out[i] = ValueTypeF32
		case wasmtime.KindF64:
			out[i] = ValueTypeF64
		}
	}
	return out
}

type WasmtimeModule struct {
	engine  *WasmtimeEngine
	module  *wasmtime.Module
	exports []Export
}

func (m *WasmtimeModule) Exports() []Export {
	return m.exports
}

// Instantiate creates a store and linker per instance so instances share
// nothing but the compiled module.
func (m *WasmtimeModule) Instantiate(ctx context.Context) (Instance, error) {
	store := wasmtime.NewStore(m.engine.engine)
	linker := wasmtime.NewLinker(m.engine.engine)
	inst := &WasmtimeInstance{store: store, ctx: ctx}

	abort := m.engine.cfg.abort()
	err := linker.DefineFunc(store, "env", "abort", func(caller *wasmtime.Caller, msg, file, line, col int32) *wasmtime.Trap {
		var mem subgraphruntime.Memory
		if ext := caller.GetExport("memory"); ext != nil && ext.Memory() != nil {
			mem = &WasmtimeMemory{mem: ext.Memory(), store: caller}
		}
		err := abort(inst.ctx, mem, uint32(msg), uint32(file), uint32(line), uint32(col))
		if err == nil {
			return nil
		}
		inst.abortErr = err
		return wasmtime.NewTrap(err.Error())
	})
	if err != nil {
		return nil, fmt.Errorf("define env.abort: %w", err)
	}

	instance, err := linker.Instantiate(store, m.module)
	if err != nil {
		return nil, fmt.Errorf("instantiate failed: %w", err)
	}
	inst.instance = instance

	if ext := instance.GetExport(store, "memory"); ext != nil && ext.Memory() != nil {
		inst.memory = &WasmtimeMemory{mem: ext.Memory(), store: store}
	}
	for _, name := range allocatorExports {
		if fn := instance.GetFunc(store, name); fn != nil {
			inst.allocFn = fn
			inst.allocParams = len(fn.Type(store).Params())
			break
		}
	}

	Logger().Debug("instantiated module",
		zap.String("backend", string(BackendWasmtime)),
		zap.Bool("memory", inst.memory != nil),
		zap.Bool("allocator", inst.allocFn != nil))
	return inst, nil
}

func (m *WasmtimeModule) Close(context.Context) error {
	return nil
}

// WasmtimeInstance is a running module. It is not safe for concurrent use.
type WasmtimeInstance struct {
	ctx         context.Context
	abortErr    error
	store       *wasmtime.Store
	instance    *wasmtime.Instance
	memory      *WasmtimeMemory
	allocFn     *wasmtime.Func
	allocParams int
}

func (i *WasmtimeInstance) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	if i.instance == nil {
		return nil, fmt.Errorf("call %s: instance closed", name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fn := i.instance.GetFunc(i.store, name)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, name)
	}
	return i.call(ctx, name, fn, args)
}

func (i *WasmtimeInstance) call(ctx context.Context, name string, fn *wasmtime.Func, args []uint64) ([]uint64, error) {
	ft := fn.Type(i.store)
	params := ft.Params()
	if len(params) != len(args) {
		return nil, fmt.Errorf("call %s: expected %d params, got %d", name, len(params), len(args))
	}
	vals := make([]interface{}, len(args))
	for n, p := range params {
		vals[n] = toWasmtime(p.Kind(), args[n])
	}

	i.ctx = ctx
	i.abortErr = nil
	res, err := fn.Call(i.store, vals...)
	if i.abortErr != nil {
		return nil, i.abortErr
	}
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}

	switch r := res.(type) {
	case nil:
		return nil, nil
	case []wasmtime.Val:
		out := make([]uint64, len(r))
		for n, v := range r {
			out[n] = fromWasmtime(v.Get())
		}
		return out, nil
	default:
		return []uint64{fromWasmtime(r)}, nil
	}
}

func toWasmtime(kind wasmtime.ValKind, raw uint64) interface{} {
	switch kind {
	case wasmtime.KindI64:
		return int64(raw)
	case wasmtime.KindF32:
		return math.Float32frombits(uint32(raw))
	case wasmtime.KindF64:
		return math.Float64frombits(raw)
	default:
		return int32(uint32(raw))
	}
}

func fromWasmtime(v interface{}) uint64 {
	switch x := v.(type) {
	case int32:
		return uint64(uint32(x))
	case int64:
		return uint64(x)
	case float32:
		return uint64(math.Float32bits(x))
	case float64:
		return math.Float64bits(x)
	default:
		return 0
	}
}

func (i *WasmtimeInstance) Memory() subgraphruntime.Memory {
	if i.memory == nil {
		return nil
	}
	return i.memory
}

func (i *WasmtimeInstance) Allocator(ctx context.Context) subgraphruntime.Allocator {
	if i.allocFn == nil {
		return nil
	}
	return &wasmtimeAllocator{ctx: ctx, inst: i}
}

func (i *WasmtimeInstance) Close(context.Context) error {
	i.instance = nil
	i.memory = nil
	i.allocFn = nil
	i.store = nil
	return nil
}

type wasmtimeAllocator struct {
	ctx  context.Context
	inst *WasmtimeInstance
}

func (a *wasmtimeAllocator) Alloc(size uint32) (uint32, error) {
	args := []uint64{uint64(size)}
	if a.inst.allocParams > 1 {
		args = append(args, 0)
	}
	res, err := a.inst.call(a.ctx, "allocator", a.inst.allocFn, args)
	if err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, fmt.Errorf("allocator returned no result")
	}
	return uint32(res[0]), nil
}

// WasmtimeMemory reads and writes a wasmtime memory through the store (or
// caller) that owns it.
type WasmtimeMemory struct {
	mem   *wasmtime.Memory
	store wasmtime.Storelike
}

func (m *WasmtimeMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data := m.mem.UnsafeData(m.store)
	end := uint64(offset) + uint64(length)
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data[offset:end], nil
}

func (m *WasmtimeMemory) Write(offset uint32, data []byte) error {
	mem := m.mem.UnsafeData(m.store)
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(mem)) {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	copy(mem[offset:end], data)
	return nil
}

func (m *WasmtimeMemory) Size() uint32 {
	return uint32(m.mem.DataSize(m.store))
}

// Compile-time checks
var (
	_ Engine                    = (*WasmtimeEngine)(nil)
	_ Module                    = (*WasmtimeModule)(nil)
	_ Instance                  = (*WasmtimeInstance)(nil)
	_ subgraphruntime.Memory    = (*WasmtimeMemory)(nil)
	_ subgraphruntime.Allocator = (*wasmtimeAllocator)(nil)
)
