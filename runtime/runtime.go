package runtime

import (
	"bytes"
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	subgraphruntime "github.com/wippyai/subgraph-runtime"
	"github.com/wippyai/subgraph-runtime/asc"
	"github.com/wippyai/subgraph-runtime/engine"
	"github.com/wippyai/subgraph-runtime/errors"
)

var wasmMagic = []byte{0x00, 'a', 's', 'm'}

type Runtime struct {
	engine engine.Engine
	logger *zap.Logger
	tracer trace.Tracer
	opts   options
}

func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Runtime{
		opts:   o,
		logger: o.logger,
		tracer: o.tracer(),
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}

	eng, err := engine.New(ctx, engine.Config{
		Backend:          o.backend,
		MemoryLimitPages: o.memoryLimitPages,
		Abort:            r.abort,
	})
	if err != nil {
		return nil, errors.Load("create engine", err)
	}
	r.engine = eng

	r.logger.Debug("runtime created",
		zap.String("backend", string(eng.Backend())),
		zap.Uint32("memory_limit_pages", o.memoryLimitPages),
		zap.Int("max_depth", o.maxDepth))
	return r, nil
}

// Close releases all runtime resources.
// All instances must be closed before calling this.
func (r *Runtime) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}

func (r *Runtime) Backend() engine.Backend {
	return r.engine.Backend()
}

// LoadWASM compiles a core WebAssembly module.
func (r *Runtime) LoadWASM(ctx context.Context, wasm []byte) (*Module, error) {
	if !bytes.HasPrefix(wasm, wasmMagic) {
		return nil, errors.InvalidInput(errors.PhaseLoad, "not a WebAssembly binary")
	}

	compiled, err := r.engine.Compile(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}
	return &Module{runtime: r, compiled: compiled}, nil
}

// abort decodes the guest's message and file name and fails the call.
func (r *Runtime) abort(_ context.Context, mem subgraphruntime.Memory, msg, file, line, col uint32) error {
	var message, fileName string
	if mem != nil {
		h := asc.NewHeap(mem, nil)
		message = r.abortString(h, msg)
		fileName = r.abortString(h, file)
	}
	r.logger.Warn("guest aborted",
		zap.String("message", message),
		zap.String("file", fileName),
		zap.Uint32("line", line),
		zap.Uint32("column", col))
	return errors.GuestAbort(message, fileName, line, col)
}

func (r *Runtime) abortString(h asc.Heap, ptr uint32) string {
	if ptr == 0 {
		return ""
	}
	s, err := asc.GetString(h, asc.Ptr[asc.String](ptr))
	if err != nil {
		r.logger.Debug("unreadable abort string", zap.Uint32("ptr", ptr), zap.Error(err))
		return "<unreadable>"
	}
	return s
}
