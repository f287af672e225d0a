package runtime

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wippyai/subgraph-runtime/asc"
	"github.com/wippyai/subgraph-runtime/convert"
	"github.com/wippyai/subgraph-runtime/engine"
	"github.com/wippyai/subgraph-runtime/errors"
)

const spanGuestCall = "subgraph-runtime/guest.call"

// Instance is a running guest. It owns one heap and must be used by a
// single goroutine.
type Instance struct {
	runtime   *Runtime
	inst      engine.Instance
	converter *convert.Converter
}

// Heap returns the guest heap. Allocations made through it call the guest
// allocator with ctx.
func (i *Instance) Heap(ctx context.Context) asc.Heap {
	return asc.NewHeap(i.inst.Memory(), i.inst.Allocator(ctx))
}

// Converter returns the value converter configured for this runtime.
func (i *Instance) Converter() *convert.Converter {
	return i.converter
}

// Call invokes an exported function with raw core values.
func (i *Instance) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	ctx, span := i.runtime.tracer.Start(ctx, spanGuestCall,
		trace.WithAttributes(attribute.String("wasm.function", name)))
	defer span.End()

	results, err := i.inst.Call(ctx, name, args...)
	if err != nil {
		err = liftCallError(ctx, name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(errors.KindOf(err)))
		i.runtime.logger.Debug("guest call failed", zap.String("func", name), zap.Error(err))
		return nil, err
	}
	return results, nil
}

// CallPtr invokes a function that returns a single pointer.
func (i *Instance) CallPtr(ctx context.Context, name string, args ...uint64) (uint32, error) {
	results, err := i.Call(ctx, name, args...)
	if err != nil {
		return 0, err
	}
	if len(results) != 1 {
		return 0, errors.New(errors.PhaseRuntime, errors.KindTypeMismatch).
			Path(name).
			Detail("expected one result, got %d", len(results)).
			Build()
	}
	return uint32(results[0]), nil
}

func (i *Instance) Close(ctx context.Context) error {
	return i.inst.Close(ctx)
}

func liftCallError(ctx context.Context, name string, err error) error {
	var e *errors.Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, engine.ErrExportNotFound) {
		return errors.NotFound(errors.PhaseRuntime, "export", name)
	}
	if ctx.Err() != nil {
		return errors.Canceled(name, err)
	}
	return errors.Trap(name, err)
}
