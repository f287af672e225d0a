package runtime

import (
	"context"

	"github.com/wippyai/subgraph-runtime/convert"
	"github.com/wippyai/subgraph-runtime/engine"
	"github.com/wippyai/subgraph-runtime/errors"
)

type Module struct {
	runtime  *Runtime
	compiled engine.Module
}

// Exports lists the module's exported functions sorted by name.
func (m *Module) Exports() []engine.Export {
	return m.compiled.Exports()
}

func (m *Module) Export(name string) (engine.Export, bool) {
	for _, e := range m.compiled.Exports() {
		if e.Name == name {
			return e, true
		}
	}
	return engine.Export{}, false
}

// Instantiate creates an instance with its own memory and heap. The module
// must export its memory.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	inst, err := m.compiled.Instantiate(ctx)
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	if inst.Memory() == nil {
		_ = inst.Close(ctx)
		return nil, errors.Instantiation(engine.ErrNoMemory)
	}

	return &Instance{
		runtime:   m.runtime,
		inst:      inst,
		converter: convert.New(m.runtime.opts.maxDepth),
	}, nil
}

func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}
