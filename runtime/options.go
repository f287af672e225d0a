package runtime

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wippyai/subgraph-runtime/convert"
	"github.com/wippyai/subgraph-runtime/engine"
)

const tracerName = "github.com/wippyai/subgraph-runtime/runtime"

type options struct {
	tracerProvider   trace.TracerProvider
	logger           *zap.Logger
	backend          engine.Backend
	maxDepth         int
	memoryLimitPages uint32
}

func defaultOptions() options {
	return options{
		backend:  engine.BackendWazero,
		maxDepth: convert.DefaultMaxDepth,
	}
}

// Option configures a Runtime.
type Option func(*options)

// WithBackend selects the WebAssembly engine. The default is wazero.
func WithBackend(b engine.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithMemoryLimitPages caps each instance's memory, in 64KB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(o *options) { o.memoryLimitPages = pages }
}

// WithMaxDepth bounds the nesting of tokens and values crossing the bridge.
// Values <= 0 use convert.DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth <= 0 {
			depth = convert.DefaultMaxDepth
		}
		o.maxDepth = depth
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracerProvider overrides the global OpenTelemetry provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

func (o options) tracer() trace.Tracer {
	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(tracerName)
}
