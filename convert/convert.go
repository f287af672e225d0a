// Package convert maps contract-ABI tokens and entity field values onto the
// tagged-union slots of package asc and back.
//
// Every converter writes the complete object graph before returning its root
// pointer, so the guest never sees a partially written value. Decoding either
// returns a complete value or an error.
package convert

import (
	"reflect"
	"strconv"

	"github.com/wippyai/subgraph-runtime/asc"
	"github.com/wippyai/subgraph-runtime/errors"
	"github.com/wippyai/subgraph-runtime/ethabi"
	"github.com/wippyai/subgraph-runtime/store"
)

// DefaultMaxDepth bounds array nesting when Converter.MaxDepth is zero.
const DefaultMaxDepth = 64

type (
	TokenPtr      = asc.Ptr[asc.Enum[ethabi.ValueKind]]
	TokenArrayPtr = asc.Ptr[asc.EnumArray[ethabi.ValueKind]]
	ValuePtr      = asc.Ptr[asc.Enum[store.ValueKind]]
	ValueArrayPtr = asc.Ptr[asc.EnumArray[store.ValueKind]]
	EntityPtr     = asc.Ptr[asc.TypedMap[asc.String, asc.Enum[store.ValueKind]]]
)

// Converter holds the limits applied while converting. The zero value is
// ready to use.
type Converter struct {
	// MaxDepth is the deepest array nesting accepted in either direction.
	MaxDepth int
}

// New returns a converter with the given depth limit; 0 selects the default.
func New(maxDepth int) *Converter {
	return &Converter{MaxDepth: maxDepth}
}

func (c *Converter) maxDepth() int {
	if c == nil || c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

func (c *Converter) checkDepth(phase errors.Phase, depth int) error {
	if depth > c.maxDepth() {
		return errors.DepthExceeded(phase, nil, c.maxDepth())
	}
	return nil
}

// at prefixes a path segment onto a structured error.
func at(err error, segment string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append([]string{segment}, e.Path...)
		return e
	}
	return err
}

func atIndex(err error, i int) error {
	return at(err, strconv.Itoa(i))
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
