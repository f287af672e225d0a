//go:build !cgo

package engine

import "fmt"

// NewWasmtimeEngine is unavailable without cgo.
func NewWasmtimeEngine(Config) (Engine, error) {
	return nil, fmt.Errorf("wasmtime backend requires cgo")
}
