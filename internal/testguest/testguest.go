// Package testguest provides a WebAssembly guest that lays out objects the
// way AssemblyScript does, for tests that cross the host/guest boundary.
package testguest

import (
	_ "embed"
	"sync"
	"testing"
)

//go:embed guest.wat
var Source string

var (
	once     sync.Once
	compiled []byte
	errWASM  error
)

// Compile returns the guest as a WebAssembly binary.
func Compile() ([]byte, error) {
	once.Do(func() {
		compiled, errWASM = wat2wasm(Source)
	})
	return compiled, errWASM
}

// WASM returns the guest binary, skipping the test when no WAT compiler is
// available in this build.
func WASM(t testing.TB) []byte {
	t.Helper()
	wasm, err := Compile()
	if err != nil {
		t.Skipf("guest unavailable: %v", err)
	}
	return wasm
}
