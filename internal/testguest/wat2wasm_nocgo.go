//go:build !cgo

package testguest

import "fmt"

func wat2wasm(string) ([]byte, error) {
	return nil, fmt.Errorf("WAT compilation requires cgo (wasmtime-go)")
}
