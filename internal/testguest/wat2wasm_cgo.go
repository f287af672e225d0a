//go:build cgo

package testguest

import "github.com/bytecodealliance/wasmtime-go"

func wat2wasm(src string) ([]byte, error) {
	return wasmtime.Wat2Wasm(src)
}
