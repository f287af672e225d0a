package main

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/wippyai/subgraph-runtime/manifest"
)

// contractABI is the ABI named by a data source's source.abi.
type contractABI struct {
	name string
	abi  abi.ABI
}

func newContractABI(ds *manifest.DataSource, abis map[string]abi.ABI) *contractABI {
	parsed, ok := abis[ds.Source.ABI]
	if !ok {
		return nil
	}
	return &contractABI{name: ds.Source.ABI, abi: parsed}
}

// arguments returns the inputs of the event or method called name.
func (c *contractABI) arguments(name string) (abi.Arguments, error) {
	if c == nil {
		return nil, fmt.Errorf("%q needs a contract ABI, load one with --manifest", name)
	}
	if ev, ok := c.abi.Events[name]; ok {
		return ev.Inputs, nil
	}
	if m, ok := c.abi.Methods[name]; ok {
		return m.Inputs, nil
	}
	return nil, fmt.Errorf("ABI %s has no event or method %q", c.name, name)
}

// argumentType resolves NAME.ARG, where ARG is an input's name or index.
func (c *contractABI) argumentType(ref string) (abi.Type, error) {
	name, arg, ok := strings.Cut(ref, ".")
	if !ok || arg == "" {
		return abi.Type{}, fmt.Errorf("%q: want EVENT.ARG", ref)
	}
	args, err := c.arguments(name)
	if err != nil {
		return abi.Type{}, err
	}
	for i, a := range args {
		if a.Name == arg || strconv.Itoa(i) == arg {
			return a.Type, nil
		}
	}
	return abi.Type{}, fmt.Errorf("%s has no argument %q", name, arg)
}

// parseABIValue parses s into the Go value go-ethereum uses for t.
func parseABIValue(t abi.Type, s string) (any, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("%q is not a 20-byte hex address", s)
		}
		return common.HexToAddress(s), nil
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.StringTy:
		return s, nil
	case abi.BytesTy:
		return hexutil.Decode(s)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("%s takes %d bytes, got %d", t, t.Size, len(b))
		}
		arr := reflect.New(reflect.ArrayOf(t.Size, reflect.TypeOf(byte(0)))).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	case abi.IntTy, abi.UintTy:
		n, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		return n, nil
	}
	return nil, fmt.Errorf("cannot parse a %s from the command line", t)
}
