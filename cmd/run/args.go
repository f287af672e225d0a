package main

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/wippyai/subgraph-runtime/asc"
	"github.com/wippyai/subgraph-runtime/convert"
	"github.com/wippyai/subgraph-runtime/engine"
	"github.com/wippyai/subgraph-runtime/ethabi"
	"github.com/wippyai/subgraph-runtime/store"
)

// argKinds lists the accepted KIND prefixes of --arg KIND:VALUE.
var argKinds = []string{"i32", "i64", "f32", "f64", "bool", "string", "bytes", "address", "bigint", "ubigint", "strings", "token", "params"}

// resultKinds lists the accepted values of --result.
var resultKinds = []string{"i32", "i64", "f32", "f64", "bool", "string", "bytes", "bigint", "ubigint", "strings", "value", "token"}

// codec moves --arg and --result values across the guest boundary. With a
// contract ABI loaded, token arguments and results are checked against it.
type codec struct {
	heap     asc.Heap
	conv     *convert.Converter
	contract *contractABI
}

// splitArg splits KIND:VALUE. A bare value is taken as i32.
func splitArg(arg string) (kind, value string) {
	kind, value, ok := strings.Cut(arg, ":")
	if !ok {
		return "i32", arg
	}
	return kind, value
}

// encodeArg turns one --arg into a core value, writing objects to the heap.
func (c codec) encodeArg(arg string) (uint64, error) {
	h := c.heap
	kind, value := splitArg(arg)
	switch kind {
	case "i32":
		v, err := strconv.ParseInt(value, 0, 32)
		if err != nil {
			return 0, fmt.Errorf("i32 %q: %w", value, err)
		}
		return uint64(uint32(int32(v))), nil
	case "i64":
		v, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("i64 %q: %w", value, err)
		}
		return uint64(v), nil
	case "f32":
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return 0, fmt.Errorf("f32 %q: %w", value, err)
		}
		return uint64(math.Float32bits(float32(v))), nil
	case "f64":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("f64 %q: %w", value, err)
		}
		return math.Float64bits(v), nil
	case "bool":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return 0, fmt.Errorf("bool %q: %w", value, err)
		}
		return asc.BoolPayload(v), nil
	case "string":
		p, err := asc.NewString(h, value)
		return p.Wasm(), err
	case "bytes":
		b, err := hexutil.Decode(value)
		if err != nil {
			return 0, fmt.Errorf("bytes %q: %w", value, err)
		}
		p, err := asc.NewBytes(h, b)
		return p.Wasm(), err
	case "address":
		if !common.IsHexAddress(value) {
			return 0, fmt.Errorf("address %q: not a 20-byte hex address", value)
		}
		p, err := asc.NewBytes(h, common.HexToAddress(value).Bytes())
		return p.Wasm(), err
	case "bigint", "ubigint":
		v, ok := new(big.Int).SetString(value, 0)
		if !ok {
			return 0, fmt.Errorf("%s %q: not an integer", kind, value)
		}
		if kind == "bigint" {
			p, err := asc.NewBigInt(h, v)
			return p.Wasm(), err
		}
		if v.Sign() < 0 {
			return 0, fmt.Errorf("ubigint %q: negative", value)
		}
		p, err := asc.NewUnsignedBigInt(h, asc.UnsignedBytesLE(v))
		return p.Wasm(), err
	case "strings":
		var parts []string
		if value != "" {
			parts = strings.Split(value, ",")
		}
		p, err := asc.NewStringArray(h, parts)
		return p.Wasm(), err
	case "token":
		return c.encodeToken(value)
	case "params":
		return c.encodeParams(value)
	default:
		return 0, fmt.Errorf("unknown argument kind %q (want one of %s)", kind, strings.Join(argKinds, ", "))
	}
}

// encodeToken writes EVENT.ARG=VALUE as a token of that argument's type.
func (c codec) encodeToken(value string) (uint64, error) {
	ref, text, ok := strings.Cut(value, "=")
	if !ok {
		return 0, fmt.Errorf("token %q: want EVENT.ARG=VALUE", value)
	}
	typ, err := c.contract.argumentType(ref)
	if err != nil {
		return 0, err
	}
	v, err := parseABIValue(typ, text)
	if err != nil {
		return 0, fmt.Errorf("token %s: %w", ref, err)
	}
	tok, err := ethabi.FromGo(typ, v)
	if err != nil {
		return 0, err
	}
	p, err := c.conv.TokenToAscAs(c.heap, typ, tok)
	return p.Wasm(), err
}

// encodeParams decodes NAME:0xDATA, the ABI-encoded non-indexed inputs of
// an event or method, and writes them as an array of tokens.
func (c codec) encodeParams(value string) (uint64, error) {
	name, hex, ok := strings.Cut(value, ":")
	if !ok {
		return 0, fmt.Errorf("params %q: want NAME:0xDATA", value)
	}
	args, err := c.contract.arguments(name)
	if err != nil {
		return 0, err
	}
	data, err := hexutil.Decode(hex)
	if err != nil {
		return 0, fmt.Errorf("params %s: %w", name, err)
	}
	toks, err := ethabi.DecodeArguments(args, data)
	if err != nil {
		return 0, err
	}
	p, err := c.conv.TokensToAscAs(c.heap, args.NonIndexed(), toks)
	return p.Wasm(), err
}

// encodeArgs encodes every --arg in order.
func (c codec) encodeArgs(raw []string) ([]uint64, error) {
	args := make([]uint64, len(raw))
	for i, arg := range raw {
		v, err := c.encodeArg(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = v
	}
	return args, nil
}

// formatResult renders a single core result as kind. A token result may
// name the argument it must match, as token:EVENT.ARG.
func (c codec) formatResult(kind string, raw uint64) (string, error) {
	h, conv := c.heap, c.conv
	kind, ref, typed := strings.Cut(kind, ":")
	if typed && kind != "token" {
		return "", fmt.Errorf("result kind %q takes no argument reference", kind)
	}
	switch kind {
	case "i32":
		return strconv.FormatInt(int64(int32(raw)), 10), nil
	case "i64":
		return strconv.FormatInt(int64(raw), 10), nil
	case "f32":
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(raw))), 'g', -1, 32), nil
	case "f64":
		return strconv.FormatFloat(math.Float64frombits(raw), 'g', -1, 64), nil
	case "bool":
		return strconv.FormatBool(asc.PayloadBool(raw)), nil
	case "string":
		s, err := asc.GetString(h, asc.PtrFromWasm[asc.String](raw))
		if err != nil {
			return "", err
		}
		return strconv.Quote(s), nil
	case "bytes":
		b, err := asc.GetBytes(h, asc.PtrFromWasm[asc.Bytes](raw))
		if err != nil {
			return "", err
		}
		return hexutil.Encode(b), nil
	case "bigint":
		v, err := asc.GetBigInt(h, asc.PtrFromWasm[asc.BigInt](raw))
		if err != nil {
			return "", err
		}
		return v.String(), nil
	case "ubigint":
		v, err := asc.GetUnsignedBigInt(h, asc.PtrFromWasm[asc.BigInt](raw))
		if err != nil {
			return "", err
		}
		return v.String(), nil
	case "strings":
		ss, err := asc.GetStringArray(h, asc.PtrFromWasm[asc.Array[asc.Ptr[asc.String]]](raw))
		if err != nil {
			return "", err
		}
		quoted := make([]string, len(ss))
		for i, s := range ss {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ", ") + "]", nil
	case "value":
		v, err := conv.ValueFromAsc(h, convert.ValuePtr(uint32(raw)))
		if err != nil {
			return "", err
		}
		return formatValue(v), nil
	case "token":
		p := convert.TokenPtr(uint32(raw))
		if typed {
			typ, err := c.contract.argumentType(ref)
			if err != nil {
				return "", err
			}
			tok, err := conv.TokenFromAscAs(h, p, typ)
			if err != nil {
				return "", err
			}
			return formatToken(tok), nil
		}
		tok, err := conv.TokenFromAsc(h, p)
		if err != nil {
			return "", err
		}
		return formatToken(tok), nil
	default:
		return "", fmt.Errorf("unknown result kind %q (want one of %s)", kind, strings.Join(resultKinds, ", "))
	}
}

// formatRaw renders results by their declared core types.
func formatRaw(types []engine.ValueType, results []uint64) string {
	out := make([]string, len(results))
	for i, r := range results {
		t := engine.ValueTypeI64
		if i < len(types) {
			t = types[i]
		}
		switch t {
		case engine.ValueTypeI32:
			out[i] = strconv.FormatInt(int64(int32(r)), 10)
		case engine.ValueTypeF32:
			out[i] = strconv.FormatFloat(float64(math.Float32frombits(uint32(r))), 'g', -1, 32)
		case engine.ValueTypeF64:
			out[i] = strconv.FormatFloat(math.Float64frombits(r), 'g', -1, 64)
		default:
			out[i] = strconv.FormatInt(int64(r), 10)
		}
	}
	return strings.Join(out, ", ")
}

func formatToken(tok ethabi.Token) string {
	switch t := tok.(type) {
	case ethabi.Address:
		return "address(" + t.Hex() + ")"
	case ethabi.FixedBytes:
		return "fixedBytes(" + hexutil.Encode(t) + ")"
	case ethabi.Bytes:
		return "bytes(" + hexutil.Encode(t) + ")"
	case ethabi.Int:
		return "int(" + t.Big().String() + ")"
	case ethabi.Uint:
		return "uint(" + t.Big().String() + ")"
	case ethabi.Bool:
		return "bool(" + strconv.FormatBool(bool(t)) + ")"
	case ethabi.String:
		return "string(" + strconv.Quote(string(t)) + ")"
	case ethabi.FixedArray:
		return "fixedArray" + formatTokens(t)
	case ethabi.Array:
		return "array" + formatTokens(t)
	default:
		return fmt.Sprintf("%v", tok)
	}
}

func formatTokens(toks []ethabi.Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = formatToken(t)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatValue(v store.Value) string {
	switch t := v.(type) {
	case store.Null:
		return "null"
	case store.String:
		return strconv.Quote(string(t))
	case store.Int:
		return strconv.FormatInt(int64(t), 10)
	case store.Float:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case store.Bool:
		return strconv.FormatBool(bool(t))
	case store.Bytes:
		return hexutil.Encode(t)
	case store.BigInt:
		return t.String() + "n"
	case store.List:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
