package ethabi

import (
	"io"
	"math/big"
	"reflect"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/wippyai/subgraph-runtime/errors"
)

// LoadABI parses a contract ABI in its JSON form.
func LoadABI(r io.Reader) (abi.ABI, error) {
	parsed, err := abi.JSON(r)
	if err != nil {
		return abi.ABI{}, errors.ParseFailed("contract ABI", err)
	}
	return parsed, nil
}

// DecodeArguments unpacks ABI-encoded data for the non-indexed arguments
// and converts each value to a Token.
func DecodeArguments(args abi.Arguments, data []byte) ([]Token, error) {
	values, err := args.Unpack(data)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "unpack arguments")
	}
	nonIndexed := args.NonIndexed()
	if len(values) != len(nonIndexed) {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "argument count mismatch")
	}
	tokens := make([]Token, len(values))
	for i, v := range values {
		tok, err := fromGo(nonIndexed[i].Type, v, []string{nonIndexed[i].Name})
		if err != nil {
			return nil, err
		}
		tokens[i] = tok
	}
	return tokens, nil
}

// FromGo converts a value unpacked by go-ethereum for type t to a Token.
func FromGo(t abi.Type, v any) (Token, error) {
	return fromGo(t, v, nil)
}

func fromGo(t abi.Type, v any, path []string) (Token, error) {
	mismatch := func() error {
		return errors.TypeMismatch(errors.PhaseDecode, path, typeName(v), t.String())
	}

	switch t.T {
	case abi.AddressTy:
		a, ok := v.(common.Address)
		if !ok {
			return nil, mismatch()
		}
		return Address(a), nil

	case abi.FixedBytesTy:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Array || rv.Type().Elem().Kind() != reflect.Uint8 {
			return nil, mismatch()
		}
		out := make([]byte, rv.Len())
		for i := range out {
			out[i] = byte(rv.Index(i).Uint())
		}
		return FixedBytes(out), nil

	case abi.BytesTy:
		b, ok := v.([]byte)
		if !ok {
			return nil, mismatch()
		}
		return Bytes(append([]byte{}, b...)), nil

	case abi.IntTy:
		n, ok := toBig(v)
		if !ok {
			return nil, mismatch()
		}
		i, err := IntFromBig(n)
		if err != nil {
			return nil, err
		}
		return i, nil

	case abi.UintTy:
		n, ok := toBig(v)
		if !ok {
			return nil, mismatch()
		}
		u, err := UintFromBig(n)
		if err != nil {
			return nil, err
		}
		return u, nil

	case abi.BoolTy:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch()
		}
		return Bool(b), nil

	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch()
		}
		return String(s), nil

	case abi.SliceTy, abi.ArrayTy:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, mismatch()
		}
		elems := make([]Token, rv.Len())
		for i := range elems {
			tok, err := fromGo(*t.Elem, rv.Index(i).Interface(), append(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			elems[i] = tok
		}
		if t.T == abi.ArrayTy {
			return FixedArray(elems), nil
		}
		return Array(elems), nil
	}

	return nil, errors.New(errors.PhaseDecode, errors.KindUnsupported).
		Path(path...).
		AscType(t.String()).
		Detail("no token kind for ABI type %s", t.String()).
		Build()
}

func toBig(v any) (*big.Int, bool) {
	if n, ok := v.(*big.Int); ok {
		if n == nil {
			return nil, false
		}
		return n, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), true
	}
	return nil, false
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
