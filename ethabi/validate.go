package ethabi

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/wippyai/subgraph-runtime/errors"
)

// Validate checks that tok is a value of ABI type t: the kind, fixed sizes,
// integer widths, and every nested element.
func Validate(t abi.Type, tok Token) error {
	return validate(t, tok, nil)
}

func validate(t abi.Type, tok Token, path []string) error {
	if tok == nil {
		return errors.NullPointer(errors.PhaseValidate, path, t.String())
	}
	want, ok := kindOf(t)
	if !ok {
		return errors.New(errors.PhaseValidate, errors.KindUnsupported).
			Path(path...).
			AscType(t.String()).
			Detail("no token kind for ABI type %s", t.String()).
			Build()
	}
	if tok.Kind() != want {
		return errors.New(errors.PhaseValidate, errors.KindTypeMismatch).
			Path(path...).
			GoType(typeName(tok)).
			AscType(t.String()).
			Detail("expected %s token, got %s", want, tok.Kind()).
			Build()
	}

	switch v := tok.(type) {
	case FixedBytes:
		if len(v) != t.Size {
			return sizeMismatch(path, t, len(v))
		}
	case Int:
		n := v.Big()
		if !fitsSigned(n, t.Size) {
			return errors.Overflow(errors.PhaseValidate, path, n, t.String())
		}
	case Uint:
		if v.U256.BitLen() > t.Size {
			return errors.Overflow(errors.PhaseValidate, path, v.Big(), t.String())
		}
	case FixedArray:
		if len(v) != t.Size {
			return sizeMismatch(path, t, len(v))
		}
		for i, elem := range v {
			if err := validate(*t.Elem, elem, append(path, strconv.Itoa(i))); err != nil {
				return err
			}
		}
	case Array:
		for i, elem := range v {
			if err := validate(*t.Elem, elem, append(path, strconv.Itoa(i))); err != nil {
				return err
			}
		}
	}
	return nil
}

// fitsSigned reports whether -2^(bits-1) <= n < 2^(bits-1).
func fitsSigned(n *big.Int, bits int) bool {
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	if n.Cmp(limit) >= 0 {
		return false
	}
	return n.Cmp(limit.Neg(limit)) >= 0
}

func kindOf(t abi.Type) (ValueKind, bool) {
	switch t.T {
	case abi.AddressTy:
		return KindAddress, true
	case abi.FixedBytesTy:
		return KindFixedBytes, true
	case abi.BytesTy:
		return KindBytes, true
	case abi.IntTy:
		return KindInt, true
	case abi.UintTy:
		return KindUint, true
	case abi.BoolTy:
		return KindBool, true
	case abi.StringTy:
		return KindString, true
	case abi.ArrayTy:
		return KindFixedArray, true
	case abi.SliceTy:
		return KindArray, true
	}
	return 0, false
}

func sizeMismatch(path []string, t abi.Type, got int) error {
	return errors.New(errors.PhaseValidate, errors.KindInvalidData).
		Path(path...).
		AscType(t.String()).
		Detail("expected %d elements, got %d", t.Size, got).
		Build()
}
