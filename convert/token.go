package convert

import (
	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/wippyai/subgraph-runtime/asc"
	"github.com/wippyai/subgraph-runtime/errors"
	"github.com/wippyai/subgraph-runtime/ethabi"
)

const addressLength = 20

// TokenToAsc writes tok and returns its slot.
func (c *Converter) TokenToAsc(h asc.Heap, tok ethabi.Token) (TokenPtr, error) {
	return c.tokenToAsc(h, tok, 1)
}

// TokensToAsc writes an array of token slots.
func (c *Converter) TokensToAsc(h asc.Heap, toks []ethabi.Token) (TokenArrayPtr, error) {
	return c.tokensToAsc(h, toks, 1)
}

// TokenFromAsc reads a token slot.
func (c *Converter) TokenFromAsc(h asc.Heap, p TokenPtr) (ethabi.Token, error) {
	return c.tokenFromAsc(h, p, 1)
}

// TokensFromAsc reads an array of token slots.
func (c *Converter) TokensFromAsc(h asc.Heap, p TokenArrayPtr) ([]ethabi.Token, error) {
	return c.tokensFromAsc(h, p, 1)
}

// TokenToAscAs checks tok against the ABI type t, then writes it.
func (c *Converter) TokenToAscAs(h asc.Heap, t abi.Type, tok ethabi.Token) (TokenPtr, error) {
	if err := ethabi.Validate(t, tok); err != nil {
		return 0, err
	}
	return c.TokenToAsc(h, tok)
}

// TokensToAscAs checks toks against the argument list, then writes them as
// an array of token slots.
func (c *Converter) TokensToAscAs(h asc.Heap, args abi.Arguments, toks []ethabi.Token) (TokenArrayPtr, error) {
	if len(args) != len(toks) {
		return 0, errors.New(errors.PhaseValidate, errors.KindTypeMismatch).
			AscType("Array<EthereumValue>").
			Detail("%d tokens for %d arguments", len(toks), len(args)).
			Build()
	}
	for i, arg := range args {
		if err := ethabi.Validate(arg.Type, toks[i]); err != nil {
			return 0, withArgPath(err, arg.Name)
		}
	}
	return c.TokensToAsc(h, toks)
}

// TokenFromAscAs reads a token slot and checks it against the ABI type t.
func (c *Converter) TokenFromAscAs(h asc.Heap, p TokenPtr, t abi.Type) (ethabi.Token, error) {
	tok, err := c.TokenFromAsc(h, p)
	if err != nil {
		return nil, err
	}
	if err := ethabi.Validate(t, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func withArgPath(err error, name string) error {
	var e *errors.Error
	if name != "" && errors.As(err, &e) {
		e.Path = append([]string{name}, e.Path...)
	}
	return err
}

func (c *Converter) tokenToAsc(h asc.Heap, tok ethabi.Token, depth int) (TokenPtr, error) {
	if err := c.checkDepth(errors.PhaseEncode, depth); err != nil {
		return 0, err
	}
	if tok == nil {
		return 0, errors.NullPointer(errors.PhaseEncode, nil, "ethabi.Token")
	}

	var payload uint64
	switch v := tok.(type) {
	case ethabi.Address:
		p, err := asc.NewBytes(h, v[:])
		if err != nil {
			return 0, err
		}
		payload = p.Payload()
	case ethabi.FixedBytes:
		p, err := asc.NewBytes(h, v)
		if err != nil {
			return 0, err
		}
		payload = p.Payload()
	case ethabi.Bytes:
		p, err := asc.NewBytes(h, v)
		if err != nil {
			return 0, err
		}
		payload = p.Payload()
	case ethabi.Int:
		p, err := asc.NewBigInt(h, v.Big())
		if err != nil {
			return 0, err
		}
		payload = p.Payload()
	case ethabi.Uint:
		p, err := asc.NewBigInt(h, v.Big())
		if err != nil {
			return 0, err
		}
		payload = p.Payload()
	case ethabi.Bool:
		payload = asc.BoolPayload(bool(v))
	case ethabi.String:
		p, err := asc.NewString(h, string(v))
		if err != nil {
			return 0, err
		}
		payload = p.Payload()
	case ethabi.FixedArray:
		p, err := c.tokensToAsc(h, v, depth+1)
		if err != nil {
			return 0, err
		}
		payload = p.Payload()
	case ethabi.Array:
		p, err := c.tokensToAsc(h, v, depth+1)
		if err != nil {
			return 0, err
		}
		payload = p.Payload()
	default:
		return 0, errors.TypeMismatch(errors.PhaseEncode, nil, typeName(tok), "Enum<EthereumValueKind>")
	}
	return asc.NewEnum(h, tok.Kind(), payload)
}

func (c *Converter) tokensToAsc(h asc.Heap, toks []ethabi.Token, depth int) (TokenArrayPtr, error) {
	if err := c.checkDepth(errors.PhaseEncode, depth); err != nil {
		return 0, err
	}
	slots := make([]TokenPtr, len(toks))
	for i, tok := range toks {
		p, err := c.tokenToAsc(h, tok, depth)
		if err != nil {
			return 0, atIndex(err, i)
		}
		slots[i] = p
	}
	return asc.NewArray(h, slots)
}

func (c *Converter) tokenFromAsc(h asc.Heap, p TokenPtr, depth int) (ethabi.Token, error) {
	if err := c.checkDepth(errors.PhaseDecode, depth); err != nil {
		return nil, err
	}
	slot, err := asc.GetEnum(h, p)
	if err != nil {
		return nil, err
	}

	switch slot.Kind {
	case ethabi.KindAddress:
		b, err := asc.GetBytes(h, asc.PtrFromPayload[asc.Bytes](slot.Payload))
		if err != nil {
			return nil, err
		}
		if len(b) != addressLength {
			return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				AscType("Address").
				Detail("address has %d bytes, want %d", len(b), addressLength).
				Build()
		}
		var a ethabi.Address
		copy(a[:], b)
		return a, nil
	case ethabi.KindFixedBytes:
		b, err := asc.GetBytes(h, asc.PtrFromPayload[asc.Bytes](slot.Payload))
		if err != nil {
			return nil, err
		}
		return ethabi.FixedBytes(b), nil
	case ethabi.KindBytes:
		b, err := asc.GetBytes(h, asc.PtrFromPayload[asc.Bytes](slot.Payload))
		if err != nil {
			return nil, err
		}
		return ethabi.Bytes(b), nil
	case ethabi.KindInt:
		n, err := asc.GetBigInt(h, asc.PtrFromPayload[asc.BigInt](slot.Payload))
		if err != nil {
			return nil, err
		}
		i, err := ethabi.IntFromBig(n)
		if err != nil {
			return nil, err
		}
		return i, nil
	case ethabi.KindUint:
		n, err := asc.GetUnsignedBigInt(h, asc.PtrFromPayload[asc.BigInt](slot.Payload))
		if err != nil {
			return nil, err
		}
		u, err := ethabi.UintFromBig(n)
		if err != nil {
			return nil, err
		}
		return u, nil
	case ethabi.KindBool:
		return ethabi.Bool(asc.PayloadBool(slot.Payload)), nil
	case ethabi.KindString:
		s, err := asc.GetString(h, asc.PtrFromPayload[asc.String](slot.Payload))
		if err != nil {
			return nil, err
		}
		return ethabi.String(s), nil
	case ethabi.KindFixedArray:
		toks, err := c.tokensFromAsc(h, asc.PtrFromPayload[asc.EnumArray[ethabi.ValueKind]](slot.Payload), depth+1)
		if err != nil {
			return nil, err
		}
		return ethabi.FixedArray(toks), nil
	case ethabi.KindArray:
		toks, err := c.tokensFromAsc(h, asc.PtrFromPayload[asc.EnumArray[ethabi.ValueKind]](slot.Payload), depth+1)
		if err != nil {
			return nil, err
		}
		return ethabi.Array(toks), nil
	}
	return nil, errors.UnknownDiscriminant(errors.PhaseDecode, nil, uint32(slot.Kind), "EthereumValueKind")
}

func (c *Converter) tokensFromAsc(h asc.Heap, p TokenArrayPtr, depth int) ([]ethabi.Token, error) {
	if err := c.checkDepth(errors.PhaseDecode, depth); err != nil {
		return nil, err
	}
	slots, err := asc.GetArray(h, p)
	if err != nil {
		return nil, err
	}
	out := make([]ethabi.Token, len(slots))
	for i, slot := range slots {
		tok, err := c.tokenFromAsc(h, slot, depth)
		if err != nil {
			return nil, atIndex(err, i)
		}
		out[i] = tok
	}
	return out, nil
}
