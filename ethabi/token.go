package ethabi

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/wippyai/subgraph-runtime/asc"
)

// Token is a decoded contract-ABI value.
type Token interface {
	Kind() ValueKind
	isToken()
}

type (
	Address    common.Address
	FixedBytes []byte
	Bytes      []byte
	Bool       bool
	String     string
	FixedArray []Token
	Array      []Token
)

// Int is a signed integer in 256-bit two's complement.
type Int struct {
	U256 uint256.Int
}

// Uint is an unsigned 256-bit integer.
type Uint struct {
	U256 uint256.Int
}

func (Address) Kind() ValueKind    { return KindAddress }
func (FixedBytes) Kind() ValueKind { return KindFixedBytes }
func (Bytes) Kind() ValueKind      { return KindBytes }
func (Int) Kind() ValueKind        { return KindInt }
func (Uint) Kind() ValueKind       { return KindUint }
func (Bool) Kind() ValueKind       { return KindBool }
func (String) Kind() ValueKind     { return KindString }
func (FixedArray) Kind() ValueKind { return KindFixedArray }
func (Array) Kind() ValueKind      { return KindArray }

func (Address) isToken()    {}
func (FixedBytes) isToken() {}
func (Bytes) isToken()      {}
func (Int) isToken()        {}
func (Uint) isToken()       {}
func (Bool) isToken()       {}
func (String) isToken()     {}
func (FixedArray) isToken() {}
func (Array) isToken()      {}

// IntFromBig returns v as an Int; values outside int256 fail.
func IntFromBig(v *big.Int) (Int, error) {
	u, err := asc.ToSignedU256(v)
	if err != nil {
		return Int{}, err
	}
	return Int{U256: *u}, nil
}

// UintFromBig returns v as a Uint; negative values and values outside
// uint256 fail.
func UintFromBig(v *big.Int) (Uint, error) {
	u, err := asc.ToUnsignedU256(v)
	if err != nil {
		return Uint{}, err
	}
	return Uint{U256: *u}, nil
}

func (i Int) Big() *big.Int {
	return asc.FromSignedU256(&i.U256)
}

func (u Uint) Big() *big.Int {
	return asc.FromUnsignedU256(&u.U256)
}

func (a Address) Hex() string {
	return common.Address(a).Hex()
}

// Equal reports whether two tokens have the same kind and value.
func Equal(a, b Token) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Address:
		return x == b.(Address)
	case FixedBytes:
		return bytes.Equal(x, b.(FixedBytes))
	case Bytes:
		return bytes.Equal(x, b.(Bytes))
	case Int:
		y := b.(Int)
		return x.U256.Eq(&y.U256)
	case Uint:
		y := b.(Uint)
		return x.U256.Eq(&y.U256)
	case Bool:
		return x == b.(Bool)
	case String:
		return x == b.(String)
	case FixedArray:
		return equalSlices(x, b.(FixedArray))
	case Array:
		return equalSlices(x, b.(Array))
	}
	return false
}

func equalSlices(a, b []Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
