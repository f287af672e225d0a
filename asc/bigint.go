package asc

import (
	"math/big"
	"slices"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/wippyai/subgraph-runtime/errors"
)

// NewBigInt writes v as minimal two's-complement little-endian bytes.
// Zero is a single 0x00 byte.
func NewBigInt(h Heap, v *big.Int) (Ptr[BigInt], error) {
	if v == nil {
		return 0, errors.NullPointer(errors.PhaseEncode, nil, "BigInt")
	}
	return NewTypedArray(h, SignedBytesLE(v))
}

// GetBigInt reads a BigInt as a signed two's-complement value.
func GetBigInt(h Heap, p Ptr[BigInt]) (*big.Int, error) {
	b, err := GetTypedArray(h, p)
	if err != nil {
		return nil, err
	}
	return FromSignedBytesLE(b), nil
}

// NewUnsignedBigInt writes a little-endian magnitude with its high-order
// zero bytes removed. Zero keeps a single byte.
func NewUnsignedBigInt(h Heap, magnitudeLE []byte) (Ptr[BigInt], error) {
	n := len(magnitudeLE)
	for n > 1 && magnitudeLE[n-1] == 0 {
		n--
	}
	if n == 0 {
		return NewTypedArray(h, []byte{0})
	}
	return NewTypedArray(h, magnitudeLE[:n])
}

// GetUnsignedBigInt reads a BigInt as an unsigned magnitude.
func GetUnsignedBigInt(h Heap, p Ptr[BigInt]) (*big.Int, error) {
	b, err := GetTypedArray(h, p)
	if err != nil {
		return nil, err
	}
	return FromUnsignedBytesLE(b), nil
}

// GetSignedFixed reads a signed BigInt that must fit in bits.
func GetSignedFixed(h Heap, p Ptr[BigInt], bits uint) (*big.Int, error) {
	if bits == 0 {
		return nil, errors.InvalidInput(errors.PhaseDecode, "signed width must be at least 1 bit")
	}
	v, err := GetBigInt(h, p)
	if err != nil {
		return nil, err
	}
	limit := new(big.Int).Lsh(big.NewInt(1), bits-1)
	lower := new(big.Int).Neg(limit)
	if v.Cmp(lower) < 0 || v.Cmp(limit) >= 0 {
		return nil, errors.Overflow(errors.PhaseDecode, nil, v, signedName(bits))
	}
	return v, nil
}

// GetUnsignedFixed reads an unsigned BigInt that must fit in bits.
func GetUnsignedFixed(h Heap, p Ptr[BigInt], bits uint) (*big.Int, error) {
	v, err := GetUnsignedBigInt(h, p)
	if err != nil {
		return nil, err
	}
	if uint(v.BitLen()) > bits {
		return nil, errors.Overflow(errors.PhaseDecode, nil, v, unsignedName(bits))
	}
	return v, nil
}

// SignedBytesLE returns the shortest two's-complement little-endian form of v.
func SignedBytesLE(v *big.Int) []byte {
	m := v
	if v.Sign() < 0 {
		m = new(big.Int).Not(v)
	}
	n := m.BitLen()/8 + 1

	u := new(big.Int).Set(v)
	if v.Sign() < 0 {
		u.Add(u, new(big.Int).Lsh(big.NewInt(1), uint(8*n)))
	}
	out := u.FillBytes(make([]byte, n))
	slices.Reverse(out)
	return out
}

// FromSignedBytesLE interprets b as two's-complement little-endian.
func FromSignedBytesLE(b []byte) *big.Int {
	v := FromUnsignedBytesLE(b)
	if len(b) > 0 && b[len(b)-1]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(8*len(b))))
	}
	return v
}

// FromUnsignedBytesLE interprets b as an unsigned little-endian magnitude.
func FromUnsignedBytesLE(b []byte) *big.Int {
	be := slices.Clone(b)
	slices.Reverse(be)
	return new(big.Int).SetBytes(be)
}

// UnsignedBytesLE returns the little-endian magnitude of a non-negative v.
func UnsignedBytesLE(v *big.Int) []byte {
	out := new(big.Int).Abs(v).Bytes()
	slices.Reverse(out)
	return out
}

// FromSignedU256 interprets u as a two's-complement 256-bit value.
func FromSignedU256(u *uint256.Int) *big.Int {
	if u.Sign() < 0 {
		abs := new(uint256.Int).Neg(u)
		return new(big.Int).Neg(abs.ToBig())
	}
	return u.ToBig()
}

// FromUnsignedU256 interprets u as an unsigned 256-bit value.
func FromUnsignedU256(u *uint256.Int) *big.Int {
	return u.ToBig()
}

var (
	maxInt256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	minInt256 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
)

// ToSignedU256 returns the 256-bit two's-complement form of v.
func ToSignedU256(v *big.Int) (*uint256.Int, error) {
	if v.Cmp(minInt256) < 0 || v.Cmp(maxInt256) > 0 {
		return nil, errors.Overflow(errors.PhaseDecode, nil, v, "int256")
	}
	if v.Sign() >= 0 {
		u, _ := uint256.FromBig(v)
		return u, nil
	}
	u, _ := uint256.FromBig(new(big.Int).Neg(v))
	return u.Neg(u), nil
}

// ToUnsignedU256 returns v as a uint256. Negative values overflow.
func ToUnsignedU256(v *big.Int) (*uint256.Int, error) {
	if v.Sign() < 0 {
		return nil, errors.Overflow(errors.PhaseDecode, nil, v, "uint256")
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, errors.Overflow(errors.PhaseDecode, nil, v, "uint256")
	}
	return u, nil
}

func signedName(bits uint) string {
	return "int" + strconv.FormatUint(uint64(bits), 10)
}

func unsignedName(bits uint) string {
	return "uint" + strconv.FormatUint(uint64(bits), 10)
}
