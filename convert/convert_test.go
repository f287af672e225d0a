package convert

import (
	"encoding/binary"
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wippyai/subgraph-runtime/asc"
	"github.com/wippyai/subgraph-runtime/asc/asctest"
	"github.com/wippyai/subgraph-runtime/errors"
	"github.com/wippyai/subgraph-runtime/ethabi"
	"github.com/wippyai/subgraph-runtime/store"
)

func newHeap(t *testing.T) (*asc.LinearHeap, *asctest.Memory) {
	t.Helper()
	mem := asctest.NewMemory(256 * 1024)
	return asc.NewHeap(mem, mem), mem
}

var (
	testAddress = ethabi.Address(common.BytesToAddress([]byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}))
	testLimbs   = uint256.Int{256, 453452345, 0, 42}
)

func sampleTokens() map[string]ethabi.Token {
	return map[string]ethabi.Token{
		"address":     testAddress,
		"bytes":       ethabi.Bytes{42, 45, 7, 245, 45},
		"empty bytes": ethabi.Bytes{},
		"fixed bytes": ethabi.FixedBytes{0xde, 0xad},
		"int":         ethabi.Int{U256: testLimbs},
		"uint":        ethabi.Uint{U256: testLimbs},
		"uint max":    ethabi.Uint{U256: *new(uint256.Int).SetAllOne()},
		"int minus":   ethabi.Int{U256: *new(uint256.Int).SetAllOne()},
		"uint zero":   ethabi.Uint{},
		"bool true":   ethabi.Bool(true),
		"bool false":  ethabi.Bool(false),
		"string":      ethabi.String("漢字Go🇧🇷"),
		"empty array": ethabi.Array{},
		"fixed array": ethabi.FixedArray{ethabi.Bool(true), ethabi.String("x")},
		"nested": ethabi.Array{
			ethabi.String("漢字Go🇧🇷"),
			ethabi.Array{testAddress, ethabi.Bytes{42, 45, 7, 245, 45}, ethabi.Bool(true)},
		},
	}
}

func TestToken_RoundTrip(t *testing.T) {
	c := New(0)
	for name, tok := range sampleTokens() {
		t.Run(name, func(t *testing.T) {
			h, _ := newHeap(t)
			p, err := c.TokenToAsc(h, tok)
			require.NoError(t, err)
			got, err := c.TokenFromAsc(h, p)
			require.NoError(t, err)
			assert.True(t, ethabi.Equal(tok, got), "want %#v got %#v", tok, got)
		})
	}
}

func TestToken_IntAndUintDiffer(t *testing.T) {
	c := New(0)
	h, _ := newHeap(t)
	ip, err := c.TokenToAsc(h, ethabi.Int{U256: testLimbs})
	require.NoError(t, err)
	up, err := c.TokenToAsc(h, ethabi.Uint{U256: testLimbs})
	require.NoError(t, err)

	it, err := c.TokenFromAsc(h, ip)
	require.NoError(t, err)
	ut, err := c.TokenFromAsc(h, up)
	require.NoError(t, err)
	assert.False(t, ethabi.Equal(it, ut))
}

func TestToken_UintUsesSignedBytes(t *testing.T) {
	c := New(0)
	h, mem := newHeap(t)
	u, err := ethabi.UintFromBig(big.NewInt(255))
	require.NoError(t, err)
	p, err := c.TokenToAsc(h, u)
	require.NoError(t, err)

	payload := binary.LittleEndian.Uint64(mem.Bytes()[p.Offset()+8:])
	b, err := asc.GetBytes(h, asc.PtrFromWasm[asc.Bytes](payload))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0x00}, b)

	got, err := c.TokenFromAsc(h, p)
	require.NoError(t, err)
	assert.True(t, ethabi.Equal(u, got))
}

func mustType(t *testing.T, s string) abi.Type {
	t.Helper()
	typ, err := abi.NewType(s, "", nil)
	require.NoError(t, err)
	return typ
}

func TestToken_TypedAgainstABI(t *testing.T) {
	c := New(0)
	uint8Type := mustType(t, "uint8")
	u, err := ethabi.UintFromBig(big.NewInt(200))
	require.NoError(t, err)
	wide, err := ethabi.UintFromBig(big.NewInt(300))
	require.NoError(t, err)

	h, mem := newHeap(t)
	p, err := c.TokenToAscAs(h, uint8Type, u)
	require.NoError(t, err)
	got, err := c.TokenFromAscAs(h, p, uint8Type)
	require.NoError(t, err)
	assert.True(t, ethabi.Equal(u, got))

	_, err = c.TokenFromAscAs(h, p, mustType(t, "address"))
	assert.True(t, errors.IsKind(err, errors.KindTypeMismatch), "got %v", err)

	// Nothing is written for a token that does not fit its type.
	used := mem.Used()
	_, err = c.TokenToAscAs(h, uint8Type, wide)
	assert.True(t, errors.IsKind(err, errors.KindOverflow), "got %v", err)
	assert.Equal(t, used, mem.Used())

	wp, err := c.TokenToAsc(h, wide)
	require.NoError(t, err)
	_, err = c.TokenFromAscAs(h, wp, uint8Type)
	assert.Error(t, err)
}

func TestTokens_TypedAgainstArguments(t *testing.T) {
	c := New(0)
	args := abi.Arguments{
		{Name: "to", Type: mustType(t, "address")},
		{Name: "ok", Type: mustType(t, "bool")},
	}

	h, _ := newHeap(t)
	p, err := c.TokensToAscAs(h, args, []ethabi.Token{testAddress, ethabi.Bool(true)})
	require.NoError(t, err)
	got, err := c.TokensFromAsc(h, p)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, ethabi.Equal(testAddress, got[0]))

	_, err = c.TokensToAscAs(h, args, []ethabi.Token{testAddress, ethabi.String("yes")})
	require.True(t, errors.IsKind(err, errors.KindTypeMismatch), "got %v", err)
	var e *errors.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "ok", e.Path[0])

	_, err = c.TokensToAscAs(h, args, []ethabi.Token{testAddress})
	assert.True(t, errors.IsKind(err, errors.KindTypeMismatch), "got %v", err)
}

func TestToken_SlotLayout(t *testing.T) {
	c := New(0)
	tests := []struct {
		tok  ethabi.Token
		kind uint32
	}{
		{testAddress, 0},
		{ethabi.FixedBytes{1}, 1},
		{ethabi.Bytes{1}, 2},
		{ethabi.Int{}, 3},
		{ethabi.Uint{}, 4},
		{ethabi.Bool(true), 5},
		{ethabi.String("s"), 6},
		{ethabi.FixedArray{}, 7},
		{ethabi.Array{}, 8},
	}
	for _, tt := range tests {
		h, mem := newHeap(t)
		p, err := c.TokenToAsc(h, tt.tok)
		require.NoError(t, err)
		assert.Equal(t, tt.kind, binary.LittleEndian.Uint32(mem.Bytes()[p.Offset():]), "%T", tt.tok)
	}

	h, mem := newHeap(t)
	p, err := c.TokenToAsc(h, ethabi.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(mem.Bytes()[p.Offset()+8:]))
}

func TestTokens_Array(t *testing.T) {
	c := New(0)
	h, _ := newHeap(t)
	in := []ethabi.Token{ethabi.String("a"), ethabi.Bool(false), ethabi.Bytes{1}}
	p, err := c.TokensToAsc(h, in)
	require.NoError(t, err)
	got, err := c.TokensFromAsc(h, p)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range in {
		assert.True(t, ethabi.Equal(in[i], got[i]))
	}
}

func tamperKind(mem *asctest.Memory, offset uint32, kind uint32) {
	binary.LittleEndian.PutUint32(mem.Bytes()[offset:], kind)
}

func TestToken_UnknownDiscriminant(t *testing.T) {
	c := New(0)
	h, mem := newHeap(t)
	p, err := c.TokenToAsc(h, ethabi.Bool(true))
	require.NoError(t, err)
	tamperKind(mem, p.Offset(), 42)

	got, err := c.TokenFromAsc(h, p)
	assert.Nil(t, got)
	assert.True(t, errors.IsKind(err, errors.KindUnknownDiscriminant), "got %v", err)

	// Inside an array the failing index is reported and nothing is returned.
	inner, err := c.TokenToAsc(h, ethabi.String("ok"))
	require.NoError(t, err)
	arr, err := asc.NewArray(h, []TokenPtr{inner, p})
	require.NoError(t, err)
	toks, err := c.TokensFromAsc(h, arr)
	assert.Nil(t, toks)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindUnknownDiscriminant, e.Kind)
	assert.Equal(t, []string{"1"}, e.Path)
}

func TestToken_DecodeErrors(t *testing.T) {
	c := New(0)

	t.Run("uint wider than 256 bits", func(t *testing.T) {
		h, _ := newHeap(t)
		mag := make([]byte, 33)
		mag[32] = 1
		b, err := asc.NewUnsignedBigInt(h, mag)
		require.NoError(t, err)
		p, err := asc.NewEnum(h, ethabi.KindUint, b.Payload())
		require.NoError(t, err)
		_, err = c.TokenFromAsc(h, p)
		assert.True(t, errors.IsKind(err, errors.KindOverflow), "got %v", err)
	})

	t.Run("int wider than 256 bits", func(t *testing.T) {
		h, _ := newHeap(t)
		b, err := asc.NewBigInt(h, new(big.Int).Lsh(big.NewInt(1), 255))
		require.NoError(t, err)
		p, err := asc.NewEnum(h, ethabi.KindInt, b.Payload())
		require.NoError(t, err)
		_, err = c.TokenFromAsc(h, p)
		assert.True(t, errors.IsKind(err, errors.KindOverflow), "got %v", err)
	})

	t.Run("short address", func(t *testing.T) {
		h, _ := newHeap(t)
		b, err := asc.NewBytes(h, []byte{1, 2, 3})
		require.NoError(t, err)
		p, err := asc.NewEnum(h, ethabi.KindAddress, b.Payload())
		require.NoError(t, err)
		_, err = c.TokenFromAsc(h, p)
		assert.True(t, errors.IsKind(err, errors.KindInvalidData), "got %v", err)
	})

	t.Run("null string payload", func(t *testing.T) {
		h, _ := newHeap(t)
		p, err := asc.NewEnum(h, ethabi.KindString, 0)
		require.NoError(t, err)
		_, err = c.TokenFromAsc(h, p)
		assert.True(t, errors.IsKind(err, errors.KindNullPointer), "got %v", err)
	})

	t.Run("nil token", func(t *testing.T) {
		h, _ := newHeap(t)
		_, err := c.TokenToAsc(h, nil)
		assert.True(t, errors.IsKind(err, errors.KindNullPointer))
	})
}

func nestTokens(levels int) ethabi.Token {
	var tok ethabi.Token = ethabi.Bool(true)
	for i := 0; i < levels; i++ {
		tok = ethabi.Array{tok}
	}
	return tok
}

func TestToken_Depth(t *testing.T) {
	shallow := New(3)
	h, _ := newHeap(t)

	_, err := shallow.TokenToAsc(h, nestTokens(2))
	require.NoError(t, err)

	_, err = shallow.TokenToAsc(h, nestTokens(3))
	assert.True(t, errors.IsKind(err, errors.KindDepthExceeded), "got %v", err)

	deep := New(200)
	p, err := deep.TokenToAsc(h, nestTokens(100))
	require.NoError(t, err)

	_, err = New(0).TokenFromAsc(h, p)
	assert.True(t, errors.IsKind(err, errors.KindDepthExceeded), "got %v", err)

	got, err := deep.TokenFromAsc(h, p)
	require.NoError(t, err)
	assert.True(t, ethabi.Equal(nestTokens(100), got))

	var zero Converter
	_, err = zero.TokenToAsc(h, nestTokens(DefaultMaxDepth))
	assert.True(t, errors.IsKind(err, errors.KindDepthExceeded))
	_, err = zero.TokenToAsc(h, nestTokens(DefaultMaxDepth-1))
	assert.NoError(t, err)
}

func bigFromLE(b []byte) *big.Int {
	return asc.FromUnsignedBytesLE(b)
}

func sampleValues() map[string]store.Value {
	return map[string]store.Value{
		"null":         store.Null{},
		"string":       store.String("some string"),
		"empty string": store.String(""),
		"int min":      store.Int(math.MinInt32),
		"int max":      store.Int(math.MaxInt32),
		"float":        store.Float(3.14159001),
		"bool":         store.Bool(true),
		"list":         store.List{store.String("some string"), store.Float(3.14159001)},
		"string list":  store.List{store.String("foo"), store.String("bar")},
		"empty list":   store.List{},
		"nested list":  store.List{store.List{store.Null{}, store.Int(-1)}, store.List{}},
		"bytes":        store.Bytes{0, 2, 5},
		"bigint":       store.NewBigInt(bigFromLE([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1})),
		"bigint zero":  store.NewBigInt(new(big.Int)),
		"bigint neg":   store.NewBigInt(big.NewInt(-50)),
	}
}

func TestValue_RoundTrip(t *testing.T) {
	c := New(0)
	for name, v := range sampleValues() {
		t.Run(name, func(t *testing.T) {
			h, _ := newHeap(t)
			p, err := c.ValueToAsc(h, v)
			require.NoError(t, err)
			got, err := c.ValueFromAsc(h, p)
			require.NoError(t, err)
			assert.True(t, store.Equal(v, got), "want %#v got %#v", v, got)
		})
	}
}

func TestValue_Encoding(t *testing.T) {
	c := New(0)
	h, mem := newHeap(t)

	p, err := c.ValueToAsc(h, store.Int(math.MinInt32))
	require.NoError(t, err)
	raw := mem.Bytes()[p.Offset():]
	assert.Equal(t, uint32(store.KindInt), binary.LittleEndian.Uint32(raw))
	assert.Equal(t, uint64(0xFFFF_FFFF_8000_0000), binary.LittleEndian.Uint64(raw[8:]))

	p, err = c.ValueToAsc(h, nil)
	require.NoError(t, err)
	raw = mem.Bytes()[p.Offset():]
	assert.Equal(t, uint32(store.KindNull), binary.LittleEndian.Uint32(raw))
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(raw[8:]))

	p, err = c.ValueToAsc(h, store.Float(3.14159001))
	require.NoError(t, err)
	raw = mem.Bytes()[p.Offset():]
	assert.Equal(t, uint64(math.Float32bits(3.14159001)), binary.LittleEndian.Uint64(raw[8:]))

	got, err := c.ValueFromAsc(h, 0)
	require.NoError(t, err)
	assert.Equal(t, store.Null{}, got)
}

func TestValue_UnknownDiscriminant(t *testing.T) {
	c := New(0)
	h, mem := newHeap(t)
	p, err := c.ValueToAsc(h, store.String("x"))
	require.NoError(t, err)
	tamperKind(mem, p.Offset(), 8)

	got, err := c.ValueFromAsc(h, p)
	assert.Nil(t, got)
	assert.True(t, errors.IsKind(err, errors.KindUnknownDiscriminant), "got %v", err)
}

func TestValue_Depth(t *testing.T) {
	var v store.Value = store.Null{}
	for i := 0; i < 10; i++ {
		v = store.List{v}
	}
	h, _ := newHeap(t)
	_, err := New(5).ValueToAsc(h, v)
	assert.True(t, errors.IsKind(err, errors.KindDepthExceeded))

	p, err := New(0).ValueToAsc(h, v)
	require.NoError(t, err)
	_, err = New(5).ValueFromAsc(h, p)
	assert.True(t, errors.IsKind(err, errors.KindDepthExceeded))
}

func TestValue_AllocationFailure(t *testing.T) {
	mem := asctest.NewMemory(256)
	h := asc.NewHeap(mem, mem)
	p, err := New(0).ValuesToAsc(h, []store.Value{
		store.String("a long enough string to exhaust the tiny heap"),
		store.String("a long enough string to exhaust the tiny heap"),
		store.String("a long enough string to exhaust the tiny heap"),
	})
	assert.Zero(t, p)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindAllocation, e.Kind)
	assert.NotEmpty(t, e.Path)
}

func TestValue_Property(t *testing.T) {
	c := New(0)
	properties := gopter.NewProperties(nil)

	properties.Property("int round trip", prop.ForAll(
		func(v int32) bool {
			mem := asctest.NewMemory(1024)
			h := asc.NewHeap(mem, mem)
			p, err := c.ValueToAsc(h, store.Int(v))
			if err != nil {
				return false
			}
			got, err := c.ValueFromAsc(h, p)
			return err == nil && store.Equal(store.Int(v), got)
		},
		gen.Int32(),
	))

	properties.Property("float bits round trip", prop.ForAll(
		func(bits uint32) bool {
			v := store.Float(math.Float32frombits(bits))
			mem := asctest.NewMemory(1024)
			h := asc.NewHeap(mem, mem)
			p, err := c.ValueToAsc(h, v)
			if err != nil {
				return false
			}
			got, err := c.ValueFromAsc(h, p)
			return err == nil && store.Equal(v, got)
		},
		gen.UInt32(),
	))

	properties.Property("string list round trip", prop.ForAll(
		func(ss []string) bool {
			list := make(store.List, len(ss))
			for i, s := range ss {
				list[i] = store.String(s)
			}
			mem := asctest.NewMemory(256 * 1024)
			h := asc.NewHeap(mem, mem)
			p, err := c.ValueToAsc(h, list)
			if err != nil {
				return false
			}
			got, err := c.ValueFromAsc(h, p)
			return err == nil && store.Equal(list, got)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

func TestEntity_RoundTrip(t *testing.T) {
	c := New(0)
	h, _ := newHeap(t)
	e := store.Entity{
		"id":      store.String("0x01"),
		"name":    store.String("Linda"),
		"balance": store.NewBigInt(big.NewInt(-12345)),
		"tags":    store.List{store.String("a"), store.Null{}},
		"flag":    store.Bool(false),
		"nothing": store.Null{},
	}
	p, err := c.EntityToAsc(h, e)
	require.NoError(t, err)

	entries, err := asc.GetTypedMap(h, p)
	require.NoError(t, err)
	var keys []string
	for _, entry := range entries {
		k, err := asc.GetString(h, entry.Key)
		require.NoError(t, err)
		keys = append(keys, k)
	}
	assert.Equal(t, e.Keys(), keys, "entries are written in key order")

	got, err := c.EntityFromAsc(h, p)
	require.NoError(t, err)
	assert.True(t, e.Equal(got), "got %#v", got)
}

func TestEntity_BadValueHasKeyInPath(t *testing.T) {
	c := New(0)
	h, mem := newHeap(t)
	p, err := c.EntityToAsc(h, store.Entity{"id": store.String("1")})
	require.NoError(t, err)

	entries, err := asc.GetTypedMap(h, p)
	require.NoError(t, err)
	tamperKind(mem, entries[0].Value.Offset(), 99)

	_, err = c.EntityFromAsc(h, p)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindUnknownDiscriminant, e.Kind)
	assert.Equal(t, []string{"id"}, e.Path)
}
