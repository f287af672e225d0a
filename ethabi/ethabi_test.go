package ethabi

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wippyai/subgraph-runtime/errors"
)

func mustType(t *testing.T, s string) abi.Type {
	t.Helper()
	typ, err := abi.NewType(s, "", nil)
	require.NoError(t, err)
	return typ
}

func mustInt(t *testing.T, v int64) Int {
	t.Helper()
	i, err := IntFromBig(big.NewInt(v))
	require.NoError(t, err)
	return i
}

func mustUint(t *testing.T, v uint64) Uint {
	t.Helper()
	u, err := UintFromBig(new(big.Int).SetUint64(v))
	require.NoError(t, err)
	return u
}

func TestValueKind(t *testing.T) {
	assert.Equal(t, ValueKind(0), KindAddress)
	assert.Equal(t, ValueKind(8), KindArray)
	assert.True(t, KindArray.Known())
	assert.False(t, ValueKind(9).Known())
	assert.Equal(t, "fixed_array", KindFixedArray.String())
	assert.Equal(t, "unknown", ValueKind(42).String())
}

func TestIntUint(t *testing.T) {
	i := mustInt(t, -50)
	assert.Equal(t, int64(-50), i.Big().Int64())
	assert.Equal(t, -1, i.U256.Sign(), "two's complement keeps the top bit")

	u := Uint{U256: *uint256.NewInt(7)}
	assert.Equal(t, uint64(7), u.Big().Uint64())

	_, err := UintFromBig(big.NewInt(-1))
	assert.True(t, errors.IsKind(err, errors.KindOverflow))
	_, err = IntFromBig(new(big.Int).Lsh(big.NewInt(1), 255))
	assert.True(t, errors.IsKind(err, errors.KindOverflow))
}

func TestEqual(t *testing.T) {
	addr := Address(common.HexToAddress("0x0100000000000000000000000000000000000001"))
	tests := []struct {
		name string
		a, b Token
		want bool
	}{
		{"address", addr, addr, true},
		{"address differs", addr, Address{}, false},
		{"bytes", Bytes{1, 2}, Bytes{1, 2}, true},
		{"bytes vs fixed", Bytes{1, 2}, FixedBytes{1, 2}, false},
		{"int vs uint same bits", mustInt(t, 5), mustUint(t, 5), false},
		{"int", mustInt(t, -5), mustInt(t, -5), true},
		{"bool", Bool(true), Bool(false), false},
		{"string", String("漢字"), String("漢字"), true},
		{"nested", Array{String("a"), Array{Bool(true)}}, Array{String("a"), Array{Bool(true)}}, true},
		{"nested differs", Array{Array{Bool(true)}}, Array{Array{Bool(false)}}, false},
		{"length differs", FixedArray{Bool(true)}, FixedArray{}, false},
		{"nil", nil, nil, true},
		{"nil vs value", nil, Bool(true), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestDecodeArguments(t *testing.T) {
	args := abi.Arguments{
		{Name: "owner", Type: mustType(t, "address")},
		{Name: "amount", Type: mustType(t, "uint256")},
		{Name: "delta", Type: mustType(t, "int256")},
		{Name: "small", Type: mustType(t, "int32")},
		{Name: "ok", Type: mustType(t, "bool")},
		{Name: "label", Type: mustType(t, "string")},
		{Name: "blob", Type: mustType(t, "bytes")},
		{Name: "sig", Type: mustType(t, "bytes4")},
		{Name: "pair", Type: mustType(t, "uint8[2]")},
		{Name: "tags", Type: mustType(t, "string[]")},
	}
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	data, err := args.Pack(
		owner,
		big.NewInt(1000),
		big.NewInt(-5),
		int32(-7),
		true,
		"hello",
		[]byte{1, 2, 3},
		[4]byte{0xde, 0xad, 0xbe, 0xef},
		[2]uint8{1, 2},
		[]string{"x", "y"},
	)
	require.NoError(t, err)

	tokens, err := DecodeArguments(args, data)
	require.NoError(t, err)

	want := []Token{
		Address(owner),
		mustUint(t, 1000),
		mustInt(t, -5),
		mustInt(t, -7),
		Bool(true),
		String("hello"),
		Bytes{1, 2, 3},
		FixedBytes{0xde, 0xad, 0xbe, 0xef},
		FixedArray{mustUint(t, 1), mustUint(t, 2)},
		Array{String("x"), String("y")},
	}
	require.Len(t, tokens, len(want))
	for i := range want {
		assert.True(t, Equal(want[i], tokens[i]), "arg %d: want %#v got %#v", i, want[i], tokens[i])
		assert.NoError(t, Validate(args[i].Type, tokens[i]))
	}

	_, err = DecodeArguments(args, data[:10])
	assert.True(t, errors.IsKind(err, errors.KindInvalidData))
}

const transferABI = `[{
	"anonymous": false,
	"type": "event",
	"name": "Transfer",
	"inputs": [
		{"indexed": true, "name": "from", "type": "address"},
		{"indexed": true, "name": "to", "type": "address"},
		{"indexed": false, "name": "value", "type": "uint256"}
	]
}]`

func TestLoadABI(t *testing.T) {
	parsed, err := LoadABI(strings.NewReader(transferABI))
	require.NoError(t, err)

	ev, ok := parsed.Events["Transfer"]
	require.True(t, ok)

	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(42))
	require.NoError(t, err)

	tokens, err := DecodeArguments(ev.Inputs, data)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.True(t, Equal(mustUint(t, 42), tokens[0]))

	_, err = LoadABI(strings.NewReader("{not json"))
	assert.True(t, errors.IsKind(err, errors.KindInvalidData))
}

func TestFromGo(t *testing.T) {
	tok, err := FromGo(mustType(t, "uint64"), uint64(1<<63))
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<63), tok.(Uint).Big().Uint64())

	_, err = FromGo(mustType(t, "bool"), "true")
	assert.True(t, errors.IsKind(err, errors.KindTypeMismatch))

	_, err = FromGo(mustType(t, "address[]"), []common.Address{{}, {}})
	require.NoError(t, err)

	tuple, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{{Name: "a", Type: "uint256"}})
	require.NoError(t, err)
	_, err = FromGo(tuple, struct{ A *big.Int }{big.NewInt(1)})
	assert.True(t, errors.IsKind(err, errors.KindUnsupported))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		tok  Token
		kind errors.Kind
	}{
		{"uint8 fits", "uint8", mustUint(t, 255), ""},
		{"uint8 overflow", "uint8", mustUint(t, 256), errors.KindOverflow},
		{"int8 min", "int8", mustInt(t, -128), ""},
		{"int8 max", "int8", mustInt(t, 127), ""},
		{"int8 over", "int8", mustInt(t, 128), errors.KindOverflow},
		{"int8 under", "int8", mustInt(t, -129), errors.KindOverflow},
		{"int256 negative", "int256", mustInt(t, -1), ""},
		{"bytes4 short", "bytes4", FixedBytes{1, 2, 3}, errors.KindInvalidData},
		{"fixed array length", "uint8[2]", FixedArray{mustUint(t, 1)}, errors.KindInvalidData},
		{"kind mismatch", "string", Bytes{1}, errors.KindTypeMismatch},
		{"fixed vs dynamic array", "bool[]", FixedArray{Bool(true)}, errors.KindTypeMismatch},
		{"nested element", "uint8[][]", Array{Array{mustUint(t, 1), mustUint(t, 300)}}, errors.KindOverflow},
		{"nil token", "bool", nil, errors.KindNullPointer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(mustType(t, tt.typ), tt.tok)
			if tt.kind == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, tt.kind), "got %v", err)
		})
	}

	err := Validate(mustType(t, "uint8[][]"), Array{Array{mustUint(t, 1), mustUint(t, 300)}})
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{"0", "1"}, e.Path)
}
