package store

import (
	"math"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wippyai/subgraph-runtime/errors"
)

func bigFromString(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return v
}

func TestValueKind(t *testing.T) {
	assert.Equal(t, ValueKind(0), KindString)
	assert.Equal(t, ValueKind(4), KindList)
	assert.Equal(t, ValueKind(5), KindNull)
	assert.Equal(t, ValueKind(7), KindBigInt)
	assert.True(t, KindBigInt.Known())
	assert.False(t, ValueKind(8).Known())
	assert.Equal(t, "null", KindNull.String())
}

func TestEqual(t *testing.T) {
	nan := Float(math.Float32frombits(0x7fc00001))
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null", Null{}, Null{}, true},
		{"nil is null", nil, Null{}, true},
		{"string", String("a"), String("a"), true},
		{"string vs bytes", String("a"), Bytes("a"), false},
		{"int", Int(math.MinInt32), Int(math.MinInt32), true},
		{"float bits", Float(3.14159001), Float(3.14159001), true},
		{"nan payload", nan, nan, true},
		{"signed zero", Float(0), Float(float32(math.Copysign(0, -1))), false},
		{"bigint", NewBigInt(big.NewInt(-5)), NewBigInt(big.NewInt(-5)), true},
		{"zero bigint", BigInt{}, NewBigInt(new(big.Int)), true},
		{"list", List{String("a"), Float(1)}, List{String("a"), Float(1)}, true},
		{"nested list", List{List{Null{}}}, List{List{Bool(true)}}, false},
		{"list length", List{}, List{Null{}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestBigInt_Copies(t *testing.T) {
	src := big.NewInt(10)
	v := NewBigInt(src)
	src.SetInt64(11)
	assert.Equal(t, int64(10), v.Big().Int64())

	out := v.Big()
	out.SetInt64(12)
	assert.Equal(t, "10", v.String())
}

func TestEntity(t *testing.T) {
	e := Entity{"name": String("Joe"), "id": String("0"), "age": Int(3)}
	assert.Equal(t, []string{"age", "id", "name"}, e.Keys())

	id, ok := e.ID()
	assert.True(t, ok)
	assert.Equal(t, "0", id)

	assert.True(t, e.Equal(Entity{"id": String("0"), "name": String("Joe"), "age": Int(3)}))
	assert.False(t, e.Equal(Entity{"id": String("0"), "name": String("Joe")}))
	assert.False(t, e.Equal(Entity{"id": String("0"), "name": String("Jeff"), "age": Int(3)}))
}

func TestCodec_RoundTrip(t *testing.T) {
	e := Entity{
		"id":      String("0x01"),
		"empty":   String(""),
		"count":   Int(math.MinInt32),
		"ratio":   Float(3.14159001),
		"active":  Bool(true),
		"nothing": Null{},
		"raw":     Bytes{0, 2, 5},
		"noraw":   Bytes{},
		"supply":  NewBigInt(bigFromString(t, "-115792089237316195423570985008687907853269984665640564039457584007913129639935")),
		"zero":    NewBigInt(new(big.Int)),
		"tags":    List{String("a"), Float(2.5), List{}},
	}
	data, err := MarshalEntity(e)
	require.NoError(t, err)

	again, err := MarshalEntity(e)
	require.NoError(t, err)
	assert.Equal(t, data, again, "canonical encoding is deterministic")

	got, err := UnmarshalEntity(data)
	require.NoError(t, err)
	assert.True(t, e.Equal(got), "got %#v", got)
}

func TestCodec_Errors(t *testing.T) {
	_, err := UnmarshalEntity([]byte{0xff, 0x00})
	assert.True(t, errors.IsKind(err, errors.KindInvalidData))

	bad, err := cborEncMode.Marshal(map[string]wireValue{"x": {Kind: 42}})
	require.NoError(t, err)
	_, err = UnmarshalEntity(bad)
	assert.True(t, errors.IsKind(err, errors.KindUnknownDiscriminant))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(nil)
	users := []string{"Joe", "Jeff", "Linda"}
	for i, name := range users {
		id := string(rune('0' + i))
		require.NoError(t, s.Set(Key{"User", id}, Entity{"id": String(id), "name": String(name)}))
	}
	require.NoError(t, s.Set(Key{"Token", "t"}, Entity{"id": String("t")}))
	assert.Equal(t, 4, s.Len())

	e, ok, err := s.Get(Key{"User", "1"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, String("Jeff"), e["name"])

	// Mutating a returned entity does not touch the stored snapshot.
	e["name"] = String("changed")
	e2, _, err := s.Get(Key{"User", "1"})
	require.NoError(t, err)
	assert.Equal(t, String("Jeff"), e2["name"])

	_, ok, err = s.Get(Key{"User", "9"})
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := s.Find("User")
	require.NoError(t, err)
	require.Len(t, found, 3)
	for i, name := range users {
		assert.Equal(t, String(name), found[i]["name"])
	}

	assert.True(t, s.Remove(Key{"User", "0"}))
	assert.False(t, s.Remove(Key{"User", "0"}))
	assert.Equal(t, 3, s.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key{"Counter", string(rune('a' + i))}
			for j := 0; j < 50; j++ {
				assert.NoError(t, s.Set(key, Entity{"n": Int(j)}))
				_, _, err := s.Get(key)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, s.Len())
}
