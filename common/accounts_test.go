package common

import (
	"encoding/json"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func accs(ids ...byte) []util.Uint160 {
	res := make([]util.Uint160, len(ids))
	for i := range ids {
		res[i] = util.Uint160{ids[i]}
	}
	return res
}

func TestDifference(t *testing.T) {
	for _, tc := range []struct {
		name string
		a, b []util.Uint160
	}{
		{name: "empty"},
		{name: "empty b", a: accs(1, 2, 3)},
		{name: "empty a", b: accs(1, 2, 3)},
		{name: "disjoint", a: accs(1, 2), b: accs(3, 4)},
		{name: "overlap", a: accs(1, 2, 3), b: accs(2, 3, 4)},
		{name: "equal", a: accs(1, 2, 3), b: accs(3, 2, 1)},
		{name: "subset", a: accs(1), b: accs(1, 2, 3)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a, b := NewAccountSet(tc.a...), NewAccountSet(tc.b...)
			aCopy, bCopy := a.Clone(), b.Clone()

			diff := Difference(a, b)

			// difference(A,B) ∩ B = ∅
			for acc := range diff {
				require.False(t, b.Has(acc))
				require.True(t, a.Has(acc))
			}

			// difference(A,B) ∪ (A∩B) = A
			inter := Difference(a, Difference(a, b))
			require.True(t, Union(diff, inter).Equal(a))

			require.True(t, a.Equal(aCopy), "a must not be modified")
			require.True(t, b.Equal(bCopy), "b must not be modified")
		})
	}
}

func TestAccountSet(t *testing.T) {
	s := NewAccountSet(accs(3, 1, 2, 1)...)
	require.Equal(t, 3, s.Len())
	require.Equal(t, accs(1, 2, 3), s.Sorted())

	s.Remove(util.Uint160{2})
	s.Remove(util.Uint160{42})
	require.Equal(t, accs(1, 3), s.Sorted())

	s.Add(util.Uint160{3})
	require.Equal(t, 2, s.Len())

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(NewAccountSet(accs(2, 1)...))
		require.NoError(t, err)

		var res AccountSet
		require.NoError(t, json.Unmarshal(data, &res))
		require.Equal(t, accs(1, 2), res.Sorted())

		data, err = json.Marshal(accs(1, 1, 1))
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &res))
		require.Equal(t, 1, res.Len())

		require.Error(t, json.Unmarshal([]byte(`["not an account"]`), &res))
	})
}

func TestU128(t *testing.T) {
	data, err := json.Marshal(NewU128(1_000_000_000_000_000_000))
	require.NoError(t, err)
	require.Equal(t, `"1000000000000000000"`, string(data))

	var u U128
	require.NoError(t, json.Unmarshal([]byte(`"340282366920938463463374607431768211455"`), &u))
	require.Equal(t, 128, u.BitLen())

	require.Error(t, json.Unmarshal([]byte(`"340282366920938463463374607431768211456"`), &u))
	require.Error(t, json.Unmarshal([]byte(`"-1"`), &u))
	require.Error(t, json.Unmarshal([]byte(`1`), &u))

	var zero U128
	require.Zero(t, zero.Big().Sign())

	var n U64
	require.NoError(t, json.Unmarshal([]byte(`"604800000000000"`), &n))
	require.EqualValues(t, 604800000000000, n)
	data, err = json.Marshal(n)
	require.NoError(t, err)
	require.Equal(t, `"604800000000000"`, string(data))
}

func TestAccountMapJSON(t *testing.T) {
	a, b := util.Uint160{1}, util.Uint160{2}
	m := AccountMap[uint64]{a: 1, b: 2}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	require.JSONEq(t, `{"0x`+a.StringLE()+`":1,"0x`+b.StringLE()+`":2}`, string(data))

	var actual AccountMap[uint64]
	require.NoError(t, json.Unmarshal(data, &actual))
	require.Equal(t, m, actual)

	require.Error(t, json.Unmarshal([]byte(`{"alice":1}`), &actual))
}
