package committer

import (
	"errors"
	"math/big"
	"testing"

	"github.com/celer-network/rollup-committer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFiller = types.AccountID(1)

func accounts(ids ...types.AccountID) types.AccountMap {
	m := make(types.AccountMap)
	for _, id := range ids {
		m[id] = &types.Account{Balance: big.NewInt(int64(id)), Nonce: 0}
	}
	return m
}

func TestSortedPadded(t *testing.T) {
	tests := []struct {
		name     string
		accounts types.AccountMap
		width    int
		want     []types.AccountID
	}{
		{"Empty", accounts(), 4, []types.AccountID{1, 1, 1, 1}},
		{"Partial", accounts(40, 7, 12), 5, []types.AccountID{7, 12, 40, 1, 1}},
		{"Full", accounts(9, 3, 6, 2), 4, []types.AccountID{2, 3, 6, 9}},
		{"MaxID", accounts(types.MaxAccountID, 0), 3, []types.AccountID{0, types.MaxAccountID, 1}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := SortedPadded(test.accounts, test.width, testFiller)
			require.NoError(t, err)
			assert.Len(t, got, test.width)
			assert.Equal(t, test.want, got)

			k := len(test.accounts)
			sorted, err := Sorted(test.accounts)
			require.NoError(t, err)
			assert.Equal(t, sorted, got[:k])
			for _, id := range got[k:] {
				assert.Equal(t, testFiller, id)
			}
		})
	}
}

func TestSortedPaddedOverflow(t *testing.T) {
	_, err := SortedPadded(accounts(1, 2, 3), 2, testFiller)
	assert.True(t, errors.Is(err, ErrBatchOverflow))
}

func TestSorted(t *testing.T) {
	m := accounts(5, 3, 8)
	m[3] = &types.Account{Balance: big.NewInt(99)}
	sorted, err := Sorted(m)
	require.NoError(t, err)
	assert.Equal(t, []types.AccountID{3, 5, 8}, sorted)

	sorted, err = Sorted(accounts())
	require.NoError(t, err)
	assert.Empty(t, sorted)
}

func TestAccountIDsMustFitUint24(t *testing.T) {
	_, err := Sorted(accounts(3, types.MaxAccountID+3))
	assert.True(t, errors.Is(err, ErrArgumentRange))
	assert.True(t, IsFatal(err))

	_, err = SortedPadded(accounts(3, types.MaxAccountID+3), 4, testFiller)
	assert.True(t, errors.Is(err, ErrArgumentRange))

	_, err = SortedPadded(accounts(3), 4, types.MaxAccountID+1)
	assert.True(t, errors.Is(err, ErrArgumentRange))
}

func TestUint128Arg(t *testing.T) {
	zero, err := uint128Arg(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, zero.Sign())

	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	got, err := uint128Arg(max)
	require.NoError(t, err)
	assert.Equal(t, max, got)

	_, err = uint128Arg(new(big.Int).Lsh(big.NewInt(1), 128))
	assert.True(t, errors.Is(err, ErrArgumentRange))
	_, err = uint128Arg(big.NewInt(-1))
	assert.True(t, errors.Is(err, ErrArgumentRange))
}

func TestAccountIDArgs(t *testing.T) {
	args := accountIDArgs([]types.AccountID{2, 7})
	require.Len(t, args, 2)
	assert.Equal(t, int64(2), args[0].Int64())
	assert.Equal(t, int64(7), args[1].Int64())
}

func TestProofArgReplacesNil(t *testing.T) {
	var proof types.Proof
	proof[3] = big.NewInt(5)
	arg := proofArg(proof)
	for i, p := range arg {
		require.NotNil(t, p, "element %d", i)
	}
	assert.Equal(t, int64(5), arg[3].Int64())

	arg[3].SetInt64(6)
	assert.Equal(t, int64(5), proof[3].Int64())
}
