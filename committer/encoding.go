package committer

import (
	"fmt"
	"math/big"

	"github.com/celer-network/rollup-committer/types"
)

// SortedPadded returns the account ids in ascending order, right-padded with filler to
// exactly width entries.
func SortedPadded(accounts types.AccountMap, width int, filler types.AccountID) ([]types.AccountID, error) {
	ids, err := Sorted(accounts)
	if err != nil {
		return nil, err
	}
	if filler > types.MaxAccountID {
		return nil, fmt.Errorf("%w: filler account %d", ErrArgumentRange, filler)
	}
	if len(ids) > width {
		return nil, fmt.Errorf("%w: %d accounts, batch width %d", ErrBatchOverflow, len(ids), width)
	}
	padded := make([]types.AccountID, width)
	copy(padded, ids)
	for i := len(ids); i < width; i++ {
		padded[i] = filler
	}
	return padded, nil
}

// Sorted returns the account ids in ascending order without padding. Ids that do not fit
// the contract's uint24 yield ErrArgumentRange.
func Sorted(accounts types.AccountMap) ([]types.AccountID, error) {
	ids := accounts.SortedIDs()
	// sorted, so only the last id can be out of range
	if n := len(ids); n > 0 && ids[n-1] > types.MaxAccountID {
		return nil, fmt.Errorf("%w: account id %d exceeds uint24", ErrArgumentRange, ids[n-1])
	}
	return ids, nil
}

// accountIDArgs converts ids to the uint24 array form the contract ABI packs.
func accountIDArgs(ids []types.AccountID) []*big.Int {
	args := make([]*big.Int, len(ids))
	for i, id := range ids {
		args[i] = new(big.Int).SetUint64(uint64(id))
	}
	return args
}

func proofArg(proof types.Proof) [8]*big.Int {
	var arg [8]*big.Int
	for i, p := range proof {
		if p == nil {
			arg[i] = new(big.Int)
		} else {
			arg[i] = new(big.Int).Set(p)
		}
	}
	return arg
}

// uint128Arg maps nil to zero and rejects values outside [0, 2^128).
func uint128Arg(v *big.Int) (*big.Int, error) {
	if v == nil {
		return new(big.Int), nil
	}
	if v.Sign() < 0 || v.BitLen() > 128 {
		return nil, fmt.Errorf("%w: %s does not fit uint128", ErrArgumentRange, v)
	}
	return v, nil
}

func uint256Arg(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
