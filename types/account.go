package types

import (
	"math/big"
	"sort"
)

// AccountID identifies an account leaf of the rollup state tree. It fits the contract's uint24.
type AccountID uint32

// MaxAccountID is the largest id representable on chain.
const MaxAccountID AccountID = 1<<24 - 1

// Account is the updated state of one account leaf.
type Account struct {
	Balance   *big.Int `json:"balance"`
	Nonce     uint32   `json:"nonce"`
	PublicKey []byte   `json:"publicKey,omitempty"`
}

// AccountMap holds the accounts updated by a block. Iteration order is meaningless; use
// SortedIDs for anything that is encoded.
type AccountMap map[AccountID]*Account

// SortedIDs returns the account ids in ascending order. Map keys are unique, so the result
// has no duplicates.
func (m AccountMap) SortedIDs() []AccountID {
	ids := make([]AccountID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
