// Package chain holds the settlement chain side of the committer: the client interface the
// sender worker drives and its go-ethereum implementation.
package chain

import (
	"context"

	"github.com/celer-network/rollup-committer/types"
	"github.com/ethereum/go-ethereum/common"
)

// Client submits settlement contract calls.
type Client interface {
	// Nonce returns the number of transactions of addr included on chain.
	Nonce(ctx context.Context, addr common.Address) (uint64, error)
	// Call sends the named contract call signed by meta.Address with nonce meta.Nonce.
	Call(ctx context.Context, meta types.SubmissionMeta, method string, args ...interface{}) (common.Hash, error)
	// DefaultAccount is the address the client signs for.
	DefaultAccount() common.Address
}
