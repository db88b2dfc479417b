package committer

import (
	"github.com/celer-network/rollup-committer/types"
	"github.com/ethereum/go-ethereum/common"
)

// PrecommitmentSource derives the public data commitment sent with commitExitBlock.
//
// How the commitment is computed from an exit block is not settled yet, so it is pluggable.
type PrecommitmentSource interface {
	ExitPrecommitment(op *types.CommitOperation, exit *types.ExitBlock) (common.Hash, error)
}

// StaticPrecommitment returns the same value for every exit block. Its zero value is the
// all-zero placeholder the contract currently accepts.
type StaticPrecommitment common.Hash

func (p StaticPrecommitment) ExitPrecommitment(*types.CommitOperation, *types.ExitBlock) (common.Hash, error) {
	return common.Hash(p), nil
}
