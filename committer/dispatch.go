package committer

import (
	"fmt"

	"github.com/celer-network/rollup-committer/chain"
	"github.com/celer-network/rollup-committer/types"
)

// Call is one settlement contract invocation.
type Call struct {
	Method string
	Args   []interface{}
}

// Dispatcher maps every operation variant to its fixed contract call shape. The argument
// order of each call is part of the contract ABI.
type Dispatcher struct {
	depositBatchSize int
	depositFiller    types.AccountID
	precommitment    PrecommitmentSource
}

func NewDispatcher(depositBatchSize int, depositFiller types.AccountID, precommitment PrecommitmentSource) *Dispatcher {
	if precommitment == nil {
		precommitment = StaticPrecommitment{}
	}
	return &Dispatcher{
		depositBatchSize: depositBatchSize,
		depositFiller:    depositFiller,
		precommitment:    precommitment,
	}
}

// Encode returns the contract call for op. Variants outside the table yield
// types.ErrUnsupportedVariant.
func (d *Dispatcher) Encode(op types.Operation) (Call, error) {
	switch o := op.(type) {
	case *types.CommitOperation:
		return d.encodeCommit(o)
	case *types.VerifyOperation:
		return d.encodeVerify(o)
	default:
		return Call{}, fmt.Errorf("%w: operation %T", types.ErrUnsupportedVariant, op)
	}
}

func (d *Dispatcher) encodeCommit(op *types.CommitOperation) (Call, error) {
	root := [32]byte(op.NewRoot)
	block := op.BlockNumber

	switch data := op.BlockData.(type) {
	case *types.TransferBlock:
		fees, err := uint128Arg(data.TotalFees)
		if err != nil {
			return Call{}, fmt.Errorf("total fees of block %d: %w", block, err)
		}
		return Call{chain.MethodCommitTransferBlock, []interface{}{
			block, fees, data.PublicData, root,
		}}, nil

	case *types.DepositBlock:
		ids, err := SortedPadded(data.AccountsUpdated, d.depositBatchSize, d.depositFiller)
		if err != nil {
			return Call{}, err
		}
		return Call{chain.MethodCommitDepositBlock, []interface{}{
			uint256Arg(data.BatchNumber), accountIDArgs(ids), block, root,
		}}, nil

	case *types.ExitBlock:
		precommitment, err := d.precommitment.ExitPrecommitment(op, data)
		if err != nil {
			return Call{}, fmt.Errorf("exit precommitment of block %d: %w", block, err)
		}
		return Call{chain.MethodCommitExitBlock, []interface{}{
			uint256Arg(data.BatchNumber), block, [32]byte(precommitment), root,
		}}, nil

	default:
		return Call{}, fmt.Errorf("%w: commit of %T", types.ErrUnsupportedVariant, op.BlockData)
	}
}

func (d *Dispatcher) encodeVerify(op *types.VerifyOperation) (Call, error) {
	proof := proofArg(op.Proof)
	block := op.BlockNumber

	switch data := op.BlockData.(type) {
	case *types.TransferBlock:
		return Call{chain.MethodVerifyTransferBlock, []interface{}{
			block, proof,
		}}, nil

	case *types.DepositBlock:
		ids, err := SortedPadded(data.AccountsUpdated, d.depositBatchSize, d.depositFiller)
		if err != nil {
			return Call{}, err
		}
		return Call{chain.MethodVerifyDepositBlock, []interface{}{
			uint256Arg(data.BatchNumber), accountIDArgs(ids), block, proof,
		}}, nil

	case *types.ExitBlock:
		ids, err := Sorted(data.AccountsUpdated)
		if err != nil {
			return Call{}, err
		}
		return Call{chain.MethodVerifyExitBlock, []interface{}{
			block, uint256Arg(data.BatchNumber), accountIDArgs(ids),
		}}, nil

	default:
		return Call{}, fmt.Errorf("%w: verify of %T", types.ErrUnsupportedVariant, op.BlockData)
	}
}
