package types

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnsupportedVariant is returned for an operation or block data kind outside the closed
// variant space. It indicates a protocol or version mismatch and is never guessed around.
var ErrUnsupportedVariant = errors.New("unsupported operation variant")

// Action is the on-chain action of an operation.
type Action string

const (
	ActionCommit Action = "commit"
	ActionVerify Action = "verify"
)

// BlockKind is the kind of block an operation settles.
type BlockKind string

const (
	BlockKindTransfer BlockKind = "transfer"
	BlockKindDeposit  BlockKind = "deposit"
	BlockKindExit     BlockKind = "exit"
)

// Operation is a finalized commit or verify of one block. The set of implementations is
// closed: only *CommitOperation and *VerifyOperation satisfy it.
type Operation interface {
	Action() Action
	Block() uint32
	Data() BlockData
	isOperation()
}

// BlockData is the block specific payload of an operation. Only *TransferBlock,
// *DepositBlock and *ExitBlock satisfy it.
type BlockData interface {
	Kind() BlockKind
	isBlockData()
}

type CommitOperation struct {
	BlockNumber uint32
	NewRoot     common.Hash
	BlockData   BlockData
}

func (*CommitOperation) Action() Action    { return ActionCommit }
func (op *CommitOperation) Block() uint32  { return op.BlockNumber }
func (op *CommitOperation) Data() BlockData { return op.BlockData }
func (*CommitOperation) isOperation()      {}

type VerifyOperation struct {
	BlockNumber uint32
	Proof       Proof
	BlockData   BlockData
}

func (*VerifyOperation) Action() Action    { return ActionVerify }
func (op *VerifyOperation) Block() uint32  { return op.BlockNumber }
func (op *VerifyOperation) Data() BlockData { return op.BlockData }
func (*VerifyOperation) isOperation()      {}

// TransferBlock carries the packed public data of a block of transfers.
type TransferBlock struct {
	TotalFees  *big.Int
	PublicData []byte
}

func (*TransferBlock) Kind() BlockKind { return BlockKindTransfer }
func (*TransferBlock) isBlockData()    {}

// DepositBlock settles one deposit batch.
type DepositBlock struct {
	BatchNumber     uint64
	AccountsUpdated AccountMap
}

func (*DepositBlock) Kind() BlockKind { return BlockKindDeposit }
func (*DepositBlock) isBlockData()    {}

// ExitBlock settles one exit batch.
type ExitBlock struct {
	BatchNumber     uint64
	AccountsUpdated AccountMap
}

func (*ExitBlock) Kind() BlockKind { return BlockKindExit }
func (*ExitBlock) isBlockData()    {}

// Proof is the verifier calldata: eight 256-bit field elements.
type Proof [8]*big.Int

// Describe renders an operation for logs, e.g. "commit/deposit#12".
func Describe(op Operation) string {
	if op == nil || op.Data() == nil {
		return fmt.Sprintf("%T", op)
	}
	return fmt.Sprintf("%s/%s#%d", op.Action(), op.Data().Kind(), op.Block())
}
