package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// operationEnvelope is the storage form of an Operation. Action and Kind select the variant.
type operationEnvelope struct {
	Action      Action         `json:"action"`
	Kind        BlockKind      `json:"kind"`
	BlockNumber uint32         `json:"blockNumber"`
	NewRoot     *common.Hash   `json:"newRoot,omitempty"`
	Proof       *Proof         `json:"proof,omitempty"`
	TotalFees   *big.Int       `json:"totalFees,omitempty"`
	PublicData  hexutil.Bytes  `json:"publicData,omitempty"`
	BatchNumber uint64         `json:"batchNumber,omitempty"`
	Accounts    []accountEntry `json:"accounts,omitempty"`
}

type accountEntry struct {
	ID      AccountID `json:"id"`
	Account *Account  `json:"account"`
}

// EncodeOperation serializes op for storage. Accounts are written in ascending id order so
// equal operations always encode to equal bytes.
func EncodeOperation(op Operation) ([]byte, error) {
	env := operationEnvelope{}

	switch o := op.(type) {
	case *CommitOperation:
		env.Action = ActionCommit
		env.BlockNumber = o.BlockNumber
		root := o.NewRoot
		env.NewRoot = &root
	case *VerifyOperation:
		env.Action = ActionVerify
		env.BlockNumber = o.BlockNumber
		proof := o.Proof
		env.Proof = &proof
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedVariant, op)
	}

	switch d := op.Data().(type) {
	case *TransferBlock:
		env.Kind = BlockKindTransfer
		env.TotalFees = d.TotalFees
		env.PublicData = d.PublicData
	case *DepositBlock:
		env.Kind = BlockKindDeposit
		env.BatchNumber = d.BatchNumber
		env.Accounts = accountEntries(d.AccountsUpdated)
	case *ExitBlock:
		env.Kind = BlockKindExit
		env.BatchNumber = d.BatchNumber
		env.Accounts = accountEntries(d.AccountsUpdated)
	default:
		return nil, fmt.Errorf("%w: block data %T", ErrUnsupportedVariant, op.Data())
	}

	return json.Marshal(&env)
}

// DecodeOperation is the inverse of EncodeOperation.
func DecodeOperation(data []byte) (Operation, error) {
	var env operationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	var blockData BlockData
	switch env.Kind {
	case BlockKindTransfer:
		blockData = &TransferBlock{TotalFees: env.TotalFees, PublicData: env.PublicData}
	case BlockKindDeposit:
		blockData = &DepositBlock{BatchNumber: env.BatchNumber, AccountsUpdated: accountMap(env.Accounts)}
	case BlockKindExit:
		blockData = &ExitBlock{BatchNumber: env.BatchNumber, AccountsUpdated: accountMap(env.Accounts)}
	default:
		return nil, fmt.Errorf("%w: block kind %q", ErrUnsupportedVariant, env.Kind)
	}

	switch env.Action {
	case ActionCommit:
		if env.NewRoot == nil {
			return nil, fmt.Errorf("commit of block %d has no root", env.BlockNumber)
		}
		return &CommitOperation{BlockNumber: env.BlockNumber, NewRoot: *env.NewRoot, BlockData: blockData}, nil
	case ActionVerify:
		if env.Proof == nil {
			return nil, fmt.Errorf("verify of block %d has no proof", env.BlockNumber)
		}
		return &VerifyOperation{BlockNumber: env.BlockNumber, Proof: *env.Proof, BlockData: blockData}, nil
	default:
		return nil, fmt.Errorf("%w: action %q", ErrUnsupportedVariant, env.Action)
	}
}

func accountEntries(m AccountMap) []accountEntry {
	entries := make([]accountEntry, 0, len(m))
	for id, account := range m {
		entries = append(entries, accountEntry{ID: id, Account: account})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

func accountMap(entries []accountEntry) AccountMap {
	m := make(AccountMap, len(entries))
	for _, e := range entries {
		m[e.ID] = e.Account
	}
	return m
}
