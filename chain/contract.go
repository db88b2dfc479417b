package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Settlement contract methods.
const (
	MethodCommitTransferBlock = "commitTransferBlock"
	MethodCommitDepositBlock  = "commitDepositBlock"
	MethodCommitExitBlock     = "commitExitBlock"
	MethodVerifyTransferBlock = "verifyTransferBlock"
	MethodVerifyDepositBlock  = "verifyDepositBlock"
	MethodVerifyExitBlock     = "verifyExitBlock"
)

// settlementABITemplate takes the deposit batch width for the fixed account id arrays.
const settlementABITemplate = `[
{"type":"function","name":"commitTransferBlock","inputs":[
	{"name":"blockNumber","type":"uint32"},
	{"name":"totalFees","type":"uint128"},
	{"name":"txDataPacked","type":"bytes"},
	{"name":"newRoot","type":"bytes32"}],"outputs":[]},
{"type":"function","name":"commitDepositBlock","inputs":[
	{"name":"batchNumber","type":"uint256"},
	{"name":"accoundIDs","type":"uint24[%[1]d]"},
	{"name":"blockNumber","type":"uint32"},
	{"name":"newRoot","type":"bytes32"}],"outputs":[]},
{"type":"function","name":"commitExitBlock","inputs":[
	{"name":"batchNumber","type":"uint256"},
	{"name":"blockNumber","type":"uint32"},
	{"name":"publicDataCommitment","type":"bytes32"},
	{"name":"newRoot","type":"bytes32"}],"outputs":[]},
{"type":"function","name":"verifyTransferBlock","inputs":[
	{"name":"blockNumber","type":"uint32"},
	{"name":"proof","type":"uint256[8]"}],"outputs":[]},
{"type":"function","name":"verifyDepositBlock","inputs":[
	{"name":"batchNumber","type":"uint256"},
	{"name":"accoundIDs","type":"uint24[%[1]d]"},
	{"name":"blockNumber","type":"uint32"},
	{"name":"proof","type":"uint256[8]"}],"outputs":[]},
{"type":"function","name":"verifyExitBlock","inputs":[
	{"name":"blockNumber","type":"uint32"},
	{"name":"batchNumber","type":"uint256"},
	{"name":"accoundIDs","type":"uint24[]"}],"outputs":[]}
]`

// SettlementABI returns the settlement contract ABI for a deposit batch width.
func SettlementABI(depositBatchSize int) (abi.ABI, error) {
	if depositBatchSize <= 0 {
		return abi.ABI{}, fmt.Errorf("invalid deposit batch size %d", depositBatchSize)
	}
	return abi.JSON(strings.NewReader(fmt.Sprintf(settlementABITemplate, depositBatchSize)))
}
