package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrNoRevertReason is returned when the replayed call did not revert with Error(string).
var ErrNoRevertReason = errors.New("no revert reason")

// selector of Error(string)
var revertSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

// UnpackRevert decodes the message of an Error(string) revert payload.
func UnpackRevert(data []byte) (string, error) {
	if len(data) < len(revertSelector) || !bytes.Equal(data[:len(revertSelector)], revertSelector) {
		return "", ErrNoRevertReason
	}
	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		return "", err
	}
	var reason string
	if err = (abi.Arguments{{Type: stringType}}).Unpack(&reason, data[len(revertSelector):]); err != nil {
		return "", fmt.Errorf("unpack revert reason: %w", err)
	}
	return reason, nil
}

// RevertReason replays a mined settlement transaction as a call at its block and returns
// the message it reverted with.
func RevertReason(ctx context.Context, client *ethclient.Client, txHash common.Hash) (string, error) {
	tx, pending, err := client.TransactionByHash(ctx, txHash)
	if err != nil {
		return "", err
	}
	if pending {
		return "", fmt.Errorf("tx %s is still pending", txHash.Hex())
	}
	receipt, err := client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return "", err
	}
	if receipt.Status == ethtypes.ReceiptStatusSuccessful {
		return "", fmt.Errorf("tx %s did not revert", txHash.Hex())
	}
	from, err := ethtypes.Sender(ethtypes.NewEIP155Signer(tx.ChainId()), tx)
	if err != nil {
		return "", err
	}

	out, err := client.CallContract(ctx, ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}, receipt.BlockNumber)
	if err != nil {
		return "", err
	}
	return UnpackRevert(out)
}
