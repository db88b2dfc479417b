package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/celer-network/rollup-committer/log"
	"github.com/celer-network/rollup-committer/types"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrForeignSender is returned when a call is requested for an address the client cannot sign for.
var ErrForeignSender = errors.New("submission address is not the client account")

var logger = log.NewLogger("chain")

// EthClient sends settlement calls through a go-ethereum backend.
type EthClient struct {
	backend  bind.ContractBackend
	auth     *bind.TransactOpts
	contract *bind.BoundContract
}

// Dial connects to endpoint and binds the settlement contract at contractAddress.
func Dial(ctx context.Context, endpoint string, auth *bind.TransactOpts, contractAddress common.Address, depositBatchSize int) (*EthClient, error) {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return NewEthClient(client, auth, contractAddress, depositBatchSize)
}

func NewEthClient(backend bind.ContractBackend, auth *bind.TransactOpts, contractAddress common.Address, depositBatchSize int) (*EthClient, error) {
	parsed, err := SettlementABI(depositBatchSize)
	if err != nil {
		return nil, err
	}
	return &EthClient{
		backend:  backend,
		auth:     auth,
		contract: bind.NewBoundContract(contractAddress, parsed, backend, backend, backend),
	}, nil
}

var _ Client = (*EthClient)(nil)

func (c *EthClient) Nonce(ctx context.Context, addr common.Address) (uint64, error) {
	nonceAt, ok := c.backend.(interface {
		NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	})
	if !ok {
		return c.backend.PendingNonceAt(ctx, addr)
	}
	return nonceAt.NonceAt(ctx, addr, nil)
}

func (c *EthClient) Call(ctx context.Context, meta types.SubmissionMeta, method string, args ...interface{}) (common.Hash, error) {
	if meta.Address != c.auth.From {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrForeignSender, meta)
	}
	opts := *c.auth
	opts.Nonce = new(big.Int).SetUint64(meta.Nonce)
	opts.Context = ctx

	tx, err := c.contract.Transact(&opts, method, args...)
	if err != nil {
		return common.Hash{}, err
	}
	logger.Debug().Str("method", method).Uint64("nonce", meta.Nonce).Str("tx", tx.Hash().Hex()).Msg("Sent settlement call")
	return tx.Hash(), nil
}

func (c *EthClient) DefaultAccount() common.Address {
	return c.auth.From
}
