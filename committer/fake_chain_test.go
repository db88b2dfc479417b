package committer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/celer-network/rollup-committer/types"
	"github.com/ethereum/go-ethereum/common"
)

var (
	testAddress   = common.HexToAddress("0xe5d0efb4756bd5cdd4b5140d3d2e08ca7e6cf644")
	errChainDown  = errors.New("connection refused")
	errStoreBroke = errors.New("disk I/O error")
	errNonceLow   = errors.New("nonce too low")
)

type recordedCall struct {
	Meta   types.SubmissionMeta
	Method string
	Args   []interface{}
}

// fakeChain records every call. A call with the nonce the chain expects is included and
// advances the nonce, like a node that mines immediately.
type fakeChain struct {
	mu       sync.Mutex
	account  common.Address
	nonce    uint64
	calls    []recordedCall
	failures map[uint64]int
	nonceErr error
	notify   chan recordedCall

	// rejectStale fails calls whose nonce is already used, like a real node
	rejectStale bool
}

func newFakeChain(nonce uint64) *fakeChain {
	return &fakeChain{
		account:  testAddress,
		nonce:    nonce,
		failures: make(map[uint64]int),
		notify:   make(chan recordedCall, 1024),
	}
}

func (c *fakeChain) Nonce(ctx context.Context, addr common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nonceErr != nil {
		return 0, c.nonceErr
	}
	return c.nonce, nil
}

func (c *fakeChain) Call(ctx context.Context, meta types.SubmissionMeta, method string, args ...interface{}) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := recordedCall{Meta: meta, Method: method, Args: args}
	c.calls = append(c.calls, call)
	select {
	case c.notify <- call:
	default:
	}
	if c.failures[meta.Nonce] > 0 {
		c.failures[meta.Nonce]--
		return common.Hash{}, errChainDown
	}
	if c.rejectStale && meta.Nonce < c.nonce {
		return common.Hash{}, errNonceLow
	}
	if meta.Nonce == c.nonce {
		c.nonce++
	}
	return common.BytesToHash([]byte(fmt.Sprintf("%s-%d", method, meta.Nonce))), nil
}

func (c *fakeChain) DefaultAccount() common.Address {
	return c.account
}

func (c *fakeChain) failNext(nonce uint64, times int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[nonce] = times
}

func (c *fakeChain) setNonce(nonce uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonce = nonce
}

func (c *fakeChain) recorded() []recordedCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]recordedCall, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *fakeChain) sentNonces() []uint64 {
	calls := c.recorded()
	out := make([]uint64, len(calls))
	for i, call := range calls {
		out[i] = call.Meta.Nonce
	}
	return out
}

// waitCalls blocks until n calls were made since the chain was created.
func (c *fakeChain) waitCalls(t *testing.T, n int) []recordedCall {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if calls := c.recorded(); len(calls) >= n {
			return calls
		}
		select {
		case <-c.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %d calls, got %d", n, len(c.recorded()))
		}
	}
}

func transferCommit(block uint32) types.Operation {
	return &types.CommitOperation{
		BlockNumber: block,
		NewRoot:     common.BigToHash(big.NewInt(int64(block) + 1)),
		BlockData:   &types.TransferBlock{TotalFees: big.NewInt(int64(block) + 100), PublicData: []byte{byte(block)}},
	}
}
