// Package committer turns finalized block operations into settlement transactions. Every
// operation is persisted with its nonce before the single sender worker sees it, and
// recovery replays whatever the chain has not included yet.
package committer

import (
	"context"
	"fmt"
	"sync"

	"github.com/celer-network/rollup-committer/log"
	"github.com/celer-network/rollup-committer/types"
	"github.com/ethereum/go-ethereum/common"
)

// OperationStore persists an operation under the next nonce of addr in one atomic step.
type OperationStore interface {
	CommitOp(addr common.Address, op types.Operation) (*types.PersistedRecord, error)
}

// Committer admits operations from the producer.
type Committer struct {
	store   OperationStore
	queue   *Queue
	address common.Address
	logger  *log.Logger

	// held across persist and enqueue so queue order equals nonce order
	lock sync.Mutex
}

func NewCommitter(store OperationStore, queue *Queue, address common.Address) *Committer {
	return &Committer{
		store:   store,
		queue:   queue,
		address: address,
		logger:  log.NewLogger("committer"),
	}
}

// Commit persists op under the next nonce of the sending address and enqueues it exactly
// once. The operation is durable when Commit returns without error. A store failure is
// wrapped in ErrStoreUnavailable and must stop the service.
func (c *Committer) Commit(ctx context.Context, op types.Operation) (types.SubmissionMeta, error) {
	if err := ctx.Err(); err != nil {
		return types.SubmissionMeta{}, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	record, err := c.store.CommitOp(c.address, op)
	if err != nil {
		return types.SubmissionMeta{}, fmt.Errorf("%w: commit %s: %v", ErrStoreUnavailable, types.Describe(op), err)
	}
	meta := record.Meta()

	// the operation is durable; if the queue is already closed, recovery sends it on next boot
	if err = c.queue.Push(Submission{Op: op, Meta: meta}); err != nil {
		c.logger.Warn().Err(err).Str("op", types.Describe(op)).Str("meta", meta.String()).Msg("Persisted operation left for recovery")
		return meta, err
	}
	c.logger.Debug().Str("op", types.Describe(op)).Str("meta", meta.String()).Msg("Committed operation")
	return meta, nil
}

// Run commits operations from ops in arrival order until ops is closed or ctx is done.
// It returns the first store failure.
func (c *Committer) Run(ctx context.Context, ops <-chan types.Operation) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case op, ok := <-ops:
			if !ok {
				return nil
			}
			if _, err := c.Commit(ctx, op); err != nil {
				return err
			}
		}
	}
}
