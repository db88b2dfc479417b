package committer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/celer-network/rollup-committer/db/memorydb"
	"github.com/celer-network/rollup-committer/storage"
	"github.com/celer-network/rollup-committer/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

func (brokenStore) CommitOp(common.Address, types.Operation) (*types.PersistedRecord, error) {
	return nil, errStoreBroke
}

func drain(t *testing.T, q *Queue) []Submission {
	var out []Submission
	for q.Len() > 0 {
		s, ok := q.Pop(context.Background())
		require.True(t, ok)
		out = append(out, s)
	}
	return out
}

func TestCommitAssignsContiguousNonces(t *testing.T) {
	store := storage.NewStore(memorydb.NewDB())
	require.NoError(t, store.ResetNonce(testAddress, 10))
	q := NewQueue()
	c := NewCommitter(store, q, testAddress)

	for i := uint32(0); i < 3; i++ {
		meta, err := c.Commit(context.Background(), transferCommit(i))
		require.NoError(t, err)
		assert.Equal(t, types.SubmissionMeta{Address: testAddress, Nonce: uint64(10 + i)}, meta)
	}

	queued := drain(t, q)
	require.Len(t, queued, 3)
	for i, s := range queued {
		assert.Equal(t, uint64(10+i), s.Meta.Nonce)
		assert.Equal(t, uint32(i), s.Op.Block())

		// persisted before it was queued
		record, exists, err := store.Record(testAddress, s.Meta.Nonce)
		require.NoError(t, err)
		require.True(t, exists)
		op, err := record.Operation()
		require.NoError(t, err)
		assert.Equal(t, s.Op, op)
	}
}

func TestConcurrentCommitKeepsQueueInNonceOrder(t *testing.T) {
	store := storage.NewStore(memorydb.NewDB())
	q := NewQueue()
	c := NewCommitter(store, q, testAddress)

	const producers, perProducer = 6, 30
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_, err := c.Commit(context.Background(), transferCommit(uint32(p*perProducer+i)))
				assert.NoError(t, err)
			}
		}(p)
	}
	wg.Wait()

	queued := drain(t, q)
	require.Len(t, queued, producers*perProducer)
	for i, s := range queued {
		assert.Equal(t, uint64(i), s.Meta.Nonce)
	}
	next, err := store.NextNonce(testAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(producers*perProducer), next)
}

func TestCommitStoreFailure(t *testing.T) {
	q := NewQueue()
	c := NewCommitter(brokenStore{}, q, testAddress)

	_, err := c.Commit(context.Background(), transferCommit(1))
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.True(t, IsFatal(err))
	assert.Equal(t, 0, q.Len())
}

func TestCommitAfterQueueClosedIsDurable(t *testing.T) {
	store := storage.NewStore(memorydb.NewDB())
	q := NewQueue()
	q.Close()
	c := NewCommitter(store, q, testAddress)

	meta, err := c.Commit(context.Background(), transferCommit(4))
	assert.True(t, errors.Is(err, ErrQueueClosed))
	assert.Equal(t, uint64(0), meta.Nonce)

	pending, err := store.LoadPendingOps(testAddress, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestCommitterRun(t *testing.T) {
	store := storage.NewStore(memorydb.NewDB())
	q := NewQueue()
	c := NewCommitter(store, q, testAddress)

	ops := make(chan types.Operation, 4)
	for i := uint32(0); i < 4; i++ {
		ops <- transferCommit(i)
	}
	close(ops)
	require.NoError(t, c.Run(context.Background(), ops))
	assert.Equal(t, 4, q.Len())

	broken := NewCommitter(brokenStore{}, q, testAddress)
	ops = make(chan types.Operation, 1)
	ops <- transferCommit(9)
	assert.True(t, errors.Is(broken.Run(context.Background(), ops), ErrStoreUnavailable))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.Is(c.Run(ctx, make(chan types.Operation)), context.Canceled))
}
