package committer

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/celer-network/rollup-committer/db"
	"github.com/celer-network/rollup-committer/db/memorydb"
	"github.com/celer-network/rollup-committer/storage"
	"github.com/celer-network/rollup-committer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// persistRange stores transfer commits under nonces [from, to).
func persistRange(t *testing.T, store *storage.Store, from, to uint64) {
	require.NoError(t, store.ResetNonce(testAddress, from))
	for n := from; n < to; n++ {
		record, err := store.CommitOp(testAddress, transferCommit(uint32(n)))
		require.NoError(t, err)
		require.Equal(t, n, record.Nonce)
	}
}

func queuedNonces(t *testing.T, q *Queue) []uint64 {
	var out []uint64
	for _, s := range drain(t, q) {
		out = append(out, s.Meta.Nonce)
	}
	return out
}

func TestRecoverReplaysUnconfirmed(t *testing.T) {
	store := storage.NewStore(memorydb.NewDB())
	persistRange(t, store, 8, 13)
	fc := newFakeChain(10)
	q := NewQueue()

	n, err := NewLoader(store, fc, q, testAddress).Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	queued := drain(t, q)
	require.Len(t, queued, 3)
	for i, s := range queued {
		assert.Equal(t, uint64(10+i), s.Meta.Nonce)
		assert.Equal(t, uint32(10+i), s.Op.Block())
	}

	next, err := store.NextNonce(testAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(13), next)

	for nonce := uint64(8); nonce < 10; nonce++ {
		assert.Equal(t, types.OpStatusConfirmed, status(t, store, nonce))
	}
	assert.Equal(t, types.OpStatusPending, status(t, store, 10))
}

func TestRecoverThenSend(t *testing.T) {
	store := storage.NewStore(memorydb.NewDB())
	persistRange(t, store, 10, 13)
	fc := newFakeChain(10)
	q := NewQueue()

	_, err := NewLoader(store, fc, q, testAddress).Recover(context.Background())
	require.NoError(t, err)
	q.Close()
	require.NoError(t, newTestSender(fc, q, nil, store).Run(context.Background()))

	assert.Equal(t, []uint64{10, 11, 12}, fc.sentNonces())
	assert.Equal(t, uint64(13), fc.nonce)
}

func TestRecoverIsIdempotent(t *testing.T) {
	store := storage.NewStore(memorydb.NewDB())
	persistRange(t, store, 0, 4)
	fc := newFakeChain(1)

	first := NewQueue()
	_, err := NewLoader(store, fc, first, testAddress).Recover(context.Background())
	require.NoError(t, err)
	second := NewQueue()
	_, err = NewLoader(store, fc, second, testAddress).Recover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []uint64{1, 2, 3}, queuedNonces(t, first))
	assert.Equal(t, []uint64{1, 2, 3}, queuedNonces(t, second))
	next, err := store.NextNonce(testAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), next)
}

func TestRecoverAlignsCounter(t *testing.T) {
	tests := []struct {
		name       string
		chainNonce uint64
		wantNext   uint64
		wantQueued []uint64
	}{
		{"ChainBehindStore", 3, 7, []uint64{3, 4, 5, 6}},
		{"ChainCaughtUp", 7, 7, nil},
		{"ChainAhead", 20, 20, nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := storage.NewStore(memorydb.NewDB())
			persistRange(t, store, 3, 7)
			q := NewQueue()

			_, err := NewLoader(store, newFakeChain(test.chainNonce), q, testAddress).Recover(context.Background())
			require.NoError(t, err)

			next, err := store.NextNonce(testAddress)
			require.NoError(t, err)
			assert.Equal(t, test.wantNext, next)
			assert.Equal(t, test.wantQueued, queuedNonces(t, q))
		})
	}
}

func TestRecoverEmptyStore(t *testing.T) {
	store := storage.NewStore(memorydb.NewDB())
	q := NewQueue()

	n, err := NewLoader(store, newFakeChain(42), q, testAddress).Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	next, err := store.NextNonce(testAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), next)
}

func TestRecoverCorruptRecordIsFatal(t *testing.T) {
	memdb := memorydb.NewDB()
	store := storage.NewStore(memdb)
	persistRange(t, store, 10, 13)

	key := make([]byte, 0, 28)
	key = append(key, testAddress.Bytes()...)
	key = key[:28]
	binary.BigEndian.PutUint64(key[20:], 11)
	require.NoError(t, memdb.Set(db.NamespaceOperation, key, []byte(`{"address":`)))

	q := NewQueue()
	_, err := NewLoader(store, newFakeChain(10), q, testAddress).Recover(context.Background())
	assert.True(t, errors.Is(err, types.ErrCorruptRecord))
	assert.True(t, IsFatal(err))
	assert.Equal(t, 0, q.Len())
}

func TestRecoverChainUnavailable(t *testing.T) {
	store := storage.NewStore(memorydb.NewDB())
	persistRange(t, store, 0, 2)
	fc := newFakeChain(0)
	fc.nonceErr = errChainDown
	q := NewQueue()

	_, err := NewLoader(store, fc, q, testAddress).Recover(context.Background())
	assert.True(t, errors.Is(err, errChainDown))
	assert.Equal(t, 0, q.Len())
}

func TestReloadKeepsCounter(t *testing.T) {
	store := storage.NewStore(memorydb.NewDB())
	persistRange(t, store, 0, 3)
	fc := newFakeChain(1)
	q := NewQueue()
	loader := NewLoader(store, fc, q, testAddress)

	n, err := loader.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// record 0 is included on chain but Reload does not mark it
	assert.Equal(t, []uint64{1, 2}, queuedNonces(t, q))
	assert.Equal(t, types.OpStatusPending, status(t, store, 0))

	next, err := store.NextNonce(testAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), next)
}
