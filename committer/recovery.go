package committer

import (
	"context"
	"errors"
	"fmt"

	"github.com/celer-network/rollup-committer/log"
	"github.com/celer-network/rollup-committer/types"
	"github.com/ethereum/go-ethereum/common"
)

// PendingStore is the part of the durable store recovery reconciles.
type PendingStore interface {
	LoadPendingOps(addr common.Address, from uint64) ([]*types.PersistedRecord, error)
	ResetNonce(addr common.Address, nonce uint64) error
	MarkConfirmedBelow(addr common.Address, nonce uint64) (int, error)
}

// NonceSource reports the on-chain nonce of an address.
type NonceSource interface {
	Nonce(ctx context.Context, addr common.Address) (uint64, error)
}

// Loader replays persisted operations the chain has not included yet.
type Loader struct {
	store   PendingStore
	chain   NonceSource
	queue   *Queue
	address common.Address
	logger  *log.Logger
}

func NewLoader(store PendingStore, chain NonceSource, queue *Queue, address common.Address) *Loader {
	return &Loader{
		store:   store,
		chain:   chain,
		queue:   queue,
		address: address,
		logger:  log.NewLogger("recovery"),
	}
}

// Recover reconciles the store with the chain and enqueues every unconfirmed operation in
// nonce order. It must run before the committer admits traffic.
func (l *Loader) Recover(ctx context.Context) (int, error) {
	chainNonce, pending, err := l.load(ctx)
	if err != nil {
		return 0, err
	}

	// never move the counter below a persisted nonce
	next := chainNonce
	if n := len(pending); n > 0 && pending[n-1].Meta.Nonce >= next {
		next = pending[n-1].Meta.Nonce + 1
	}
	if err = l.store.ResetNonce(l.address, next); err != nil {
		return 0, fmt.Errorf("%w: reset nonce: %v", ErrStoreUnavailable, err)
	}
	confirmed, err := l.store.MarkConfirmedBelow(l.address, chainNonce)
	if err != nil {
		return 0, fmt.Errorf("%w: mark confirmed: %v", ErrStoreUnavailable, err)
	}

	if err = l.enqueue(pending); err != nil {
		return 0, err
	}
	l.logger.Info().Str("address", l.address.Hex()).Uint64("chainNonce", chainNonce).Uint64("nextNonce", next).
		Int("confirmed", confirmed).Int("pending", len(pending)).Msg("Recovered pending operations")
	return len(pending), nil
}

// Reload enqueues every unconfirmed operation again without touching the nonce counter.
// Operations already queued or in flight are sent twice; the chain rejects the stale copy.
func (l *Loader) Reload(ctx context.Context) (int, error) {
	chainNonce, pending, err := l.load(ctx)
	if err != nil {
		return 0, err
	}
	if err = l.enqueue(pending); err != nil {
		return 0, err
	}
	l.logger.Info().Str("address", l.address.Hex()).Uint64("chainNonce", chainNonce).Int("pending", len(pending)).Msg("Reloaded pending operations")
	return len(pending), nil
}

// load decodes every pending record before anything is enqueued, so a corrupt record
// aborts the replay as a whole.
func (l *Loader) load(ctx context.Context) (uint64, []Submission, error) {
	chainNonce, err := l.chain.Nonce(ctx, l.address)
	if err != nil {
		return 0, nil, fmt.Errorf("query chain nonce of %s: %w", l.address.Hex(), err)
	}
	records, err := l.store.LoadPendingOps(l.address, chainNonce)
	if errors.Is(err, types.ErrCorruptRecord) {
		return 0, nil, err
	} else if err != nil {
		return 0, nil, fmt.Errorf("%w: load pending: %v", ErrStoreUnavailable, err)
	}

	pending := make([]Submission, 0, len(records))
	for _, record := range records {
		op, err := record.Operation()
		if err != nil {
			return 0, nil, err
		}
		pending = append(pending, Submission{Op: op, Meta: record.Meta()})
	}
	if len(pending) > 0 && pending[0].Meta.Nonce != chainNonce {
		l.logger.Warn().Uint64("chainNonce", chainNonce).Uint64("firstPending", pending[0].Meta.Nonce).
			Msg("Pending operations do not start at the chain nonce")
	}
	return chainNonce, pending, nil
}

func (l *Loader) enqueue(pending []Submission) error {
	for _, s := range pending {
		if err := l.queue.Push(s); err != nil {
			return err
		}
	}
	return nil
}
