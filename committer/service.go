package committer

import (
	"context"
	"fmt"
	"sync"

	"github.com/celer-network/rollup-committer/chain"
	"github.com/celer-network/rollup-committer/storage"
	"github.com/celer-network/rollup-committer/types"
	"github.com/ethereum/go-ethereum/common"
)

// ServiceConfig is the boot-time configuration the service core depends on.
type ServiceConfig struct {
	// SenderAccount defaults to the chain client's account when zero.
	SenderAccount        common.Address
	DepositBatchSize     int
	DepositFillerAccount types.AccountID
	Precommitment        PrecommitmentSource
	Retry                RetryPolicy
}

// Service wires the committer, queue, sender worker and recovery loader for one sending
// address.
type Service struct {
	address   common.Address
	queue     *Queue
	committer *Committer
	sender    *Sender
	loader    *Loader

	lock    sync.RWMutex
	started bool
}

func NewService(cfg ServiceConfig, store *storage.Store, client chain.Client) (*Service, error) {
	if cfg.DepositBatchSize <= 0 {
		return nil, fmt.Errorf("invalid deposit batch size %d", cfg.DepositBatchSize)
	}
	address := cfg.SenderAccount
	if address == (common.Address{}) {
		address = client.DefaultAccount()
	}

	queue := NewQueue()
	dispatcher := NewDispatcher(cfg.DepositBatchSize, cfg.DepositFillerAccount, cfg.Precommitment)
	return &Service{
		address:   address,
		queue:     queue,
		committer: NewCommitter(store, queue, address),
		sender:    NewSender(client, queue, dispatcher, cfg.Retry, store),
		loader:    NewLoader(store, client, queue, address),
	}, nil
}

// Address is the sending address of the service.
func (s *Service) Address() common.Address {
	return s.address
}

// Start replays unconfirmed operations and then starts the sender worker. Commit and Run
// return ErrNotStarted until Start has succeeded.
func (s *Service) Start(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.started {
		return fmt.Errorf("committer service for %s already started", s.address.Hex())
	}
	if _, err := s.loader.Recover(ctx); err != nil {
		return err
	}
	s.sender.Start(ctx)
	s.started = true
	return nil
}

func (s *Service) isStarted() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.started
}

func (s *Service) Commit(ctx context.Context, op types.Operation) (types.SubmissionMeta, error) {
	if !s.isStarted() {
		return types.SubmissionMeta{}, ErrNotStarted
	}
	return s.committer.Commit(ctx, op)
}

// Run commits operations from ops until it is closed, ctx is done, or the store fails.
func (s *Service) Run(ctx context.Context, ops <-chan types.Operation) error {
	if !s.isStarted() {
		return ErrNotStarted
	}
	return s.committer.Run(ctx, ops)
}

// Reload re-enqueues unconfirmed operations on demand.
func (s *Service) Reload(ctx context.Context) (int, error) {
	return s.loader.Reload(ctx)
}

// Done is closed when the sender worker stops.
func (s *Service) Done() <-chan struct{} {
	return s.sender.Done()
}

// Stop stops admitting operations, lets the queue drain and returns the worker's error.
func (s *Service) Stop() error {
	s.queue.Close()
	if !s.isStarted() {
		return nil
	}
	return s.sender.Wait()
}
