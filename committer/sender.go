package committer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/celer-network/rollup-committer/chain"
	"github.com/celer-network/rollup-committer/log"
	"github.com/celer-network/rollup-committer/types"
	"github.com/cenkalti/backoff/v4"
)

// StatusRecorder receives the delivery status of each submission.
type StatusRecorder interface {
	SetStatus(meta types.SubmissionMeta, status types.OpStatus) error
}

// Sender is the single worker that owns the chain client. It drains the queue strictly in
// FIFO order; running more than one sender per address would race on nonces.
type Sender struct {
	client     chain.Client
	queue      *Queue
	dispatcher *Dispatcher
	retry      RetryPolicy
	status     StatusRecorder
	logger     *log.Logger

	done chan struct{}
	err  error
}

// NewSender builds the worker. retry and status may be nil.
func NewSender(client chain.Client, queue *Queue, dispatcher *Dispatcher, retry RetryPolicy, status StatusRecorder) *Sender {
	if retry == nil {
		retry = NoRetry{}
	}
	return &Sender{
		client:     client,
		queue:      queue,
		dispatcher: dispatcher,
		retry:      retry,
		status:     status,
		logger:     log.NewLogger("sender"),
		done:       make(chan struct{}),
	}
}

// Start runs the worker in its own goroutine.
func (s *Sender) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		s.err = s.Run(ctx)
	}()
}

// Done is closed when the worker started by Start returns.
func (s *Sender) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the worker started by Start returns and reports why it stopped.
func (s *Sender) Wait() error {
	<-s.done
	return s.err
}

// Run drains the queue until it is closed and empty, ctx is done, or an operation cannot be
// encoded. The last case is fatal: the operation is outside the dispatch table.
func (s *Sender) Run(ctx context.Context) error {
	s.logger.Info().Msg("Sender started")
	for {
		item, ok := s.queue.Pop(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.logger.Info().Msg("Queue drained, sender stopped")
			return nil
		}
		if err := s.send(ctx, item); err != nil {
			return err
		}
	}
}

func (s *Sender) send(ctx context.Context, item Submission) error {
	desc := types.Describe(item.Op)
	s.logger.Debug().Str("op", desc).Str("meta", item.Meta.String()).Msg("Operation requested")

	call, err := s.dispatcher.Encode(item.Op)
	if err != nil {
		s.logger.Error().Err(err).Str("op", desc).Uint64("nonce", item.Meta.Nonce).Msg("Cannot encode operation")
		return fmt.Errorf("nonce %d: %w", item.Meta.Nonce, err)
	}

	schedule := s.retry.Schedule()
	for attempt := 1; ; attempt++ {
		hash, err := s.client.Call(ctx, item.Meta, call.Method, call.Args...)
		if err == nil {
			s.logger.Info().Str("op", desc).Uint64("nonce", item.Meta.Nonce).Str("tx", hash.Hex()).Msg("Settlement tx sent")
			s.recordStatus(item.Meta, types.OpStatusSent)
			return nil
		}
		if ctx.Err() != nil {
			// shutting down; the record stays as it is and recovery replays it
			s.logger.Warn().Err(err).Str("op", desc).Uint64("nonce", item.Meta.Nonce).Msg("Sender cancelled during tx")
			return ctx.Err()
		}
		err = fmt.Errorf("%w: %s: %v", ErrSubmissionFailed, call.Method, err)

		wait := schedule.NextBackOff()
		if wait == backoff.Stop {
			s.logger.Error().Err(err).Str("op", desc).Uint64("nonce", item.Meta.Nonce).Int("attempts", attempt).Msg("Error sending tx")
			s.recordStatus(item.Meta, types.OpStatusFailed)
			return nil
		}
		s.logger.Warn().Err(err).Str("op", desc).Uint64("nonce", item.Meta.Nonce).Dur("wait", wait).Msg("Retrying tx")

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

func (s *Sender) recordStatus(meta types.SubmissionMeta, status types.OpStatus) {
	if s.status == nil {
		return
	}
	if err := s.status.SetStatus(meta, status); err != nil {
		s.logger.Error().Err(err).Str("meta", meta.String()).Str("status", status.String()).Msg("Fail to record status")
	}
}

// IsFatal reports whether err stops the service rather than a single submission.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, types.ErrUnsupportedVariant) ||
		errors.Is(err, types.ErrCorruptRecord) ||
		errors.Is(err, ErrBatchOverflow) ||
		errors.Is(err, ErrArgumentRange)
}
