package committer

import "errors"

var (
	// ErrStoreUnavailable wraps any failure of the durable store while assigning nonces or
	// persisting operations. The service cannot continue without nonce bookkeeping.
	ErrStoreUnavailable = errors.New("operation store unavailable")
	// ErrSubmissionFailed wraps a rejected or failed settlement call. It stays in the sender.
	ErrSubmissionFailed = errors.New("submission failed")
	// ErrBatchOverflow means a deposit batch has more accounts than the configured width.
	ErrBatchOverflow = errors.New("deposit batch overflow")
	// ErrArgumentRange means a value does not fit the contract argument it is packed into.
	// The ABI encoder would silently truncate it.
	ErrArgumentRange = errors.New("contract argument out of range")
	// ErrNotStarted is returned when operations are committed before recovery ran.
	ErrNotStarted = errors.New("committer service not started")
	// ErrQueueClosed is returned when pushing to a queue that is shutting down.
	ErrQueueClosed = errors.New("submission queue closed")
)
