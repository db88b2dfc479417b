package db

// DB is a namespaced key-value store. Keys are ordered bytewise, which the committer relies
// on to list operation records by nonce.
type DB interface {
	Type() string
	Set(namespace []byte, key []byte, value []byte) error
	Delete(namespace []byte, key []byte) error
	Get(namespace []byte, key []byte) ([]byte, bool, error)
	Exist(namespace []byte, key []byte) (bool, error)
	// Iterator walks raw keys in [start, end). If start > end the walk is in reverse.
	Iterator(start []byte, end []byte) Iterator
	NewTx() Transaction
	NewBulk() Bulk
	Close() error
}

// Transaction applies all of its writes atomically on Commit.
type Transaction interface {
	Set(namespace []byte, key []byte, value []byte) error
	Delete(namespace []byte, key []byte) error
	Commit() error
	Discard()
}

// Bulk batches many writes without the size limit of a Transaction.
// Backends may commit internally when the batch grows, so a Bulk is not atomic.
type Bulk interface {
	Set(namespace []byte, key []byte, value []byte) error
	Delete(namespace []byte, key []byte) error
	Flush() error
	DiscardLast()
}

// Iterator is used to navigate specific key ranges
type Iterator interface {
	Next() error
	Valid() bool
	Key() ([]byte, error)
	Value() ([]byte, error)
	Close()
}
