package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/celer-network/rollup-committer/db"
	"github.com/celer-network/rollup-committer/log"
	"github.com/celer-network/rollup-committer/types"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNonceTaken means a record already exists under the nonce the counter points at.
	// The counter and the records disagree and nothing may be written until that is resolved.
	ErrNonceTaken = errors.New("nonce already assigned")
	// ErrRecordNotFound is returned by SetStatus for an unknown record.
	ErrRecordNotFound = errors.New("operation record not found")
)

var logger = log.NewLogger("store")

// Store is the durable record of committed operations and the per-address nonce counter.
// Nonce assignment and record persistence happen in one transaction under one lock, so
// concurrent callers never race on a nonce.
type Store struct {
	db   db.DB
	lock sync.Mutex
}

func NewStore(db db.DB) *Store {
	return &Store{
		db: db,
	}
}

func encodeNonce(nonce uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, nonce)
	return b
}

// operationKey is address || big-endian nonce, so keys of one address sort by nonce.
func operationKey(addr common.Address, nonce uint64) []byte {
	return append(addr.Bytes(), encodeNonce(nonce)...)
}

// operationRange returns the raw key range of the records of addr in [from, to).
func operationRange(addr common.Address, from, to uint64) ([]byte, []byte) {
	start := db.PrependNamespace(db.NamespaceOperation, operationKey(addr, from))
	end := db.PrependNamespace(db.NamespaceOperation, operationKey(addr, to))
	return start, end
}

// CommitOp assigns the next nonce of addr to op and persists both atomically.
func (s *Store) CommitOp(addr common.Address, op types.Operation) (*types.PersistedRecord, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	nonce, err := s.nextNonce(addr)
	if err != nil {
		return nil, err
	}
	key := operationKey(addr, nonce)
	taken, err := s.db.Exist(db.NamespaceOperation, key)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %s@%d", ErrNonceTaken, addr.Hex(), nonce)
	}

	record, err := types.NewPersistedRecord(types.SubmissionMeta{Address: addr, Nonce: nonce}, op)
	if err != nil {
		return nil, err
	}
	value, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	tx := s.db.NewTx()
	if err = tx.Set(db.NamespaceOperation, key, value); err != nil {
		tx.Discard()
		return nil, err
	}
	if err = tx.Set(db.NamespaceNextNonce, addr.Bytes(), encodeNonce(nonce+1)); err != nil {
		tx.Discard()
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	logger.Debug().Str("address", addr.Hex()).Uint64("nonce", nonce).Str("op", types.Describe(op)).Msg("Persisted operation")
	return record, nil
}

// NextNonce returns the nonce the next CommitOp for addr will use.
func (s *Store) NextNonce(addr common.Address) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.nextNonce(addr)
}

func (s *Store) nextNonce(addr common.Address) (uint64, error) {
	value, exists, err := s.db.Get(db.NamespaceNextNonce, addr.Bytes())
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	if len(value) != 8 {
		return 0, fmt.Errorf("%w: nonce counter of %s has %d bytes", types.ErrCorruptRecord, addr.Hex(), len(value))
	}
	return binary.BigEndian.Uint64(value), nil
}

// ResetNonce sets the nonce counter of addr.
func (s *Store) ResetNonce(addr common.Address, nonce uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	logger.Info().Str("address", addr.Hex()).Uint64("nonce", nonce).Msg("Reset nonce counter")
	return s.db.Set(db.NamespaceNextNonce, addr.Bytes(), encodeNonce(nonce))
}

// LoadPendingOps lists the records of addr with nonce >= from in ascending nonce order,
// skipping confirmed ones. A record that does not parse yields ErrCorruptRecord.
func (s *Store) LoadPendingOps(addr common.Address, from uint64) ([]*types.PersistedRecord, error) {
	records, err := s.scan(addr, from, ^uint64(0))
	if err != nil {
		return nil, err
	}
	pending := records[:0]
	for _, record := range records {
		if record.Status != types.OpStatusConfirmed {
			pending = append(pending, record)
		}
	}
	return pending, nil
}

// Record returns the record of addr at nonce.
func (s *Store) Record(addr common.Address, nonce uint64) (*types.PersistedRecord, bool, error) {
	value, exists, err := s.db.Get(db.NamespaceOperation, operationKey(addr, nonce))
	if err != nil || !exists {
		return nil, false, err
	}
	record, err := decodeRecord(value)
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// SetStatus updates the delivery status of one record. Updates that would move a record
// back from sent or confirmed are ignored.
func (s *Store) SetStatus(meta types.SubmissionMeta, status types.OpStatus) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	record, exists, err := s.Record(meta.Address, meta.Nonce)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, meta)
	}
	if record.Status == status {
		return nil
	}
	if isDowngrade(record.Status, status) {
		logger.Debug().Str("meta", meta.String()).Str("status", record.Status.String()).Str("requested", status.String()).
			Msg("Keep delivery status")
		return nil
	}
	record.Status = status
	value, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Set(db.NamespaceOperation, operationKey(meta.Address, meta.Nonce), value)
}

// isDowngrade reports whether moving from one status to another would lose delivery
// progress. Confirmed is final, and a sent record is not failed by a later rejected copy.
func isDowngrade(from, to types.OpStatus) bool {
	switch from {
	case types.OpStatusConfirmed:
		return true
	case types.OpStatusSent:
		return to == types.OpStatusFailed || to == types.OpStatusPending
	}
	return false
}

// MarkConfirmedBelow marks every record of addr with nonce < nonce as confirmed and returns
// how many records changed.
func (s *Store) MarkConfirmedBelow(addr common.Address, nonce uint64) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	records, err := s.scan(addr, 0, nonce)
	if err != nil {
		return 0, err
	}

	bulk := s.db.NewBulk()
	changed := 0
	for _, record := range records {
		if record.Status == types.OpStatusConfirmed {
			continue
		}
		record.Status = types.OpStatusConfirmed
		value, err := json.Marshal(record)
		if err != nil {
			bulk.DiscardLast()
			return 0, err
		}
		if err = bulk.Set(db.NamespaceOperation, operationKey(addr, record.Nonce), value); err != nil {
			bulk.DiscardLast()
			return 0, err
		}
		changed++
	}
	if changed == 0 {
		bulk.DiscardLast()
		return 0, nil
	}
	if err = bulk.Flush(); err != nil {
		return 0, err
	}
	return changed, nil
}

func (s *Store) scan(addr common.Address, from, to uint64) ([]*types.PersistedRecord, error) {
	start, end := operationRange(addr, from, to)
	iter := s.db.Iterator(start, end)
	defer iter.Close()

	var records []*types.PersistedRecord
	for ; iter.Valid(); iter.Next() {
		value, err := iter.Value()
		if err != nil {
			return nil, err
		}
		record, err := decodeRecord(value)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func decodeRecord(value []byte) (*types.PersistedRecord, error) {
	var record types.PersistedRecord
	if err := json.Unmarshal(value, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrCorruptRecord, err)
	}
	return &record, nil
}
