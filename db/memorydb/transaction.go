package memorydb

import (
	"container/list"
	"errors"
	"sync"

	rollupdb "github.com/celer-network/rollup-committer/db"
)

var (
	errCommitAfterDiscard = errors.New("commit after discard is not allowed")
	errDoubleCommit       = errors.New("commit occurs two times")
)

type txOp struct {
	isSet bool
	key   []byte
	value []byte
}

// batch is the write buffer shared by Transaction and Bulk.
type batch struct {
	lock      sync.Mutex
	db        *DB
	opList    *list.List
	isDiscard bool
	isCommit  bool
}

func (b *batch) set(namespace []byte, key []byte, value []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))
	value = copyBytes(rollupdb.ConvNilToBytes(value))
	b.opList.PushBack(&txOp{true, key, value})
	return nil
}

func (b *batch) delete(namespace []byte, key []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))
	b.opList.PushBack(&txOp{false, key, nil})
	return nil
}

func (b *batch) commit() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.isDiscard {
		return errCommitAfterDiscard
	} else if b.isCommit {
		return errDoubleCommit
	}
	b.db.apply(b.opList)
	b.isCommit = true
	return nil
}

func (b *batch) discard() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.isDiscard = true
}

type Transaction struct {
	batch
}

func (tx *Transaction) Set(namespace []byte, key []byte, value []byte) error {
	return tx.set(namespace, key, value)
}

func (tx *Transaction) Delete(namespace []byte, key []byte) error {
	return tx.delete(namespace, key)
}

func (tx *Transaction) Commit() error {
	return tx.commit()
}

func (tx *Transaction) Discard() {
	tx.discard()
}

type Bulk struct {
	batch
}

func (bulk *Bulk) Set(namespace []byte, key []byte, value []byte) error {
	return bulk.set(namespace, key, value)
}

func (bulk *Bulk) Delete(namespace []byte, key []byte) error {
	return bulk.delete(namespace, key)
}

func (bulk *Bulk) Flush() error {
	return bulk.commit()
}

func (bulk *Bulk) DiscardLast() {
	bulk.discard()
}
