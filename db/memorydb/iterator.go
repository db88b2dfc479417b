package memorydb

import (
	"bytes"
	"errors"
	"sort"

	rollupdb "github.com/celer-network/rollup-committer/db"
)

var errInvalidIterator = errors.New("iterator is invalid")

// Iterator walks a snapshot of the keys taken when it was created.
type Iterator struct {
	keys   []string
	cursor int
	closed bool
	db     *DB
}

func isKeyInRange(key []byte, start []byte, end []byte, reverse bool) bool {
	if reverse {
		if start != nil && bytes.Compare(start, key) < 0 {
			return false
		}
		if end != nil && bytes.Compare(key, end) <= 0 {
			return false
		}
		return true
	}

	if bytes.Compare(key, start) < 0 {
		return false
	}
	if end != nil && bytes.Compare(end, key) <= 0 {
		return false
	}
	return true
}

func (db *DB) Iterator(start []byte, end []byte) rollupdb.Iterator {
	db.lock.Lock()
	defer db.lock.Unlock()

	// if start is bigger than end, then reverse order
	reverse := end != nil && bytes.Compare(start, end) == 1

	var keys sort.StringSlice
	for key := range db.db {
		if isKeyInRange([]byte(key), start, end, reverse) {
			keys = append(keys, key)
		}
	}
	if reverse {
		sort.Sort(sort.Reverse(keys))
	} else {
		sort.Strings(keys)
	}

	return &Iterator{
		keys: keys,
		db:   db,
	}
}

func (iter *Iterator) Next() error {
	if !iter.Valid() {
		return errInvalidIterator
	}
	iter.cursor++
	return nil
}

func (iter *Iterator) Valid() bool {
	return !iter.closed && iter.cursor < len(iter.keys)
}

func (iter *Iterator) Key() ([]byte, error) {
	if !iter.Valid() {
		return nil, errInvalidIterator
	}
	return []byte(iter.keys[iter.cursor]), nil
}

// Value reads the current value from the db; a key deleted since the snapshot yields nil.
func (iter *Iterator) Value() ([]byte, error) {
	if !iter.Valid() {
		return nil, errInvalidIterator
	}
	value, _, err := iter.db.Get(nil, []byte(iter.keys[iter.cursor]))
	return value, err
}

func (iter *Iterator) Close() {
	iter.closed = true
}
