package badgerdb

import (
	"context"
	"time"

	rollupdb "github.com/celer-network/rollup-committer/db"
	"github.com/celer-network/rollup-committer/log"
	"github.com/dgraph-io/badger/v2"
	"github.com/dgraph-io/badger/v2/options"
)

const (
	badgerDbDiscardRatio   = 0.5 // run gc when 50% of samples can be collected
	badgerDbGcInterval     = 10 * time.Minute
	badgerDbGcSize         = 1 << 20 // 1 MB
	badgerValueLogFileSize = 1<<26 - 1
	slowWriteThreshold     = 100 * time.Millisecond
)

var logger = &extendedLog{Logger: log.NewLogger("db")}

// Enforce database implements interface
var _ rollupdb.DB = (*DB)(nil)

type DB struct {
	db         *badger.DB
	ctx        context.Context
	cancelFunc context.CancelFunc
	name       string
}

// NewDB creates new database or load existing database in the directory
func NewDB(dir string) (*DB, error) {
	opts := badger.DefaultOptions(dir)

	// operation records are small and written one at a time; keep them in the lsm tree
	opts.ValueLogLoadingMode = options.FileIO
	opts.TableLoadingMode = options.FileIO
	opts.ValueThreshold = 1024
	opts.ValueLogFileSize = badgerValueLogFileSize
	// every committed operation must survive a crash
	opts.SyncWrites = true
	opts.Logger = logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	database := &DB{
		db:         db,
		ctx:        ctx,
		cancelFunc: cancelFunc,
		name:       dir,
	}
	go database.runBadgerGC()

	return database, nil
}

func (db *DB) runBadgerGC() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	lastGcT := time.Now()
	_, lastDbVlogSize := db.db.Size()
	for {
		select {
		case <-ticker.C:
			currentDblsmSize, currentDbVlogSize := db.db.Size()

			// exceed badgerDbGcInterval time or vlog grows slowly (it means resource is free)
			if time.Since(lastGcT) <= badgerDbGcInterval && lastDbVlogSize+badgerDbGcSize <= currentDbVlogSize {
				continue
			}
			startGcT := time.Now()
			logger.Debug().Str("name", db.name).Int64("lsmSize", currentDblsmSize).Int64("vlogSize", currentDbVlogSize).Msg("Start to GC at badger")
			err := db.db.RunValueLogGC(badgerDbDiscardRatio)
			switch {
			case err == badger.ErrNoRewrite:
				logger.Debug().Str("name", db.name).Msg("Nothing to GC at badger")
				lastDbVlogSize = currentDbVlogSize
			case err != nil:
				logger.Error().Str("name", db.name).Err(err).Msg("Fail to GC at badger")
				lastDbVlogSize = currentDbVlogSize
			default:
				afterGcDblsmSize, afterGcDbVlogSize := db.db.Size()
				logger.Debug().Str("name", db.name).Int64("lsmSize", afterGcDblsmSize).Int64("vlogSize", afterGcDbVlogSize).
					Dur("takenTime", time.Since(startGcT)).Msg("Finish to GC at badger")
				lastDbVlogSize = afterGcDbVlogSize
			}
			lastGcT = time.Now()

		case <-db.ctx.Done():
			return
		}
	}
}

func (db *DB) Type() string {
	return "badgerdb"
}

func (db *DB) Set(namespace []byte, key []byte, value []byte) error {
	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))
	value = rollupdb.ConvNilToBytes(value)

	return db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (db *DB) Delete(namespace []byte, key []byte) error {
	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))

	return db.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (db *DB) Get(namespace []byte, key []byte) ([]byte, bool, error) {
	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))

	var val []byte
	err := db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (db *DB) Exist(namespace []byte, key []byte) (bool, error) {
	_, exists, err := db.Get(namespace, key)
	return exists, err
}

// Close stops the gc goroutine and closes badger.
func (db *DB) Close() error {
	db.cancelFunc()
	return db.db.Close()
}

func (db *DB) NewTx() rollupdb.Transaction {
	return &Transaction{
		db:      db,
		tx:      db.db.NewTransaction(true),
		createT: time.Now(),
	}
}

func (db *DB) NewBulk() rollupdb.Bulk {
	return &Bulk{
		db:      db,
		bulk:    db.db.NewWriteBatch(),
		createT: time.Now(),
	}
}
