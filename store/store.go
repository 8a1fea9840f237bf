// Package store provides the durable, transactional key-scoped storage
// described in §6.3/§6.4 of the ledger design: one bbolt file, opened once,
// with every ledger table as a bucket. All mutations to ledger state occur
// inside exactly one bbolt read/write transaction, giving the serializable
// semantics the rest of the core relies on.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

const defaultDBFile = "ledger.db"

var bucketNames = [][]byte{
	blocksBucket,
	utxosBucket,
	notesBucket,
	walletSeedBucket,
	addressesBucket,
	pendingTxBucket,
	mempoolInputsBucket,
	mempoolOutputsBucket,
	mempoolShieldedInputsBucket,
	mempoolShieldedOutputsBucket,
}

// Store wraps the single bbolt database file backing the ledger.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if absent) the ledger store at dataDir/ledger.db,
// creating every bucket on first use. dataDir defaults to "." (the working
// directory), matching the fixed-relative-path requirement of §6.4; tests
// may pass an explicit directory.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, defaultDBFile)
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range bucketNames {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Update runs fn inside a single read/write transaction; any error aborts
// and rolls back every change fn made, per §5's cancellation model.
func (s *Store) Update(fn func(tx *bbolt.Tx) error) error {
	return s.db.Update(fn)
}

// View runs fn inside a read-only transaction.
func (s *Store) View(fn func(tx *bbolt.Tx) error) error {
	return s.db.View(fn)
}
