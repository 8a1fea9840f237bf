// Package nullifier implements the double-spend index: a set of revealed
// 32-byte nullifiers with insert and membership-test operations. It is the
// single source of truth the Block Engine consults before admitting any
// spend, both against chain history and against earlier actions in the
// same in-flight block.
package nullifier

import (
	"go.etcd.io/bbolt"

	"shieldedledger/ledgerwire"
)

var bucketName = []byte("nullifiers")

// Index is a thin view over the nullifiers bucket of an open bbolt
// transaction. It carries no in-memory state of its own: per §5's
// "shared-resource policy", the store is the only shared resource and the
// nullifier index is a view through it.
type Index struct {
	tx *bbolt.Tx
}

// New wraps an open read/write or read-only transaction.
func New(tx *bbolt.Tx) *Index {
	return &Index{tx: tx}
}

func (idx *Index) bucket() (*bbolt.Bucket, error) {
	if idx.tx.Writable() {
		return idx.tx.CreateBucketIfNotExists(bucketName)
	}
	b := idx.tx.Bucket(bucketName)
	if b == nil {
		return nil, nil
	}
	return b, nil
}

// Contains reports whether nf has already been revealed.
func (idx *Index) Contains(nf ledgerwire.Hash256) (bool, error) {
	b, err := idx.bucket()
	if err != nil {
		return false, err
	}
	if b == nil {
		return false, nil
	}
	return b.Get(nf[:]) != nil, nil
}

// Insert records nf as spent. It fails if nf is already present, which is
// the double-spend rejection path both for chain history and for a second
// action within the same in-flight block.
func (idx *Index) Insert(nf ledgerwire.Hash256) error {
	b, err := idx.bucket()
	if err != nil {
		return err
	}
	if exists := b.Get(nf[:]); exists != nil {
		return ledgerwire.ErrInvalidNullifier
	}
	return b.Put(nf[:], []byte{1})
}

// Remove deletes nf from the index. Block connect never calls it, and this
// module has no block disconnect.
func (idx *Index) Remove(nf ledgerwire.Hash256) error {
	b, err := idx.bucket()
	if err != nil {
		return err
	}
	if b == nil {
		return nil
	}
	return b.Delete(nf[:])
}
