package store

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"go.etcd.io/bbolt"

	"shieldedledger/ledgerwire"
)

var pendingTxBucket = []byte("transactions")

// PutPendingTransaction records a submitted transaction awaiting inclusion.
func PutPendingTransaction(tx *bbolt.Tx, t *ledgerwire.Transaction) error {
	b := tx.Bucket(pendingTxBucket)
	id, err := b.NextSequence()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t); err != nil {
		return err
	}
	return b.Put(idKey(id), buf.Bytes())
}

// PendingTransactions returns every pending transaction in submission
// order.
func PendingTransactions(tx *bbolt.Tx) ([]ledgerwire.Transaction, error) {
	b := tx.Bucket(pendingTxBucket)
	var out []ledgerwire.Transaction
	err := b.ForEach(func(k, v []byte) error {
		var t ledgerwire.Transaction
		if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&t); err != nil {
			return fmt.Errorf("%w: pending tx: %v", ledgerwire.ErrIntegrity, err)
		}
		out = append(out, t)
		return nil
	})
	return out, err
}

// ClearPendingTransactions empties the pending-transaction table, as done
// by `mine` once a block has consumed it.
func ClearPendingTransactions(tx *bbolt.Tx) error {
	return clearBucket(tx, pendingTxBucket)
}

func clearBucket(tx *bbolt.Tx, name []byte) error {
	if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
		return err
	}
	_, err := tx.CreateBucket(name)
	return err
}
