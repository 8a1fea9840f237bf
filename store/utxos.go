package store

import (
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"
)

var utxosBucket = []byte("utxos")

// PutUTXO inserts a new transparent UTXO row, returning the dense id the
// store assigned it.
func PutUTXO(tx *bbolt.Tx, value uint64) (uint64, error) {
	b := tx.Bucket(utxosBucket)
	id, err := b.NextSequence()
	if err != nil {
		return 0, err
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, value)
	if err := b.Put(idKey(id), buf); err != nil {
		return 0, err
	}
	return id, nil
}

// GetUTXO returns the value of the UTXO with the given id.
func GetUTXO(tx *bbolt.Tx, id uint64) (uint64, error) {
	b := tx.Bucket(utxosBucket)
	data := b.Get(idKey(id))
	if data == nil {
		return 0, fmt.Errorf("utxo %d: %w", id, ErrNotFound)
	}
	return binary.BigEndian.Uint64(data), nil
}

// DeleteUTXO consumes (removes) the UTXO with the given id. Deleting a
// missing id is a state error.
func DeleteUTXO(tx *bbolt.Tx, id uint64) error {
	b := tx.Bucket(utxosBucket)
	if b.Get(idKey(id)) == nil {
		return fmt.Errorf("utxo %d: %w", id, ErrNotFound)
	}
	return b.Delete(idKey(id))
}

// AllUTXOs returns every live UTXO id and its value.
func AllUTXOs(tx *bbolt.Tx) (map[uint64]uint64, error) {
	out := make(map[uint64]uint64)
	return out, tx.Bucket(utxosBucket).ForEach(func(k, v []byte) error {
		out[idFromKey(k)] = binary.BigEndian.Uint64(v)
		return nil
	})
}

// TotalTransparentValue sums the value of every live UTXO; an empty table
// sums to 0.
func TotalTransparentValue(tx *bbolt.Tx) (uint64, error) {
	var total uint64
	err := tx.Bucket(utxosBucket).ForEach(func(k, v []byte) error {
		total += binary.BigEndian.Uint64(v)
		return nil
	})
	return total, err
}
