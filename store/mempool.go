package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"go.etcd.io/bbolt"

	"shieldedledger/ledgerwire"
)

// The mempool workspace is four flat staging tables, written only by the
// create_*/spend_* commands and drained only by submit/clear.
var (
	mempoolInputsBucket          = []byte("mempool_inputs")          // utxo id refs
	mempoolOutputsBucket         = []byte("mempool_outputs")         // value list
	mempoolShieldedInputsBucket  = []byte("mempool_shielded_inputs") // note id refs
	mempoolShieldedOutputsBucket = []byte("mempool_shielded_outputs")
)

// ShieldedOutputStage is a staged shielded output row.
type ShieldedOutputStage struct {
	Recipient ledgerwire.Address
	Value     uint64
}

func putU64(tx *bbolt.Tx, bucket []byte, v uint64) error {
	b := tx.Bucket(bucket)
	id, err := b.NextSequence()
	if err != nil {
		return err
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return b.Put(idKey(id), buf)
}

func allU64(tx *bbolt.Tx, bucket []byte) ([]uint64, error) {
	var out []uint64
	err := tx.Bucket(bucket).ForEach(func(_, v []byte) error {
		out = append(out, binary.BigEndian.Uint64(v))
		return nil
	})
	return out, err
}

// StageInput appends a transparent-input reference (spend_utxo).
func StageInput(tx *bbolt.Tx, utxoID uint64) error {
	return putU64(tx, mempoolInputsBucket, utxoID)
}

// StagedInputs returns the staged transparent-input utxo ids.
func StagedInputs(tx *bbolt.Tx) ([]uint64, error) {
	return allU64(tx, mempoolInputsBucket)
}

// StageOutput appends a transparent-output value (create_utxo).
func StageOutput(tx *bbolt.Tx, value uint64) error {
	return putU64(tx, mempoolOutputsBucket, value)
}

// StagedOutputs returns the staged transparent-output values.
func StagedOutputs(tx *bbolt.Tx) ([]uint64, error) {
	return allU64(tx, mempoolOutputsBucket)
}

// StageShieldedInput appends a shielded-input reference (spend_note).
func StageShieldedInput(tx *bbolt.Tx, noteID uint64) error {
	return putU64(tx, mempoolShieldedInputsBucket, noteID)
}

// StagedShieldedInputs returns the staged shielded-input note ids.
func StagedShieldedInputs(tx *bbolt.Tx) ([]uint64, error) {
	return allU64(tx, mempoolShieldedInputsBucket)
}

// StageShieldedOutput appends a shielded-output row (create_note).
func StageShieldedOutput(tx *bbolt.Tx, recipient ledgerwire.Address, value uint64) error {
	b := tx.Bucket(mempoolShieldedOutputsBucket)
	id, err := b.NextSequence()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ShieldedOutputStage{Recipient: recipient, Value: value}); err != nil {
		return err
	}
	return b.Put(idKey(id), buf.Bytes())
}

// StagedShieldedOutputs returns the staged shielded-output rows.
func StagedShieldedOutputs(tx *bbolt.Tx) ([]ShieldedOutputStage, error) {
	var out []ShieldedOutputStage
	err := tx.Bucket(mempoolShieldedOutputsBucket).ForEach(func(_, v []byte) error {
		var row ShieldedOutputStage
		if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&row); err != nil {
			return fmt.Errorf("%w: mempool shielded output: %v", ledgerwire.ErrIntegrity, err)
		}
		out = append(out, row)
		return nil
	})
	return out, err
}

// ClearMempool wipes all four staging tables (the `clear` command, and the
// tail of a successful `submit`).
func ClearMempool(tx *bbolt.Tx) error {
	for _, b := range []([]byte){
		mempoolInputsBucket, mempoolOutputsBucket,
		mempoolShieldedInputsBucket, mempoolShieldedOutputsBucket,
	} {
		if err := clearBucket(tx, b); err != nil {
			return err
		}
	}
	return nil
}
