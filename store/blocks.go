package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"go.etcd.io/bbolt"

	"shieldedledger/ledgerwire"
	"shieldedledger/merkle"
)

var blocksBucket = []byte("blocks")

// BlockRecord is the persisted form of a connected block: its total fee,
// an optional frontier snapshot (present iff any commitment has ever been
// produced by this or an earlier block), and the ordered transaction body.
type BlockRecord struct {
	ID           uint64
	Fee          uint64
	HasFrontier  bool
	Frontier     merkle.Frontier
	Transactions []ledgerwire.Transaction
}

func idKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

func idFromKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}

// NextBlockID returns the dense id the next connected block will receive,
// without consuming it — callers must still persist the block to commit
// the sequence via PutBlock.
func NextBlockID(tx *bbolt.Tx) (uint64, error) {
	b := tx.Bucket(blocksBucket)
	seq := b.Sequence()
	return seq + 1, nil
}

// PutBlock persists a connected block, advancing the bucket's id sequence.
func PutBlock(tx *bbolt.Tx, rec *BlockRecord) error {
	b := tx.Bucket(blocksBucket)

	id, err := b.NextSequence()
	if err != nil {
		return err
	}
	rec.ID = id

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return fmt.Errorf("encoding block %d: %w", id, err)
	}
	return b.Put(idKey(id), buf.Bytes())
}

// GetBlock reads the block with the given dense id.
func GetBlock(tx *bbolt.Tx, id uint64) (*BlockRecord, error) {
	b := tx.Bucket(blocksBucket)
	data := b.Get(idKey(id))
	if data == nil {
		return nil, fmt.Errorf("block %d: %w", id, ErrNotFound)
	}
	var rec BlockRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: block %d: %v", ledgerwire.ErrIntegrity, id, err)
	}
	return &rec, nil
}

// DeleteBlock removes the block with the given id. Nothing in this module
// calls it; there is no block disconnect.
func DeleteBlock(tx *bbolt.Tx, id uint64) error {
	return tx.Bucket(blocksBucket).Delete(idKey(id))
}

// ChainHeight returns the id of the most recently connected block, or 0 if
// the chain is empty.
func ChainHeight(tx *bbolt.Tx) uint64 {
	return tx.Bucket(blocksBucket).Sequence()
}

// AnchorConfirmations is the fixed policy named in §9: the anchor handed to
// a bundle builder is the frontier three confirmations behind the tip.
const AnchorConfirmations = 3

// Anchor returns the frontier root to use for a new bundle: the frontier
// stored AnchorConfirmations blocks before the current tip ("ORDER BY id
// DESC LIMIT 1 OFFSET 3"), or the empty-tree root if the chain does not yet
// have that much history.
func Anchor(tx *bbolt.Tx) ([32]byte, error) {
	height := ChainHeight(tx)
	target := height - AnchorConfirmations // block id that carries the anchor frontier
	if height <= AnchorConfirmations || target == 0 {
		return merkle.EmptyRoot(), nil
	}
	rec, err := GetBlock(tx, target)
	if err != nil {
		return [32]byte{}, err
	}
	if !rec.HasFrontier {
		return merkle.EmptyRoot(), nil
	}
	return rec.Frontier.Root(), nil
}
