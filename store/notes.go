package store

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"go.etcd.io/bbolt"

	"shieldedledger/ledgerwire"
	"shieldedledger/merkle"
)

var notesBucket = []byte("notes")

// NoteRecord is one wallet-owned note together with its current witness.
type NoteRecord struct {
	Note    ledgerwire.Note
	Witness merkle.Witness
}

// PutNote persists a newly discovered wallet note at its final witness
// state for the block that discovered it, returning the dense id assigned.
func PutNote(tx *bbolt.Tx, rec *NoteRecord) (uint64, error) {
	b := tx.Bucket(notesBucket)
	id, err := b.NextSequence()
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return 0, err
	}
	return id, b.Put(idKey(id), buf.Bytes())
}

// GetNote retrieves a note and its witness by id.
func GetNote(tx *bbolt.Tx, id uint64) (*NoteRecord, error) {
	b := tx.Bucket(notesBucket)
	data := b.Get(idKey(id))
	if data == nil {
		return nil, fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	var rec NoteRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: note %d: %v", ledgerwire.ErrIntegrity, id, err)
	}
	return &rec, nil
}

// PutWitness overwrites the stored witness for an existing note (used as
// later blocks' commitments advance it).
func PutWitness(tx *bbolt.Tx, id uint64, w *merkle.Witness) error {
	rec, err := GetNote(tx, id)
	if err != nil {
		return err
	}
	rec.Witness = *w
	b := tx.Bucket(notesBucket)
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return err
	}
	return b.Put(idKey(id), buf.Bytes())
}

// DeleteNote removes a note row. Nothing in this module calls it; there is
// no block disconnect.
func DeleteNote(tx *bbolt.Tx, id uint64) error {
	return tx.Bucket(notesBucket).Delete(idKey(id))
}

// AllNotes returns every wallet note keyed by its dense id.
func AllNotes(tx *bbolt.Tx) (map[uint64]*NoteRecord, error) {
	out := make(map[uint64]*NoteRecord)
	err := tx.Bucket(notesBucket).ForEach(func(k, v []byte) error {
		var rec NoteRecord
		if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&rec); err != nil {
			return fmt.Errorf("%w: note %d: %v", ledgerwire.ErrIntegrity, idFromKey(k), err)
		}
		out[idFromKey(k)] = &rec
		return nil
	})
	return out, err
}
