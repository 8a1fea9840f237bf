package store

import (
	"testing"

	"go.etcd.io/bbolt"

	"shieldedledger/ledgerwire"
	"shieldedledger/merkle"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUTXOCRUD(t *testing.T) {
	s := openTestStore(t)

	var id uint64
	err := s.Update(func(tx *bbolt.Tx) error {
		var err error
		id, err = PutUTXO(tx, 42)
		return err
	})
	if err != nil {
		t.Fatalf("PutUTXO: %v", err)
	}

	err = s.View(func(tx *bbolt.Tx) error {
		value, err := GetUTXO(tx, id)
		if err != nil {
			return err
		}
		if value != 42 {
			t.Errorf("GetUTXO = %d, want 42", value)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("GetUTXO: %v", err)
	}

	err = s.Update(func(tx *bbolt.Tx) error {
		return DeleteUTXO(tx, id)
	})
	if err != nil {
		t.Fatalf("DeleteUTXO: %v", err)
	}

	err = s.View(func(tx *bbolt.Tx) error {
		if _, err := GetUTXO(tx, id); err == nil {
			t.Errorf("GetUTXO succeeded after delete")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view after delete: %v", err)
	}
}

func TestDeleteMissingUTXOIsStateError(t *testing.T) {
	s := openTestStore(t)
	err := s.Update(func(tx *bbolt.Tx) error {
		return DeleteUTXO(tx, 9999)
	})
	if err == nil {
		t.Errorf("deleting a missing utxo should fail")
	}
}

func TestNoteCRUDAndWitnessUpdate(t *testing.T) {
	s := openTestStore(t)
	note := ledgerwire.Note{Value: 7}

	var id uint64
	err := s.Update(func(tx *bbolt.Tx) error {
		var err error
		id, err = PutNote(tx, &NoteRecord{Note: note, Witness: merkle.Witness{}})
		return err
	})
	if err != nil {
		t.Fatalf("PutNote: %v", err)
	}

	err = s.Update(func(tx *bbolt.Tx) error {
		w := merkle.Witness{Subsequent: [][32]byte{{1}}}
		return PutWitness(tx, id, &w)
	})
	if err != nil {
		t.Fatalf("PutWitness: %v", err)
	}

	err = s.View(func(tx *bbolt.Tx) error {
		rec, err := GetNote(tx, id)
		if err != nil {
			return err
		}
		if rec.Note.Value != 7 {
			t.Errorf("Note.Value = %d, want 7", rec.Note.Value)
		}
		if len(rec.Witness.Subsequent) != 1 {
			t.Errorf("witness update did not persist")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
}

func TestBlockCRUDAndChainHeight(t *testing.T) {
	s := openTestStore(t)

	if err := s.View(func(tx *bbolt.Tx) error {
		if h := ChainHeight(tx); h != 0 {
			t.Errorf("ChainHeight on empty store = %d, want 0", h)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}

	err := s.Update(func(tx *bbolt.Tx) error {
		return PutBlock(tx, &BlockRecord{Fee: 5})
	})
	if err != nil {
		t.Fatalf("PutBlock: %v", err)
	}

	err = s.View(func(tx *bbolt.Tx) error {
		if h := ChainHeight(tx); h != 1 {
			t.Errorf("ChainHeight after one block = %d, want 1", h)
		}
		rec, err := GetBlock(tx, 1)
		if err != nil {
			return err
		}
		if rec.Fee != 5 {
			t.Errorf("Fee = %d, want 5", rec.Fee)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view after put: %v", err)
	}
}

func TestAnchorFallsBackToEmptyRootWithShortHistory(t *testing.T) {
	s := openTestStore(t)
	err := s.View(func(tx *bbolt.Tx) error {
		anchor, err := Anchor(tx)
		if err != nil {
			return err
		}
		if anchor != merkle.EmptyRoot() {
			t.Errorf("anchor on empty chain should be the canonical empty root")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestMempoolStagingRoundTrip(t *testing.T) {
	s := openTestStore(t)
	err := s.Update(func(tx *bbolt.Tx) error {
		if err := StageInput(tx, 1); err != nil {
			return err
		}
		if err := StageOutput(tx, 2); err != nil {
			return err
		}
		if err := StageShieldedInput(tx, 3); err != nil {
			return err
		}
		return StageShieldedOutput(tx, ledgerwire.Address{}, 4)
	})
	if err != nil {
		t.Fatalf("staging: %v", err)
	}

	err = s.View(func(tx *bbolt.Tx) error {
		inputs, err := StagedInputs(tx)
		if err != nil {
			return err
		}
		if len(inputs) != 1 || inputs[0] != 1 {
			t.Errorf("StagedInputs = %v, want [1]", inputs)
		}
		outputs, err := StagedOutputs(tx)
		if err != nil {
			return err
		}
		if len(outputs) != 1 || outputs[0] != 2 {
			t.Errorf("StagedOutputs = %v, want [2]", outputs)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	err = s.Update(func(tx *bbolt.Tx) error {
		return ClearMempool(tx)
	})
	if err != nil {
		t.Fatalf("ClearMempool: %v", err)
	}

	err = s.View(func(tx *bbolt.Tx) error {
		inputs, err := StagedInputs(tx)
		if err != nil {
			return err
		}
		if len(inputs) != 0 {
			t.Errorf("mempool inputs survived ClearMempool: %v", inputs)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view after clear: %v", err)
	}
}

func TestWalletSeedAndAddressSequence(t *testing.T) {
	s := openTestStore(t)

	err := s.Update(func(tx *bbolt.Tx) error {
		if _, ok, err := SeedPhrase(tx); err != nil || ok {
			t.Errorf("expected no seed phrase yet, ok=%v err=%v", ok, err)
		}
		return PutSeedPhrase(tx, "abandon abandon abandon")
	})
	if err != nil {
		t.Fatalf("PutSeedPhrase: %v", err)
	}

	err = s.Update(func(tx *bbolt.Tx) error {
		idx := NextAddressIndex(tx)
		if idx != 1 {
			t.Errorf("NextAddressIndex = %d, want 1", idx)
		}
		return PutAddress(tx, idx, ledgerwire.Address{1})
	})
	if err != nil {
		t.Fatalf("PutAddress: %v", err)
	}

	err = s.Update(func(tx *bbolt.Tx) error {
		idx := NextAddressIndex(tx)
		if idx != 2 {
			t.Errorf("NextAddressIndex after one allocation = %d, want 2", idx)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
}
