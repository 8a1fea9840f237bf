package ledger

import (
	"fmt"

	"go.etcd.io/bbolt"

	"shieldedledger/cryptoprovider"
	"shieldedledger/ledgerwire"
	"shieldedledger/merkle"
	"shieldedledger/nullifier"
	"shieldedledger/store"
)

// witnessInProgress tracks one note discovered earlier in the block
// currently being connected, whose witness must keep advancing as later
// commitments in the same block arrive.
type witnessInProgress struct {
	note    ledgerwire.Note
	witness *merkle.Witness
}

// connectBlock runs the Block Engine's connect protocol (§4.4) against the
// given ordered transactions, entirely inside the caller's single store
// transaction. Any returned error must cause the caller to abort — no
// partial state is safe to keep.
func connectBlock(tx *bbolt.Tx, fvk cryptoprovider.FullViewingKey, transactions []ledgerwire.Transaction) error {
	// Step 1: validate and accumulate fees.
	var totalFee uint64
	for i := range transactions {
		fee, err := validateTransaction(tx, &transactions[i])
		if err != nil {
			return fmt.Errorf("transaction %d failed validation: %w", i, err)
		}
		totalFee += fee
	}

	// Step 2: transparent UTXO mutation.
	for _, t := range transactions {
		for _, in := range t.Inputs {
			if err := store.DeleteUTXO(tx, in.UTXOID); err != nil {
				return fmt.Errorf("consuming utxo %d: %w", in.UTXOID, err)
			}
		}
		for _, out := range t.Outputs {
			if _, err := store.PutUTXO(tx, out.Value); err != nil {
				return err
			}
		}
	}

	// Step 3: wallet discovery and witness propagation. Every note the
	// wallet already holds from earlier blocks must keep its witness
	// advancing as this block's commitments are appended, exactly like the
	// notes this block newly discovers.
	ivk := cryptoprovider.IVK(fvk, cryptoprovider.ScopeExternal)
	frontier, err := loadTipFrontier(tx)
	if err != nil {
		return err
	}

	existing, err := store.AllNotes(tx)
	if err != nil {
		return err
	}
	existingIDs := make([]uint64, 0, len(existing))
	existingWitnesses := make([]*merkle.Witness, 0, len(existing))
	for id, rec := range existing {
		w := rec.Witness
		existingIDs = append(existingIDs, id)
		existingWitnesses = append(existingWitnesses, &w)
	}

	var inProgress []*witnessInProgress
	for _, t := range transactions {
		owned := map[int]cryptoprovider.DecryptedOutput{}
		if t.Bundle != nil {
			decrypted, err := cryptoprovider.DecryptOutputsWithKeys(t.Bundle, []cryptoprovider.IncomingViewingKey{ivk})
			if err != nil {
				return fmt.Errorf("decrypting outputs: %w", err)
			}
			for _, d := range decrypted {
				owned[d.ActionIndex] = d
			}
		}

		for actionIdx, cmx := range t.Commitments() {
			for _, w := range existingWitnesses {
				if err := w.Append([32]byte(cmx)); err != nil {
					return fmt.Errorf("advancing witness: %w", err)
				}
			}

			if d, ok := owned[actionIdx]; ok {
				w, err := merkle.NewWitness(frontier, [32]byte(cmx))
				if err != nil {
					return fmt.Errorf("initializing witness: %w", err)
				}
				for _, wip := range inProgress {
					if err := wip.witness.Append([32]byte(cmx)); err != nil {
						return fmt.Errorf("advancing witness: %w", err)
					}
				}
				inProgress = append(inProgress, &witnessInProgress{note: d.Note, witness: w})
			} else {
				if err := frontier.Append([32]byte(cmx)); err != nil {
					return fmt.Errorf("appending commitment: %w", err)
				}
				for _, wip := range inProgress {
					if err := wip.witness.Append([32]byte(cmx)); err != nil {
						return fmt.Errorf("advancing witness: %w", err)
					}
				}
			}
		}
	}

	for i, id := range existingIDs {
		if err := store.PutWitness(tx, id, existingWitnesses[i]); err != nil {
			return err
		}
	}
	for _, wip := range inProgress {
		if _, err := store.PutNote(tx, &store.NoteRecord{Note: wip.note, Witness: *wip.witness}); err != nil {
			return err
		}
	}

	// Step 4: nullifier commit, sequential so that two transactions in this
	// same block spending the same note are rejected.
	idx := nullifier.New(tx)
	for i, t := range transactions {
		for _, nf := range t.Nullifiers() {
			if err := idx.Insert(nf); err != nil {
				return fmt.Errorf("transaction %d: %w", i, err)
			}
		}
	}

	// Steps 5-6: persist the final frontier snapshot and the block row.
	rec := &store.BlockRecord{
		Fee:          totalFee,
		HasFrontier:  frontier.Size > 0,
		Frontier:     *frontier,
		Transactions: transactions,
	}
	if err := store.PutBlock(tx, rec); err != nil {
		return err
	}
	return store.ClearPendingTransactions(tx)
}

// loadTipFrontier returns the frontier carried by the current chain tip,
// or a fresh empty frontier if the chain has never produced a commitment.
func loadTipFrontier(tx *bbolt.Tx) (*merkle.Frontier, error) {
	height := store.ChainHeight(tx)
	if height == 0 {
		return &merkle.Frontier{}, nil
	}
	tip, err := store.GetBlock(tx, height)
	if err != nil {
		return nil, err
	}
	if !tip.HasFrontier {
		return &merkle.Frontier{}, nil
	}
	f := tip.Frontier
	return &f, nil
}
