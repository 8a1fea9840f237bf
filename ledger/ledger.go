// Package ledger is the command processor: it stitches the Mempool
// Workspace, Transaction Validator and Block Engine together behind the
// CLI surface described in §6.1. Every exported method runs exactly one
// store transaction, matching §5's concurrency model.
package ledger

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"shieldedledger/cryptoprovider"
	"shieldedledger/ledgerwire"
	"shieldedledger/store"
	"shieldedledger/wallet"
)

// Ledger is the top-level handle CLI commands operate through.
type Ledger struct {
	store *store.Store
	log   *logrus.Entry
}

// New wraps an opened store.
func New(s *store.Store, log *logrus.Entry) *Ledger {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Ledger{store: s, log: log}
}

// Close releases the underlying store.
func (l *Ledger) Close() error { return l.store.Close() }

// CreateUTXO stages a transparent output (create_utxo).
func (l *Ledger) CreateUTXO(value uint64) error {
	return l.store.Update(func(tx *bbolt.Tx) error {
		return store.StageOutput(tx, value)
	})
}

// SpendUTXO stages a transparent input (spend_utxo), failing if the
// referenced UTXO does not exist.
func (l *Ledger) SpendUTXO(id uint64) error {
	return l.store.Update(func(tx *bbolt.Tx) error {
		if _, err := store.GetUTXO(tx, id); err != nil {
			return err
		}
		return store.StageInput(tx, id)
	})
}

// CreateNote stages a shielded output (create_note). If recipient is nil a
// fresh wallet address is allocated; otherwise recipient must already
// round-trip through the address codec.
func (l *Ledger) CreateNote(value uint64, recipient *ledgerwire.Address) (ledgerwire.Address, error) {
	var addr ledgerwire.Address
	err := l.store.Update(func(tx *bbolt.Tx) error {
		if recipient != nil {
			addr = *recipient
		} else {
			a, err := wallet.NewAddress(tx)
			if err != nil {
				return err
			}
			addr = a
		}
		return store.StageShieldedOutput(tx, addr, value)
	})
	return addr, err
}

// SpendNote stages a shielded input (spend_note), failing if the
// referenced note does not exist.
func (l *Ledger) SpendNote(id uint64) error {
	return l.store.Update(func(tx *bbolt.Tx) error {
		if _, err := store.GetNote(tx, id); err != nil {
			return err
		}
		return store.StageShieldedInput(tx, id)
	})
}

// Clear discards all staged mempool rows (clear-txn).
func (l *Ledger) Clear() error {
	return l.store.Update(func(tx *bbolt.Tx) error {
		return store.ClearMempool(tx)
	})
}

// Submit builds a bundle from the staged mempool rows, persists the
// resulting transaction as pending, and clears the mempool (submit-txn).
func (l *Ledger) Submit() error {
	return l.store.Update(func(tx *bbolt.Tx) error {
		_, fvk, err := wallet.Keys(tx)
		if err != nil {
			return err
		}
		anchor, err := store.Anchor(tx)
		if err != nil {
			return err
		}

		inputIDs, err := store.StagedInputs(tx)
		if err != nil {
			return err
		}
		outputValues, err := store.StagedOutputs(tx)
		if err != nil {
			return err
		}
		shieldedInputIDs, err := store.StagedShieldedInputs(tx)
		if err != nil {
			return err
		}
		shieldedOutputs, err := store.StagedShieldedOutputs(tx)
		if err != nil {
			return err
		}

		var spends []cryptoprovider.SpendRequest
		for _, id := range shieldedInputIDs {
			rec, err := store.GetNote(tx, id)
			if err != nil {
				return err
			}
			spends = append(spends, cryptoprovider.SpendRequest{Note: rec.Note})
		}
		var outputs []cryptoprovider.OutputRequest
		for _, o := range shieldedOutputs {
			outputs = append(outputs, cryptoprovider.OutputRequest{Recipient: o.Recipient, Value: o.Value})
		}

		bundle, err := cryptoprovider.BuildBundle(fvk, ledgerwire.Hash256(anchor), spends, outputs)
		if err != nil {
			return fmt.Errorf("building bundle: %w", err)
		}

		t := &ledgerwire.Transaction{Bundle: bundle}
		for _, id := range inputIDs {
			t.Inputs = append(t.Inputs, ledgerwire.TxIn{UTXOID: id})
		}
		for _, v := range outputValues {
			t.Outputs = append(t.Outputs, ledgerwire.TxOut{Value: v})
		}

		if err := store.PutPendingTransaction(tx, t); err != nil {
			return err
		}
		return store.ClearMempool(tx)
	})
}

// Mine drains pending transactions into a new block and connects it
// (§4.7). An empty pending set is a no-op: no block is created.
func (l *Ledger) Mine() error {
	return l.store.Update(func(tx *bbolt.Tx) error {
		pending, err := store.PendingTransactions(tx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			l.log.Debug("mine: no pending transactions, skipping block")
			return nil
		}
		_, fvk, err := wallet.Keys(tx)
		if err != nil {
			return err
		}
		if err := connectBlock(tx, fvk, pending); err != nil {
			return fmt.Errorf("connecting block: %w", err)
		}
		l.log.WithField("transactions", len(pending)).Info("mine: connected block")
		return nil
	})
}

// ConjureUTXO is the test-only hook (§6.1): it appends a UTXO directly,
// bypassing conservation, for seeding test scenarios.
func (l *Ledger) ConjureUTXO(value uint64) (uint64, error) {
	var id uint64
	err := l.store.Update(func(tx *bbolt.Tx) error {
		var err error
		id, err = store.PutUTXO(tx, value)
		return err
	})
	return id, err
}

// Mnemonic returns the wallet's 12-word phrase, bootstrapping it on first
// call.
func (l *Ledger) Mnemonic() (string, error) {
	var phrase string
	err := l.store.Update(func(tx *bbolt.Tx) error {
		p, err := wallet.Mnemonic(tx)
		phrase = p
		return err
	})
	return phrase, err
}

// NewAddress allocates and persists the next sequential wallet address.
func (l *Ledger) NewAddress() (ledgerwire.Address, error) {
	var addr ledgerwire.Address
	err := l.store.Update(func(tx *bbolt.Tx) error {
		a, err := wallet.NewAddress(tx)
		addr = a
		return err
	})
	return addr, err
}

// ValuePools returns the transparent and shielded pool totals.
func (l *Ledger) ValuePools() (transparent, shielded uint64, err error) {
	err = l.store.View(func(tx *bbolt.Tx) error {
		t, s, err := wallet.ValuePools(tx)
		transparent, shielded = t, s
		return err
	})
	return
}

// UTXOsAndNotes lists every live UTXO and every unspent wallet note.
func (l *Ledger) UTXOsAndNotes() (utxos map[uint64]uint64, notes map[uint64]*store.NoteRecord, err error) {
	err = l.store.View(func(tx *bbolt.Tx) error {
		u, err := wallet.UTXOs(tx)
		if err != nil {
			return err
		}
		n, err := wallet.UnspentNotes(tx)
		if err != nil {
			return err
		}
		utxos, notes = u, n
		return nil
	})
	return
}
