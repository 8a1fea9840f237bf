package ledger

import (
	"fmt"

	"go.etcd.io/bbolt"

	"shieldedledger/cryptoprovider"
	"shieldedledger/ledgerwire"
	"shieldedledger/nullifier"
	"shieldedledger/store"
)

// validateTransaction runs the Transaction Validator's per-transaction
// checks (§4.3) and returns the fee it owes the block. It never mutates
// the nullifier index — that happens later, atomically with block connect
// (§4.4 step 4), so that a transaction's own duplicate-nullifier check
// here only screens against chain history, not against sibling
// transactions in the same in-flight block.
func validateTransaction(tx *bbolt.Tx, t *ledgerwire.Transaction) (uint64, error) {
	idx := nullifier.New(tx)
	for _, nf := range t.Nullifiers() {
		present, err := idx.Contains(nf)
		if err != nil {
			return 0, err
		}
		if present {
			return 0, ledgerwire.ErrInvalidNullifier
		}
	}

	// §4.3 step 3: bundle verification is mandatory, never bypassed, even
	// though the upstream design marks it TODO.
	if err := cryptoprovider.VerifyBundle(t.Bundle); err != nil {
		return 0, fmt.Errorf("bundle verification: %w", err)
	}

	var transparentIn uint64
	for _, in := range t.Inputs {
		value, err := store.GetUTXO(tx, in.UTXOID)
		if err != nil {
			return 0, fmt.Errorf("transparent input %d: %w", in.UTXOID, err)
		}
		transparentIn += value
	}

	var transparentOut uint64
	for _, out := range t.Outputs {
		transparentOut += out.Value
	}

	fee := int64(transparentIn) + t.ValueBalance() - int64(transparentOut)
	if fee < 0 {
		return 0, fmt.Errorf("%w: fee %d", ledgerwire.ErrValueBalance, fee)
	}
	return uint64(fee), nil
}
