// Package wallet implements the Wallet View (§4.6): seed bootstrap,
// sequential shielded-address allocation, and read-only queries over owned
// notes, UTXOs and pool totals. It owns no ledger tables besides address
// allocation; all key material is re-derived from the persisted mnemonic
// on every call rather than cached, per §5's no-global-state policy.
package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
	"go.etcd.io/bbolt"

	"shieldedledger/cryptoprovider"
	"shieldedledger/ledgerwire"
	"shieldedledger/nullifier"
	"shieldedledger/store"
)

// mnemonicBits picks a 12-word English phrase (128 bits of entropy).
const mnemonicBits = 128

// Mnemonic returns the wallet's persisted 12-word phrase, generating and
// persisting one on first call.
func Mnemonic(tx *bbolt.Tx) (string, error) {
	phrase, ok, err := store.SeedPhrase(tx)
	if err != nil {
		return "", err
	}
	if ok {
		return phrase, nil
	}

	entropy, err := bip39.NewEntropy(mnemonicBits)
	if err != nil {
		return "", fmt.Errorf("generating seed entropy: %w", err)
	}
	phrase, err = bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generating mnemonic: %w", err)
	}
	if err := store.PutSeedPhrase(tx, phrase); err != nil {
		return "", err
	}
	return phrase, nil
}

// Keys derives the wallet's spending and full viewing keys from the
// persisted mnemonic, bootstrapping the mnemonic if this is the first call.
func Keys(tx *bbolt.Tx) (cryptoprovider.SpendingKey, cryptoprovider.FullViewingKey, error) {
	phrase, err := Mnemonic(tx)
	if err != nil {
		return cryptoprovider.SpendingKey{}, cryptoprovider.FullViewingKey{}, err
	}
	seed, err := bip39.NewSeedWithErrorChecking(phrase, "")
	if err != nil {
		return cryptoprovider.SpendingKey{}, cryptoprovider.FullViewingKey{}, fmt.Errorf("deriving seed: %w", err)
	}
	sk, err := cryptoprovider.DeriveSpendingKey(seed)
	if err != nil {
		return cryptoprovider.SpendingKey{}, cryptoprovider.FullViewingKey{}, fmt.Errorf("deriving spending key: %w", err)
	}
	fvk := cryptoprovider.FullViewingKeyFrom(sk)
	return sk, fvk, nil
}

// NewAddress allocates and persists the next sequential external-scope
// address: index = max(index)+1, 0 reserved as a sentinel.
func NewAddress(tx *bbolt.Tx) (ledgerwire.Address, error) {
	_, fvk, err := Keys(tx)
	if err != nil {
		return ledgerwire.Address{}, err
	}
	index := store.NextAddressIndex(tx)
	addr, err := cryptoprovider.AddressAt(fvk, index, cryptoprovider.ScopeExternal)
	if err != nil {
		return ledgerwire.Address{}, fmt.Errorf("deriving address at index %d: %w", index, err)
	}
	if err := store.PutAddress(tx, index, addr); err != nil {
		return ledgerwire.Address{}, err
	}
	return addr, nil
}

// ValuePools returns the transparent and unspent-shielded pool totals,
// each 0 for an empty table. A note counts toward the shielded total only
// while its nullifier has not yet been revealed on-chain.
func ValuePools(tx *bbolt.Tx) (transparent, shielded uint64, err error) {
	transparent, err = store.TotalTransparentValue(tx)
	if err != nil {
		return 0, 0, err
	}
	notes, err := UnspentNotes(tx)
	if err != nil {
		return 0, 0, err
	}
	for _, rec := range notes {
		shielded += rec.Note.Value
	}
	return transparent, shielded, nil
}

// UnspentNotes enumerates every wallet-owned note whose nullifier has not
// yet been revealed, together with its current witness.
func UnspentNotes(tx *bbolt.Tx) (map[uint64]*store.NoteRecord, error) {
	all, err := store.AllNotes(tx)
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]*store.NoteRecord)
	// With no notes there is nothing to key, so no seed bootstrap (a write)
	// happens and the query also works inside a read-only transaction.
	if len(all) == 0 {
		return out, nil
	}
	_, fvk, err := Keys(tx)
	if err != nil {
		return nil, err
	}
	idx := nullifier.New(tx)
	for id, rec := range all {
		nf := cryptoprovider.DeriveNullifier(fvk, rec.Note)
		spent, err := idx.Contains(nf)
		if err != nil {
			return nil, err
		}
		if !spent {
			out[id] = rec
		}
	}
	return out, nil
}

// UTXOs enumerates every live transparent UTXO.
func UTXOs(tx *bbolt.Tx) (map[uint64]uint64, error) {
	return store.AllUTXOs(tx)
}
