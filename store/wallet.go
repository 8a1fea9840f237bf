package store

import (
	"fmt"

	"go.etcd.io/bbolt"

	"shieldedledger/ledgerwire"
)

var (
	walletSeedBucket = []byte("wallet_seed")
	addressesBucket  = []byte("addresses")
	phraseKey        = []byte("phrase")
)

// PutSeedPhrase persists the wallet's one and only mnemonic row. Called
// once, on first startup.
func PutSeedPhrase(tx *bbolt.Tx, phrase string) error {
	return tx.Bucket(walletSeedBucket).Put(phraseKey, []byte(phrase))
}

// SeedPhrase returns the persisted mnemonic, or ("", false) if the wallet
// has not been bootstrapped yet.
func SeedPhrase(tx *bbolt.Tx) (string, bool, error) {
	data := tx.Bucket(walletSeedBucket).Get(phraseKey)
	if data == nil {
		return "", false, nil
	}
	return string(data), true, nil
}

// NextAddressIndex returns max(index)+1 over the addresses table, with 0
// reserved as a sentinel so the first allocated index is 1.
func NextAddressIndex(tx *bbolt.Tx) uint32 {
	return uint32(tx.Bucket(addressesBucket).Sequence()) + 1
}

// PutAddress records a newly allocated address at the given index.
func PutAddress(tx *bbolt.Tx, index uint32, addr ledgerwire.Address) error {
	b := tx.Bucket(addressesBucket)
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	if uint32(seq) != index {
		return fmt.Errorf("address index %d out of sequence (store expected %d)", index, seq)
	}
	return b.Put(idKey(uint64(index)), addr[:])
}
