package wallet

import (
	"testing"

	"go.etcd.io/bbolt"

	"shieldedledger/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMnemonicIsStableAcrossCalls(t *testing.T) {
	s := openTestStore(t)

	var phrase1, phrase2 string
	err := s.Update(func(tx *bbolt.Tx) error {
		var err error
		phrase1, err = Mnemonic(tx)
		return err
	})
	if err != nil {
		t.Fatalf("first Mnemonic: %v", err)
	}

	err = s.Update(func(tx *bbolt.Tx) error {
		var err error
		phrase2, err = Mnemonic(tx)
		return err
	})
	if err != nil {
		t.Fatalf("second Mnemonic: %v", err)
	}

	if phrase1 != phrase2 {
		t.Errorf("mnemonic changed across calls: %q != %q", phrase1, phrase2)
	}
}

func TestKeysAreStableAcrossCalls(t *testing.T) {
	s := openTestStore(t)

	var sk1, sk2 [32]byte
	err := s.Update(func(tx *bbolt.Tx) error {
		sk, _, err := Keys(tx)
		sk1 = sk
		return err
	})
	if err != nil {
		t.Fatalf("first Keys: %v", err)
	}
	err = s.Update(func(tx *bbolt.Tx) error {
		sk, _, err := Keys(tx)
		sk2 = sk
		return err
	})
	if err != nil {
		t.Fatalf("second Keys: %v", err)
	}
	if sk1 != sk2 {
		t.Errorf("spending key not stable across calls once the mnemonic is persisted")
	}
}

func TestNewAddressAllocatesSequentially(t *testing.T) {
	s := openTestStore(t)

	var a1, a2 [43]byte
	err := s.Update(func(tx *bbolt.Tx) error {
		addr, err := NewAddress(tx)
		a1 = addr
		return err
	})
	if err != nil {
		t.Fatalf("first NewAddress: %v", err)
	}
	err = s.Update(func(tx *bbolt.Tx) error {
		addr, err := NewAddress(tx)
		a2 = addr
		return err
	})
	if err != nil {
		t.Fatalf("second NewAddress: %v", err)
	}
	if a1 == a2 {
		t.Errorf("two NewAddress calls returned the same address")
	}
}

func TestValuePoolsEmptyStoreIsZero(t *testing.T) {
	s := openTestStore(t)
	var transparent, shielded uint64
	err := s.View(func(tx *bbolt.Tx) error {
		var err error
		transparent, shielded, err = ValuePools(tx)
		return err
	})
	if err != nil {
		t.Fatalf("ValuePools: %v", err)
	}
	if transparent != 0 || shielded != 0 {
		t.Errorf("ValuePools on an empty store = (%d, %d), want (0, 0)", transparent, shielded)
	}
}
